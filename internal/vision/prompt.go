package vision

import (
	"strings"

	"github.com/lithammer/dedent"
)

const analysisPrompt = `
	Analysiere dieses Produktfoto für den Verkauf auf einem deutschen Gebrauchtwaren-Marktplatz.

	Antworte mit einem JSON-Objekt mit genau diesen Feldern:
	{
	  "product_name": "kurzer, präziser Produktname",
	  "category": "Kategorie, z.B. Elektronik, Möbel, Kleidung, Sonstiges",
	  "condition": "Neu | Sehr gut | Gut | Gebraucht | Defekt",
	  "brand": "Marke falls erkennbar, sonst leerer String",
	  "features": ["sichtbare Merkmale und Ausstattung"],
	  "estimated_value_eur": {"min": 20, "max": 40},
	  "confidence_score": 0.8,
	  "suggested_keywords": ["suchbegriffe", "klein geschrieben"],
	  "listing_title": "Anzeigentitel, max. 80 Zeichen",
	  "listing_description": "2-3 Sätze Beschreibung für die Anzeige",
	  "price_recommendation_eur": 30,
	  "shipping_suggestion": "Versandvorschlag, z.B. DHL Paket",
	  "condition_details": "Details zum Zustand, sichtbare Mängel"
	}

	Regeln:
	- Alle Preise in Euro als Zahlen, ohne Währungszeichen.
	- estimated_value_eur beschreibt eine realistische Preisspanne für den Gebrauchtmarkt.
	- confidence_score zwischen 0.0 und 1.0.
	- Antworte NUR mit dem JSON-Objekt. Kein Markdown, keine Erklärungen, kein Text davor oder danach.`

// BuildPrompt returns the fixed instruction prompt describing the JSON
// shape the model must emit. Deterministic: same string on every call. The
// schema is embedded as example-shaped text because the target endpoints
// are only asked for JSON by instruction, not constrained decoding - the
// response parser tolerates violations regardless.
func BuildPrompt() string {
	return strings.TrimSpace(dedent.Dedent(analysisPrompt))
}
