// Package notify announces finished drafts on external channels. The job
// pipeline treats notification failure as a warning, never as job failure.
package notify

import (
	"fmt"
	"strings"

	"github.com/jhagelund/snaplist/internal/draft"
)

// Notifier delivers a completed draft announcement.
type Notifier interface {
	DraftReady(jobID string, d *draft.ListingDraft) error
}

// NopNotifier discards notifications. Used when no channel is configured.
type NopNotifier struct{}

func (NopNotifier) DraftReady(string, *draft.ListingDraft) error { return nil }

// FormatDraftMessage renders the notification text for a finished draft,
// Telegram Markdown V1 flavored. Kept free of transport concerns.
func FormatDraftMessage(jobID string, d *draft.ListingDraft) string {
	var sb strings.Builder

	sb.WriteString("🛍️ *Neuer Inseratsentwurf*\n\n")
	sb.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(d.ListingTitle)))
	sb.WriteString(fmt.Sprintf("📂 %s · %s\n", escapeMarkdown(d.Product.Category), escapeMarkdown(d.Product.Condition)))
	sb.WriteString(fmt.Sprintf("💰 Empfehlung: %s (Spanne %s – %s)\n",
		FormatCents(d.RecommendedPriceCents),
		FormatCents(d.EstimatedValueRange.LowCents),
		FormatCents(d.EstimatedValueRange.HighCents)))
	sb.WriteString(fmt.Sprintf("🎯 Konfidenz: %.0f%%\n", d.ConfidenceScore*100))

	if d.Source == draft.SourceMock {
		sb.WriteString("\n⚠️ Entwurf ohne Bildanalyse erstellt. Bitte vor Veröffentlichung prüfen.\n")
	}
	sb.WriteString(fmt.Sprintf("\nAuftrag: %s", escapeMarkdown(jobID)))

	return sb.String()
}

// FormatCents renders integer cents as a German euro amount.
func FormatCents(cents int) string {
	return fmt.Sprintf("%d,%02d €", cents/100, cents%100)
}

// escapeMarkdown escapes special characters for Telegram Markdown V1.
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "*", "\\*")
	text = strings.ReplaceAll(text, "_", "\\_")
	text = strings.ReplaceAll(text, "`", "\\`")
	text = strings.ReplaceAll(text, "[", "\\[")
	return text
}
