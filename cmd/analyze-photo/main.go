package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jhagelund/snaplist/internal/config"
	"github.com/jhagelund/snaplist/internal/draft"
	"github.com/jhagelund/snaplist/internal/vision"
)

func main() {
	var file, provider, model string
	flag.StringVar(&file, "file", "", "Path to the product photo")
	flag.StringVar(&provider, "provider", "", "Vision provider (openai or gemini)")
	flag.StringVar(&model, "model", "", "Model identifier override")
	flag.Parse()

	// Accept photo path as positional argument
	if file == "" && flag.NArg() > 0 {
		file = flag.Arg(0)
	}
	if file == "" {
		fmt.Fprintf(os.Stderr, "Usage: analyze-photo [-provider openai|gemini] [-model name] <photo>\n")
		fmt.Fprintf(os.Stderr, "\nWithout an API key the draft is produced in demo mode.\n")
		os.Exit(1)
	}

	// Keep stdout clean for the JSON draft
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg := config.FromEnv()
	if provider != "" {
		cfg.Provider = provider
	}
	if model != "" {
		cfg.Model = model
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	imageData, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read photo: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var client vision.Client
	if apiKey := cfg.ProviderKey(); apiKey != "" {
		switch cfg.Provider {
		case "gemini":
			client, err = vision.NewGeminiClient(ctx, vision.GeminiOpts{APIKey: apiKey, Model: cfg.Model})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to initialize gemini client: %v\n", err)
				os.Exit(1)
			}
		default:
			client = vision.NewOpenAIClient(vision.OpenAIOpts{
				APIKey:  apiKey,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.Model,
				Timeout: cfg.ModelTimeout,
			})
		}
	}

	orchestrator := draft.NewOrchestrator(draft.OrchestratorOpts{Client: client, Live: client != nil})
	d := orchestrator.ProduceDraft(ctx, imageData, file)

	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal draft: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
