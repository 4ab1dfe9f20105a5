package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhagelund/snaplist/internal/config"
	"github.com/jhagelund/snaplist/internal/storage"
)

func main() {
	var dbPath, name, value string
	flag.StringVar(&dbPath, "db", "", "Path to the database file")
	flag.StringVar(&name, "name", "", "Secret name, e.g. openai_api_key")
	flag.StringVar(&value, "value", "", "Secret value")
	flag.Parse()

	if name == "" || value == "" {
		fmt.Fprintf(os.Stderr, "Usage: set-key -name openai_api_key -value sk-... [-db snaplist.db]\n")
		fmt.Fprintf(os.Stderr, "\nSNAPLIST_SECRET_KEY must be set; it protects stored secrets.\n")
		os.Exit(1)
	}

	config.LoadEnvFile()

	passphrase := os.Getenv("SNAPLIST_SECRET_KEY")
	if passphrase == "" {
		fmt.Fprintf(os.Stderr, "SNAPLIST_SECRET_KEY not set\n")
		os.Exit(1)
	}

	encryptionKey, err := storage.DeriveKey(passphrase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error deriving encryption key: %v\n", err)
		os.Exit(1)
	}

	if dbPath == "" {
		dbPath = os.Getenv("SNAPLIST_DB")
	}
	if dbPath == "" {
		dbPath = "snaplist.db"
	}

	store, err := storage.NewSQLiteStore(dbPath, encryptionKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.SetSecret(name, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving secret: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Secret %q saved to %s\n", name, dbPath)
}
