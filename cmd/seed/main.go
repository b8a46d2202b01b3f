package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/A-zanke/pharmachat/internal/catalog"
	"github.com/A-zanke/pharmachat/internal/config"
)

// Seeds the inventory database from a JSON file of catalog items.
//
//	go run ./cmd/seed -file medicines.json
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	file := flag.String("file", "medicines.json", "path to JSON array of catalog items")
	flag.Parse()

	cfg := config.Load()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	var items []catalog.Item
	if err := json.Unmarshal(data, &items); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}

	ctx := context.Background()
	store, err := catalog.Open(ctx, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open inventory database: %v", err)
	}
	defer store.Close()

	if err := store.Seed(ctx, items); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	log.Printf("Seeded %d medicines into %s", len(items), cfg.SQLitePath)
}
