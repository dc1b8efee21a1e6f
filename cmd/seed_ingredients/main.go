package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/database"
	"github.com/plateful/backend/internal/service"
)

// Loads the ingredient catalog from a CSV of "name,measurement_unit" rows.
// Existing rows are left untouched, so the import is safe to re-run.
func main() {
	path := flag.String("file", "data/ingredients.csv", "path to the ingredients CSV")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	file, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *path, err)
	}
	defer file.Close()

	catalog := service.NewCatalogService(db)
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2

	ctx := context.Background()
	imported := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read CSV: %v", err)
		}

		if _, err := catalog.EnsureIngredient(ctx, record[0], record[1]); err != nil {
			log.Fatalf("Failed to import %q: %v", record[0], err)
		}
		imported++
	}

	log.Printf("Imported %d ingredients", imported)
}
