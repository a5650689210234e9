// ABOUTME: Seed subcommand loading a TOML catalog into the store
// ABOUTME: Creates categories first so products can reference them by name

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/floreria/margarita/internal/config"
	"github.com/floreria/margarita/internal/store"
)

// seedCatalog is the TOML shape the seed command consumes.
type seedCatalog struct {
	Categories []seedCategory `toml:"categories"`
	Products   []seedProduct  `toml:"products"`
}

type seedCategory struct {
	Name string `toml:"name"`
}

type seedProduct struct {
	Name        string  `toml:"name"`
	Description string  `toml:"description"`
	Price       float64 `toml:"price"`
	Stock       int     `toml:"stock"`
	Category    string  `toml:"category"`
}

func runSeed(ctx context.Context) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "catalog.toml", "path to the catalog TOML file")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var catalog seedCatalog
	if _, err := toml.DecodeFile(*file, &catalog); err != nil {
		return fmt.Errorf("parsing catalog file: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = st.Close() }()

	// Categories first; products reference them by name.
	categoryIDs := make(map[string]string)
	created := 0
	for _, c := range catalog.Categories {
		cat := &store.Category{
			ID:        uuid.NewString(),
			Name:      c.Name,
			CreatedAt: time.Now().UTC(),
		}
		err := st.CreateCategory(ctx, cat)
		if errors.Is(err, store.ErrCategoryExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("creating category %q: %w", c.Name, err)
		}
		created++
		categoryIDs[strings.ToLower(c.Name)] = cat.ID
	}

	// Pick up pre-existing categories for products that reference them.
	existing, err := st.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	for _, cat := range existing {
		if _, ok := categoryIDs[strings.ToLower(cat.Name)]; !ok {
			categoryIDs[strings.ToLower(cat.Name)] = cat.ID
		}
	}

	for _, p := range catalog.Products {
		categoryID := ""
		if p.Category != "" {
			id, ok := categoryIDs[strings.ToLower(p.Category)]
			if !ok {
				return fmt.Errorf("product %q references unknown category %q", p.Name, p.Category)
			}
			categoryID = id
		}

		product := &store.Product{
			ID:          uuid.NewString(),
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			ImageURL:    "/img/default.jpg",
			CategoryID:  categoryID,
			CreatedAt:   time.Now().UTC(),
		}
		if err := st.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("creating product %q: %w", p.Name, err)
		}
	}

	green := color.New(color.FgGreen)
	green.Printf("Seeded %d categories and %d products from %s\n", created, len(catalog.Products), *file)
	return nil
}
