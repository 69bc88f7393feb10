package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/xtding233/encounter-backend/internal/bestiary"
	"github.com/xtding233/encounter-backend/internal/bestiary/sqlite"
	"github.com/xtding233/encounter-backend/internal/config"
)

func main() {
	var cfg config.Importer
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("catalog-importer: %v", err)
	}
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding bestiaries/*.yaml")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite catalog path")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		config.Exitf("catalog-importer: %v", err)
	}
}

func run(ctx context.Context, cfg config.Importer) error {
	packs, err := bestiary.NewLoader(cfg.DataDir).Packs()
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	pruned, err := store.Sync(ctx, packs)
	if err != nil {
		return err
	}
	for _, p := range packs {
		log.Printf("imported %s (%d creatures)", p.Name, len(p.Creatures))
	}
	for _, name := range pruned {
		log.Printf("removed %s (no longer on disk)", name)
	}

	summaries, err := store.Packs(ctx)
	if err != nil {
		return err
	}
	log.Printf("catalog %s now holds %d packs", cfg.DBPath, len(summaries))
	return nil
}
