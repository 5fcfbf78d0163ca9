// Package main exports labeled training rows from stored sessions as
// CSV, using the same feature extraction the live service predicts with.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/Quang17112009/apiluck/internal/config"
	db "github.com/Quang17112009/apiluck/internal/db/gorm"
	"github.com/Quang17112009/apiluck/internal/features"
)

func main() {
	dbPath := flag.String("db", config.DefaultDatabaseURL, "Database path or postgres:// URL")
	out := flag.String("out", "training.csv", "Output file (use - for stdout)")
	limit := flag.Int("limit", 0, "Newest sessions to export (0 = all)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	store, err := db.NewStore(db.Config{DSN: *dbPath, MaxConns: 1, LogLevel: logger.Silent})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session database")
	}
	defer store.Close()

	history, err := db.NewSessionStore(store).OutcomeHistory(context.Background(), *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load outcome history")
	}

	pairs := features.TrainingPairs(history)
	if len(pairs) == 0 {
		log.Fatal().Int("outcomes", len(history)).Msg("Not enough history to build training rows")
	}

	var w io.Writer = os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output file")
		}
		defer f.Close()
		w = f
	}

	if err := writeRows(w, pairs); err != nil {
		log.Fatal().Err(err).Msg("Failed to write training rows")
	}
	log.Info().Int("rows", len(pairs)).Str("out", *out).Msg("Training export complete")
}

func writeRows(w io.Writer, pairs []features.TrainingPair) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(append(features.Columns(), "label")); err != nil {
		return err
	}

	row := make([]string, 0, features.Width+1)
	for _, pair := range pairs {
		row = row[:0]
		for _, v := range pair.Features.Values() {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		row = append(row, string(pair.Label))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
