// Package main provides a tool to move catalog and circulation data in and out
// of the library database.
//
// Usage:
//
//	go run ./cmd/catalog-import -books books.csv
//	go run ./cmd/catalog-import -loans loans.json      # document-store export, array or one per line
//	go run ./cmd/catalog-import -export catalog.json
package main

import (
	"context"
	"flag"
	"os"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/adapters/persistence/repositories"
	"libradesk/internal/config"
	"libradesk/internal/core/services"
	"libradesk/internal/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

var (
	booksPath  = flag.String("books", "", "CSV file of books to upsert by ISBN")
	loansPath  = flag.String("loans", "", "JSON export of loan documents to import")
	exportPath = flag.String("export", "", "write the catalog as JSON to this file")
	dryRun     = flag.Bool("dry-run", false, "parse input files without writing to the database")
)

func main() {
	flag.Parse()
	logger.Init(logger.Config{Level: "info", Format: "console"})

	if *booksPath == "" && *loansPath == "" && *exportPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to load configuration")
	}

	ctx := context.Background()

	if *dryRun {
		runDry()
		return
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to connect to database")
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to auto migrate")
	}

	bookRepo := repositories.NewBookRepository(db)
	imp := &importer{
		books:    services.NewBookService(bookRepo),
		bookRepo: bookRepo,
		userRepo: repositories.NewUserRepository(db),
		loanRepo: repositories.NewLoanRepository(db),
		loanDays: cfg.Library.LoanDays,
	}

	if *booksPath != "" {
		f := mustOpen(*booksPath)
		created, updated, err := imp.importBooks(ctx, f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Book import failed")
		}
		log.Info().Int("created", created).Int("updated", updated).Msg("📚 Books imported")
	}

	if *loansPath != "" {
		f := mustOpen(*loansPath)
		stats, err := imp.importLoans(ctx, f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Loan import failed")
		}
		log.Info().
			Int("imported", stats.Imported).
			Int("skipped", stats.Skipped).
			Msg("📦 Loans imported")
	}

	if *exportPath != "" {
		books, err := imp.books.Export(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Export failed")
		}
		data, err := json.MarshalIndent(books, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Export failed")
		}
		if err := os.WriteFile(*exportPath, data, 0o644); err != nil {
			log.Fatal().Err(err).Msg("❌ Export failed")
		}
		log.Info().Int("books", len(books)).Str("file", *exportPath).Msg("💾 Catalog exported")
	}
}

func runDry() {
	if *booksPath != "" {
		f := mustOpen(*booksPath)
		inputs, err := parseBooksCSV(f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Invalid books file")
		}
		log.Info().Int("rows", len(inputs)).Msg("📚 Books file parsed")
	}
	if *loansPath != "" {
		f := mustOpen(*loansPath)
		records, err := decodeLoanDocuments(f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Invalid loans file")
		}
		log.Info().Int("documents", len(records)).Msg("📦 Loans file parsed")
	}
}

func mustOpen(path string) *os.File {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("❌ Cannot open file")
	}
	return f
}
