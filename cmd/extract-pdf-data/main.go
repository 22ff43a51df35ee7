package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/aitorevi/extract-pdf-data/internal/batch"
	"github.com/aitorevi/extract-pdf-data/internal/index"
	"github.com/aitorevi/extract-pdf-data/internal/invoice"
	"github.com/aitorevi/extract-pdf-data/internal/organize"
	"github.com/aitorevi/extract-pdf-data/internal/template"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Optional .env for local setups; absence is fine.
	_ = godotenv.Load()

	fs := ff.NewFlagSet("extract-pdf-data")
	var (
		quarter      = fs.StringLong("quarter", "", "Reporting quarter for this run: 1, 2, 3 or 4")
		year         = fs.StringLong("year", "", "Reporting year for this run (e.g. 2025)")
		invoicesDir  = fs.StringLong("invoices", "invoices", "Directory with source PDF invoices")
		templatesDir = fs.StringLong("templates", "templates", "Directory with provider template definitions")
		archiveDir   = fs.StringLong("archive", "archive", "Root directory for processed/duplicate/error archives")
		indexPath    = fs.StringLong("index-db", "quarter-index.db", "Quarter index database file path")
		logDir       = fs.StringLong("logs", "logs", "Directory for the file operations log")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXTRACT_PDF_DATA"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	reporting, err := invoice.ParseReportingQuarter(*quarter, *year)
	if err != nil {
		slog.Error("Invalid reporting quarter", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*invoicesDir, 0755); err != nil {
		slog.Error("Could not create invoices directory", "error", err)
		os.Exit(1)
	}

	slog.Info("Loading templates...", "dir", *templatesDir)
	store := template.NewStore()
	loaded, err := store.LoadDir(*templatesDir)
	if err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}
	if loaded == 0 {
		slog.Error("No valid templates found, aborting", "dir", *templatesDir)
		os.Exit(1)
	}
	slog.Info("Templates loaded", "count", loaded)

	slog.Info("Opening quarter index...", "path", *indexPath)
	repo, err := index.NewBoltRepository(*indexPath)
	if err != nil {
		slog.Error("Failed to open quarter index", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	service := buildService(store, repo, reporting, *archiveDir, *logDir)

	summary, err := service.Run(*invoicesDir)
	if err != nil {
		slog.Error("Batch failed to start", "error", err)
		os.Exit(1)
	}

	printSummary(summary, reporting, *archiveDir, *logDir)
}

func buildService(store *template.Store, repo index.Repository, reporting invoice.Quarter, archiveDir, logDir string) *batch.Service {
	runID := uuid.NewString()

	opLog, err := organize.NewOpLog(logDir, runID, nil)
	if err != nil {
		slog.Error("Failed to prepare operations log", "error", err)
		os.Exit(1)
	}
	organizer, err := organize.NewOrganizer(archiveDir, opLog)
	if err != nil {
		slog.Error("Failed to prepare archive", "error", err)
		os.Exit(1)
	}

	return batch.NewServiceWithDeps(store, repo, organizer, reporting, nil, nil, runID)
}

func printSummary(summary *batch.Summary, reporting invoice.Quarter, archiveDir, logDir string) {
	fmt.Println()
	fmt.Println("=== BATCH SUMMARY ===")
	fmt.Printf("Reporting quarter:  %s\n", reporting)
	fmt.Printf("Documents:          %d\n", summary.Documents)
	fmt.Printf("Invoices accepted:  %d\n", summary.Succeeded)
	fmt.Printf("Duplicates:         %d\n", summary.Duplicates)
	fmt.Printf("Errors:             %d\n", summary.Failed)
	fmt.Printf("Report rows:        %d\n", len(summary.Rows))
	if summary.Failed > 0 {
		fmt.Printf("\nSee %s/errors/ and the operations log in %s/ for details.\n", archiveDir, logDir)
	}
}
