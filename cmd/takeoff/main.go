// Package main is the takeoff CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/norsteel/takeoff/internal/catalog"
	"github.com/norsteel/takeoff/internal/cli"
	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/document"
	"github.com/norsteel/takeoff/internal/export"
	"github.com/norsteel/takeoff/internal/extraction"
	"github.com/norsteel/takeoff/internal/header"
	"github.com/norsteel/takeoff/internal/models"
	"github.com/norsteel/takeoff/internal/pagescore"
	"github.com/norsteel/takeoff/internal/pipeline"
	"github.com/norsteel/takeoff/internal/server"
	"github.com/norsteel/takeoff/internal/similarity"
	"github.com/norsteel/takeoff/internal/store"
	"github.com/norsteel/takeoff/internal/watcher"
	"github.com/norsteel/takeoff/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/takeoff/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used, so that "takeoff serve" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve":
		runServe()
	case "ingest":
		runIngest()
	case "score":
		runScore()
	case "header":
		runHeader()
	case "match":
		runMatch()
	case "list":
		runList()
	case "export":
		runExport()
	case "catalog":
		runCatalog()
	case "version", "--version", "-v":
		fmt.Printf("takeoff version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (page scores, chunk dispatch, inbox events)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	p := components.Pipeline
	inboxOpts := []watcher.Option{}
	if debugMode {
		inboxOpts = append(inboxOpts, watcher.WithLogger(logger))
	}
	var inbox *watcher.Inbox
	inboxCtx, inboxCancel := context.WithCancel(context.Background())
	defer inboxCancel()
	if cfg.Watch.Directory != "" {
		inbox = watcher.NewInbox(
			cfg.Watch.Directory,
			cfg.Watch.Extensions,
			func(path string) {
				content, err := os.ReadFile(path)
				if err != nil {
					logger.Warn("inbox read failed", zap.String("path", path), zap.Error(err))
					return
				}
				if _, err := p.Ingest(context.Background(), filepath.Base(path), content); err != nil {
					logger.Warn("inbox ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			inboxOpts...,
		)
		if err := inbox.Start(inboxCtx); err != nil {
			logger.Fatal("Failed to start inbox watcher", zap.Error(err))
		}
		inbox.SyncExisting()
	}

	srv := server.NewServer(p, components.Store, components.Catalog, components.Exporter, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	inboxCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	doExport := fs.Bool("export", false, "also write the XLSX result workbook")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: takeoff ingest [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	format, ok := parseOutputFormat(*outputFormat)
	if !ok {
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	_, logger, components := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}
	summary, err := components.Pipeline.Ingest(context.Background(), filepath.Base(path), content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSummary(os.Stdout, summary, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if *doExport {
		out, err := components.Exporter.Save(&summary.Document, summary.Items)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWorkbook written: %s\n", out)
	}
}

func runScore() {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: takeoff score [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	format, ok := parseOutputFormat(*outputFormat)
	if !ok {
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	pages, err := document.NewFileSource().ExtractFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Page extraction failed: %v\n", err)
		os.Exit(1)
	}
	selection := pagescore.NewScorer(&cfg.PageScore).ScorePages(pages.Texts)
	if err := cli.WriteSelection(os.Stdout, &selection, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runHeader() {
	fs := flag.NewFlagSet("header", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println(`Usage: takeoff header [flags] "ITEM|DESCRIPTN|QTY|UNIT"`)
		os.Exit(1)
	}
	format, ok := parseOutputFormat(*outputFormat)
	if !ok {
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	cells := parseHeaderCells(fs.Arg(0))
	rec := header.NewReconstructor(&cfg.Header, similarity.NewKernel(&cfg.Similarity)).Reconstruct(cells)
	if err := cli.WriteReconstruction(os.Stdout, &rec, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// parseHeaderCells splits a pipe-separated header row into trimmed cells.
func parseHeaderCells(raw string) []string {
	cells := strings.Split(raw, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func runMatch() {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	desc := fs.String("desc", "", "line item description (required)")
	size1 := fs.String("size1", "", "primary size, e.g. 6\"")
	size2 := fs.String("size2", "", "secondary size")
	schedule := fs.String("schedule", "", "schedule, e.g. 40")
	standard := fs.String("standard", "", "spec standard, e.g. A106")
	grade := fs.String("grade", "", "material grade, e.g. GR.B")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *desc == "" {
		fmt.Println("Usage: takeoff match -desc <description> [flags]")
		os.Exit(1)
	}
	format, ok := parseOutputFormat(*outputFormat)
	if !ok {
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	_, logger, components := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	item := &models.MergedLineItem{
		ExtractedLineItem: models.ExtractedLineItem{Description: *desc},
	}
	if *size1 != "" {
		item.Size1 = models.StrPtr(*size1)
	}
	if *size2 != "" {
		item.Size2 = models.StrPtr(*size2)
	}
	if *schedule != "" {
		item.Schedule = models.StrPtr(*schedule)
	}
	if *standard != "" {
		item.Standard = models.StrPtr(*standard)
	}
	if *grade != "" {
		item.Grade = models.StrPtr(*grade)
	}

	outcome, err := components.Pipeline.MatchItem(context.Background(), item)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Match failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteOutcome(os.Stdout, &outcome, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 50, "number of documents")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, ok := parseOutputFormat(*outputFormat)
	if !ok {
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	_, logger, components := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	docs, err := components.Store.ListDocuments(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteDocuments(os.Stdout, docs, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: takeoff export [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	_, logger, components := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	doc, err := components.Store.GetDocument(ctx, docID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Document not found: %s\n", docID)
		os.Exit(1)
	}
	items, err := components.Store.GetItems(ctx, docID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load items: %v\n", err)
		os.Exit(1)
	}
	path, err := components.Exporter.Save(doc, items)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Workbook written: %s\n", path)
}

// catalogFile is the JSON shape accepted by "takeoff catalog load".
type catalogFile struct {
	Materials      []models.Material      `json:"materials"`
	PipeDimensions []models.PipeDimension `json:"pipe_dimensions"`
}

func readCatalogFile(path string) (*catalogFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf catalogFile
	if err := json.Unmarshal(content, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if len(cf.Materials) == 0 && len(cf.PipeDimensions) == 0 {
		return nil, fmt.Errorf("catalog file has no materials or pipe dimensions")
	}
	return &cf, nil
}

func runCatalog() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: takeoff catalog <load|count> [args]")
		fmt.Println("  takeoff catalog load <file.json>   Load materials and pipe dimensions")
		fmt.Println("  takeoff catalog count              Show catalog size")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[3:])

	_, logger, components := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	switch sub {
	case "load":
		if fs.NArg() < 1 {
			fmt.Println("Usage: takeoff catalog load <file.json>")
			os.Exit(1)
		}
		cf, err := readCatalogFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Load failed: %v\n", err)
			os.Exit(1)
		}
		if len(cf.Materials) > 0 {
			if err := components.Catalog.BatchUpsertMaterials(ctx, cf.Materials); err != nil {
				fmt.Fprintf(os.Stderr, "Upsert materials failed: %v\n", err)
				os.Exit(1)
			}
		}
		if len(cf.PipeDimensions) > 0 {
			if err := components.Catalog.UpsertPipeDimensions(ctx, cf.PipeDimensions); err != nil {
				fmt.Fprintf(os.Stderr, "Upsert pipe dimensions failed: %v\n", err)
				os.Exit(1)
			}
		}
		fmt.Printf("Loaded %d material(s), %d pipe dimension row(s)\n",
			len(cf.Materials), len(cf.PipeDimensions))
	case "count":
		n, err := components.Catalog.CountMaterials(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("materials: %d\n", n)
	default:
		fmt.Printf("Unknown catalog subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func parseOutputFormat(s string) (cli.OutputFormat, bool) {
	switch s {
	case "json":
		return cli.OutputJSON, true
	case "text", "":
		return cli.OutputText, true
	default:
		return cli.OutputText, false
	}
}

// mustInitialize loads config, builds the logger, and wires all components,
// exiting on any failure. Shared by the one-shot subcommands.
func mustInitialize(configPath string) (*config.Config, *zap.Logger, *Components) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger, components
}

// Components holds initialized services.
type Components struct {
	Catalog  catalog.Store
	Store    store.Store
	Exporter *export.Exporter
	Pipeline *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	cat, err := catalog.NewSQLiteStore(&cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		_ = cat.Close()
		return nil, fmt.Errorf("failed to initialize result store: %w", err)
	}

	extOpts := []extraction.ClientOption{}
	if debug && logger != nil {
		extOpts = append(extOpts, extraction.WithLogger(logger))
	}
	extractor := extraction.New(&cfg.Extraction, extOpts...)

	deps := pipeline.Deps{
		Source:    document.NewFileSource(),
		Extractor: extractor,
		Catalog:   cat,
		Store:     st,
	}
	if debug && logger != nil {
		deps.Logger = logger
	}

	return &Components{
		Catalog:  cat,
		Store:    st,
		Exporter: export.NewExporter(&cfg.Export),
		Pipeline: pipeline.New(cfg, deps),
	}, nil
}

func printUsage() {
	fmt.Println(`takeoff - Trading document ingestion and material matching

Usage:
  takeoff serve [flags]                Start the HTTP server and inbox watcher
  takeoff ingest [flags] <file>        Ingest one take-off document
  takeoff score [flags] <file>         Score pages without extracting
  takeoff header [flags] <row>         Map a pipe-separated header row to column roles
  takeoff match -desc <text> [flags]   Match one line item against the catalog
  takeoff list [flags]                 List ingested documents
  takeoff export [flags] <id>          Write the XLSX result workbook
  takeoff catalog <load|count>         Manage the material catalog
  takeoff version                      Show version
  takeoff help                         Show this help

Serve Flags:
  --config string    Config file path (default: /usr/local/etc/takeoff/config.yaml)
  --debug            Enable debug logging (page scores, chunk dispatch, inbox events)

Ingest Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)
  --export           Also write the XLSX result workbook

Match Flags:
  --desc string      Line item description (required)
  --size1 string     Primary size, e.g. 6"
  --schedule string  Schedule, e.g. 40
  --standard string  Spec standard, e.g. A106
  --grade string     Material grade, e.g. GR.B
  --output string    Output format: text or json (default: text)

Examples:
  takeoff serve
  takeoff ingest enquiry.pdf
  takeoff ingest --output json --export enquiry.pdf
  takeoff score enquiry.pdf
  takeoff header 'S.No|DESCRIPTN|QUAN -|U M'
  takeoff match -desc 'PIPE 6" SCH40 ASTM A106 GR.B SEAMLESS'
  takeoff list
  takeoff export 2f1c9a3e-...
  takeoff catalog load materials.json
  takeoff catalog count`)
}
