// Command infobot keeps a local full-text index synchronised with
// Google Drive and Confluence, and answers questions grounded in the
// indexed documents.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/infobot/internal/adapters/driven/ai/gemini"
	configfile "github.com/custodia-labs/infobot/internal/adapters/driven/config/file"
	"github.com/custodia-labs/infobot/internal/adapters/driven/index/bleveindex"
	"github.com/custodia-labs/infobot/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/infobot/internal/adapters/driving/cli"
	"github.com/custodia-labs/infobot/internal/connectors/confluence"
	"github.com/custodia-labs/infobot/internal/connectors/drive"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/core/services"
	"github.com/custodia-labs/infobot/internal/extractors"
	"github.com/custodia-labs/infobot/internal/extractors/pdf"
	"github.com/custodia-labs/infobot/internal/extractors/plaintext"
	"github.com/custodia-labs/infobot/internal/extractors/spreadsheet"
	"github.com/custodia-labs/infobot/internal/extractors/word"
	"github.com/custodia-labs/infobot/internal/logger"
)

// version is overridden at build time with -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "infobot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := configfile.Load(os.Getenv("INFOBOT_CONFIG"))
	if err != nil {
		return err
	}
	logger.SetVerbose(cfg.Verbose)

	ctx := context.Background()

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}

	index, err := bleveindex.Open(filepath.Join(dataDir, "index.bleve"))
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer index.Close()

	history, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer history.Close()

	driveSource, err := drive.New(ctx, drive.Config{
		CredentialsFile: cfg.Drive.CredentialsFile,
		DelegatedUser:   cfg.Drive.DelegatedUser,
		FolderIDs:       cfg.Drive.FolderIDs,
	})
	if err != nil {
		return fmt.Errorf("init drive connector: %w", err)
	}

	wikiSource := confluence.New(confluence.Config{
		BaseURL:  cfg.Confluence.BaseURL,
		Username: cfg.Confluence.Username,
		APIToken: cfg.Confluence.APIToken,
		Spaces:   cfg.Confluence.Spaces,
	})

	registry := extractors.NewRegistry()
	registry.Register(pdf.New())
	registry.Register(word.New())
	registry.Register(spreadsheet.New())
	registry.Register(plaintext.New())

	processor := services.NewProcessor(registry, cfg.ChunkingSettings())

	syncService := services.NewSyncService(
		[]driven.ContentSource{driveSource, wikiSource},
		processor, index, history,
	)
	syncService.Hydrate(ctx)

	generator := gemini.New(gemini.Config{
		APIKey:          cfg.Gemini.APIKey,
		Model:           cfg.Gemini.Model,
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	})

	queryService := services.NewQueryService(index, generator, cfg.SearchSettings())
	scheduler := services.NewScheduler(cfg.SyncSettings(), syncService)

	cli.SetServices(syncService, queryService)
	cli.SetHistory(history)
	cli.SetLoopRunner(scheduler)
	cli.SetVersion(version)

	return cli.Execute()
}
