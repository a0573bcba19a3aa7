package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/domainhound/domainhound/internal/journal"
	"github.com/domainhound/domainhound/internal/provider"
	"github.com/domainhound/domainhound/internal/screenshot"
	"github.com/domainhound/domainhound/pkg/googlecse"
	"github.com/domainhound/domainhound/pkg/internetbs"
	"github.com/domainhound/domainhound/pkg/wayback"
)

// huntEnv bundles everything a run needs: the journal, the provider set and
// the screenshot downloader.
type huntEnv struct {
	Journal    journal.Journal
	Providers  provider.Set
	Downloader *screenshot.Downloader
}

func (e *huntEnv) Close() {
	if err := e.Journal.Close(); err != nil {
		zap.L().Warn("failed to close journal", zap.Error(err))
	}
}

// initHunt opens the journal and builds provider clients from config.
// Providers without credentials are left out of the set — their fields come
// back not_applicable rather than failing the whole run.
func initHunt(ctx context.Context, outputDir string) (*huntEnv, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "create output dir %s", outputDir)
	}

	j, err := journal.Open(ctx, cfg.Journal.Driver, journalDSN(outputDir), cfg.Journal.Pool)
	if err != nil {
		return nil, err
	}

	pol, err := loadPolicy()
	if err != nil {
		j.Close()
		return nil, err
	}

	var set provider.Set

	if cfg.Registrar.Key != "" && cfg.Registrar.Password != "" {
		client := internetbs.NewClient(cfg.Registrar.Key, cfg.Registrar.Password,
			internetbs.WithBaseURL(cfg.Registrar.BaseURL))
		set.Registrar = provider.NewRegistrar(client, pol.Registrar)
	} else {
		zap.L().Warn("registrar credentials missing, skipping availability checks")
	}

	if cfg.Search.Key != "" && cfg.Search.CX != "" {
		client := googlecse.NewClient(cfg.Search.Key, cfg.Search.CX,
			googlecse.WithBaseURL(cfg.Search.BaseURL))
		set.SearchIndex = provider.NewSearchIndex(client, pol.SearchIndex)
	} else {
		zap.L().Warn("search credentials missing, skipping index checks")
	}

	wb := wayback.NewClient(wayback.WithBaseURLs(
		cfg.Archive.BaseURL+"/cdx/search/cdx",
		cfg.Archive.BaseURL+"/__wb/screenshot",
	))
	set.Archive = provider.NewArchive(wb, pol.Archive, cfg.Archive.CDXLimit)

	var dl *screenshot.Downloader
	if cfg.Run.MaxScreenshots > 0 {
		dl = screenshot.NewDownloader(wb, screenshotsDir(outputDir), cfg.Run.MaxScreenshots,
			screenshot.WithRateLimit(cfg.Run.ScreenshotRPS, cfg.Run.ScreenshotBurst))
	}

	return &huntEnv{Journal: j, Providers: set, Downloader: dl}, nil
}

func screenshotsDir(outputDir string) string {
	return filepath.Join(outputDir, "screenshots")
}

func loadPolicy() (provider.Policy, error) {
	if cfg.Run.PolicyFile == "" {
		return provider.DefaultPolicy(), nil
	}
	return provider.LoadPolicy(cfg.Run.PolicyFile)
}
