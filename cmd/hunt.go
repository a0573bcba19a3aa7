package main

import (
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/domainhound/domainhound/internal/journal"
	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/pipeline"
	"github.com/domainhound/domainhound/internal/report"
)

var (
	huntOutput      string
	huntResume      bool
	huntConcurrency int
	huntScreenshots int
	huntOnFailure   string
	huntNoDedupe    bool
)

var huntCmd = &cobra.Command{
	Use:   "hunt [domains-file]",
	Short: "Check a domain list against all providers",
	Long:  "Reads domains one per line ('-' for stdin), checks registrar availability, Google index presence and Wayback history, and writes results.json, results.csv and screenshots under the output directory.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyHuntFlags(cmd)

		domains, err := readDomainList(args[0], cfg.Run.DedupeDomains)
		if err != nil {
			return err
		}
		if len(domains) == 0 {
			zap.L().Warn("no valid domains in input")
			return nil
		}

		env, err := initHunt(ctx, cfg.Run.OutputDir)
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Journal.CreateRun(ctx)
		if err != nil {
			return eris.Wrap(err, "create run")
		}

		var (
			skip  map[model.Domain]struct{}
			prior []model.DomainRecord
		)
		if huntResume {
			if skip, err = env.Journal.CompletedDomains(ctx); err != nil {
				return eris.Wrap(err, "load completed domains")
			}
			if prior, err = env.Journal.Records(ctx); err != nil {
				return eris.Wrap(err, "load prior records")
			}
		}

		writer, err := report.NewWriter(cfg.Run.OutputDir, run.ID, prior)
		if err != nil {
			return err
		}
		persister := report.NewPersister(env.Journal, writer, env.Downloader, run.ID)

		runner := pipeline.NewRunner(env.Providers, persister, pipeline.Options{
			Concurrency:       cfg.Run.Concurrency,
			OnProviderFailure: pipeline.FailurePolicy(cfg.Run.OnProviderFailure),
			Skip:              skip,
			OnEvent: func(e pipeline.Event) {
				zap.L().Info("domain complete",
					zap.String("domain", string(e.Domain)),
					zap.String("availability", string(e.Record.Availability)),
					zap.Int("indexed_pages", e.Record.IndexedPages),
					zap.Int("snapshots", len(e.Record.Snapshots)),
					zap.Int("done", e.Done),
					zap.Int("total", e.Total),
				)
			},
		})

		rep, runErr := runner.Run(ctx, run.ID, domains)

		summary := rep.Summarize()
		status := journal.RunStatusComplete
		if runErr != nil {
			status = journal.RunStatusAborted
		}
		if err := env.Journal.FinishRun(ctx, run.ID, status, &summary); err != nil {
			zap.L().Warn("failed to finalize run", zap.Error(err))
		}

		return runErr
	},
}

func init() {
	huntCmd.Flags().StringVarP(&huntOutput, "output", "o", "", "output directory (default from config)")
	huntCmd.Flags().BoolVar(&huntResume, "resume", false, "skip domains already persisted in the journal")
	huntCmd.Flags().IntVar(&huntConcurrency, "concurrency", 0, "global worker budget (default from config)")
	huntCmd.Flags().IntVar(&huntScreenshots, "max-screenshots", -1, "screenshots to download per domain (default from config)")
	huntCmd.Flags().StringVar(&huntOnFailure, "on-provider-failure", "", "degrade or abort (default from config)")
	huntCmd.Flags().BoolVar(&huntNoDedupe, "no-dedupe", false, "keep duplicate input domains")
	rootCmd.AddCommand(huntCmd)
}

// applyHuntFlags folds set flags over the loaded config.
func applyHuntFlags(cmd *cobra.Command) {
	if huntOutput != "" {
		cfg.Run.OutputDir = huntOutput
	}
	if huntConcurrency > 0 {
		cfg.Run.Concurrency = huntConcurrency
	}
	if cmd.Flags().Changed("max-screenshots") {
		cfg.Run.MaxScreenshots = huntScreenshots
	}
	if huntOnFailure != "" {
		cfg.Run.OnProviderFailure = huntOnFailure
	}
	if huntNoDedupe {
		cfg.Run.DedupeDomains = false
	}
}

// readDomainList loads and normalizes the input file, '-' meaning stdin.
func readDomainList(path string, dedupe bool) ([]model.Domain, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open domain list %s", path)
		}
		defer f.Close()
		r = f
	}

	domains, invalid, err := model.ReadDomains(r, dedupe)
	if err != nil {
		return nil, err
	}
	for _, line := range invalid {
		zap.L().Warn("skipping invalid domain", zap.String("line", line))
	}
	zap.L().Info("domain list loaded",
		zap.Int("valid", len(domains)),
		zap.Int("invalid", len(invalid)),
	)
	return domains, nil
}

// journalDSN picks the journal location: explicit database_url wins, the
// sqlite default lives next to the run's output.
func journalDSN(outputDir string) string {
	if cfg.Journal.DatabaseURL != "" {
		return cfg.Journal.DatabaseURL
	}
	return filepath.Join(outputDir, "journal.db")
}
