package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/domainhound/domainhound/internal/journal"
	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/report"
)

var (
	reportFormat string
	reportOut    string
	reportDir    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export journaled records as csv, json or xlsx",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportDir == "" {
			reportDir = cfg.Run.OutputDir
		}

		j, err := journal.Open(cmd.Context(), cfg.Journal.Driver, journalDSN(reportDir), cfg.Journal.Pool)
		if err != nil {
			return err
		}
		defer j.Close()

		recs, err := j.Records(cmd.Context())
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			zap.L().Warn("journal holds no records")
			return nil
		}

		out := reportOut
		if out == "" {
			out = "results." + reportFormat
		}

		switch reportFormat {
		case "csv":
			err = report.WriteCSV(out, recs)
		case "json":
			err = report.WriteJSON(out, reportEnvelope(cmd.Context(), j, recs))
		case "xlsx":
			err = report.ExportXLSX(out, recs)
		default:
			return eris.Errorf("unknown format %q (want csv, json or xlsx)", reportFormat)
		}
		if err != nil {
			return err
		}

		zap.L().Info("report written",
			zap.String("path", out),
			zap.Int("records", len(recs)),
		)
		return nil
	},
}

// reportEnvelope wraps journaled records in a report carrying the most
// recent run's id and start time, so the export round-trips with
// report.Load.
func reportEnvelope(ctx context.Context, j journal.Journal, recs []model.DomainRecord) model.Report {
	rep := model.Report{StartedAt: time.Now().UTC(), Records: recs}
	runs, err := j.ListRuns(ctx, 1)
	if err != nil {
		zap.L().Warn("failed to look up runs for export", zap.Error(err))
		return rep
	}
	if len(runs) > 0 {
		rep.RunID = runs[0].ID
		rep.StartedAt = runs[0].StartedAt
	}
	return rep
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "csv", "output format: csv, json or xlsx")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output path (default results.<format>)")
	reportCmd.Flags().StringVar(&reportDir, "dir", "", "run output directory holding the journal (default from config)")
	rootCmd.AddCommand(reportCmd)
}
