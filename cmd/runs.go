package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/domainhound/domainhound/internal/journal"
)

var runsLimit int
var runsDir string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runsDir == "" {
			runsDir = cfg.Run.OutputDir
		}

		j, err := journal.Open(cmd.Context(), cfg.Journal.Driver, journalDSN(runsDir), cfg.Journal.Pool)
		if err != nil {
			return err
		}
		defer j.Close()

		runs, err := j.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tTOTAL\tAVAILABLE\tALL FAILED")
		for _, r := range runs {
			total, avail, failed := "-", "-", "-"
			if r.Summary != nil {
				total = fmt.Sprintf("%d", r.Summary.Total)
				avail = fmt.Sprintf("%d", r.Summary.Available)
				failed = fmt.Sprintf("%d", r.Summary.AllFailed)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"), total, avail, failed)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "max runs to list")
	runsCmd.Flags().StringVar(&runsDir, "dir", "", "run output directory holding the journal (default from config)")
	rootCmd.AddCommand(runsCmd)
}
