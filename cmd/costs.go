package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	costsStart string
	costsEnd   string
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Report provider spend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("costs"); err != nil {
			return err
		}
		ctx := cmd.Context()

		start, end, err := parseRange(costsStart, costsEnd)
		if err != nil {
			return err
		}

		svc, cleanup, err := buildService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		analytics := svc.CostAnalytics(ctx, start, end)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analytics)
	},
}

// parseRange parses YYYY-MM-DD bounds. An empty bound stays zero, which
// means unbounded. The end date is inclusive.
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return start, end, eris.Wrapf(err, "parse start date %q", startStr)
		}
	}
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return start, end, eris.Wrapf(err, "parse end date %q", endStr)
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}

func init() {
	costsCmd.Flags().StringVar(&costsStart, "start", "", "start date (YYYY-MM-DD)")
	costsCmd.Flags().StringVar(&costsEnd, "end", "", "end date (YYYY-MM-DD)")
	rootCmd.AddCommand(costsCmd)
}
