package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	companyContacts bool
	companyMax      int
	companyLocation string
)

var companyCmd = &cobra.Command{
	Use:   "company <name>",
	Short: "Look up a company, optionally with its contacts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("company"); err != nil {
			return err
		}
		ctx := cmd.Context()

		svc, cleanup, err := buildService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		max := companyMax
		if max <= 0 {
			max = cfg.Merge.MaxContacts
		}

		result := svc.SearchCompany(ctx, strings.Join(args, " "), companyContacts, max, companyLocation)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	companyCmd.Flags().BoolVar(&companyContacts, "contacts", false, "also discover contacts")
	companyCmd.Flags().IntVar(&companyMax, "max", 0, "maximum contacts to return")
	companyCmd.Flags().StringVar(&companyLocation, "location", "", "company location hint")
	rootCmd.AddCommand(companyCmd)
}
