package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
)

var (
	discoverCompany  string
	discoverDomain   string
	discoverLocation string
	discoverRoles    []string
	discoverMax      int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover contacts at a company",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("discover"); err != nil {
			return err
		}
		ctx := cmd.Context()

		svc, cleanup, err := buildService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		max := discoverMax
		if max <= 0 {
			max = cfg.Merge.MaxContacts
		}

		result := svc.DiscoverContacts(ctx, model.EnrichmentRequest{
			CompanyName:   discoverCompany,
			CompanyDomain: discoverDomain,
			Location:      discoverLocation,
			Roles:         discoverRoles,
			MaxContacts:   max,
		})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverCompany, "company", "", "company name (required)")
	discoverCmd.Flags().StringVar(&discoverDomain, "domain", "", "company website domain")
	discoverCmd.Flags().StringVar(&discoverLocation, "location", "", "company location hint")
	discoverCmd.Flags().StringSliceVar(&discoverRoles, "roles", nil, "job titles or roles to target")
	discoverCmd.Flags().IntVar(&discoverMax, "max", 0, "maximum contacts to return")
	discoverCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(discoverCmd)
}
