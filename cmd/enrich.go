package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
)

var (
	enrichEmail   string
	enrichFirst   string
	enrichLast    string
	enrichDomain  string
	enrichProfile string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a single person",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		if enrichEmail == "" && (enrichFirst == "" || enrichLast == "" || enrichDomain == "") {
			return eris.New("provide --email, or --first and --last with --domain")
		}
		ctx := cmd.Context()

		svc, cleanup, err := buildService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		contact := svc.EnrichPerson(ctx, provider.EnrichQuery{
			Email:         enrichEmail,
			FirstName:     enrichFirst,
			LastName:      enrichLast,
			CompanyDomain: enrichDomain,
			ProfileURL:    enrichProfile,
		})
		if contact == nil {
			fmt.Fprintln(os.Stderr, "no provider could enrich this person")
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(contact)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichEmail, "email", "", "email address to enrich")
	enrichCmd.Flags().StringVar(&enrichFirst, "first", "", "first name")
	enrichCmd.Flags().StringVar(&enrichLast, "last", "", "last name")
	enrichCmd.Flags().StringVar(&enrichDomain, "domain", "", "company domain")
	enrichCmd.Flags().StringVar(&enrichProfile, "profile", "", "profile URL")
	rootCmd.AddCommand(enrichCmd)
}
