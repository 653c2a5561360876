package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/contact-harvester/internal/report"
	"github.com/JakeFAU/contact-harvester/internal/storage"
	"github.com/JakeFAU/contact-harvester/internal/tabular"
)

// newStatsCmd creates the 'stats' subcommand, reporting crawl coverage and fill rates.
func newStatsCmd() *cobra.Command {
	var (
		domainsFile string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report crawl coverage and contact fill rates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.GetConfig()
			if domainsFile == "" {
				domainsFile = cfg.Input.DomainsFile
			}
			domains, err := readDomains(domainsFile)
			if err != nil {
				return err
			}

			path := storage.JoinPath(cfg.Output.Prefix, tabular.RecordsFile)
			rc, err := appInstance.GetStorage().GetObject(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer rc.Close()
			rows, err := tabular.ReadRecords(rc)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			coverage := report.Compute(len(domains), rows)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(coverage); err != nil {
					return fmt.Errorf("print report: %w", err)
				}
				return nil
			}
			return coverage.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&domainsFile, "domains", "", "input CSV with a 'domain' column (default input.domains_file)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
