package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/contact-harvester/internal/merge"
	"github.com/JakeFAU/contact-harvester/internal/storage"
	"github.com/JakeFAU/contact-harvester/internal/tabular"
)

// newMergeCmd creates the 'merge' subcommand, joining the crawl's success CSV with the
// company-names CSV into a JSONL profile file.
func newMergeCmd() *cobra.Command {
	var namesFile string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Join crawl results with company names into JSONL profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.GetConfig()
			if namesFile == "" {
				namesFile = cfg.Input.NamesFile
			}
			names, err := os.Open(namesFile)
			if err != nil {
				return fmt.Errorf("open names file: %w", err)
			}
			defer names.Close()

			merger := merge.NewMerger(appInstance.GetStorage(), appInstance.GetLogger().Named("merge"))
			res, err := merger.Run(cmd.Context(),
				storage.JoinPath(cfg.Output.Prefix, tabular.RecordsFile),
				names,
				storage.JoinPath(cfg.Output.Prefix, cfg.Output.MergedFile),
			)
			if err != nil {
				return fmt.Errorf("merge: %w", err)
			}
			appInstance.GetLogger().Info("merge finished", zap.String("uri", res.URI), zap.Int("profiles", res.Profiles))
			fmt.Fprintln(cmd.OutOrStdout(), res.URI)
			return nil
		},
	}
	cmd.Flags().StringVar(&namesFile, "names", "", "company names CSV (default input.names_file)")
	return cmd
}
