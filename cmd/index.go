package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/contact-harvester/internal/index"
	"github.com/JakeFAU/contact-harvester/internal/storage"
)

// newIndexCmd creates the 'index' subcommand, loading the merged JSONL file into the
// profile store.
func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Load merged profiles into the document store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := loadProfiles(cmd.Context(), appInstance)
			if err != nil {
				return err
			}
			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(stats); err != nil {
				return fmt.Errorf("print stats: %w", err)
			}
			return nil
		},
	}
}

// loadProfiles streams the merged file from the blob store into the profile store.
func loadProfiles(ctx context.Context, appInstance App) (index.Stats, error) {
	cfg := appInstance.GetConfig()
	path := storage.JoinPath(cfg.Output.Prefix, cfg.Output.MergedFile)
	rc, err := appInstance.GetStorage().GetObject(ctx, path)
	if err != nil {
		return index.Stats{}, fmt.Errorf("open merged profiles %s: %w", path, err)
	}
	defer rc.Close()

	loader := index.NewLoader(appInstance.GetProfiles(), appInstance.GetLogger().Named("index"))
	stats, err := loader.Load(ctx, rc)
	if err != nil {
		return stats, fmt.Errorf("index profiles: %w", err)
	}
	return stats, nil
}
