package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/spice-insight/internal/cli"
	"github.com/Veraticus/spice-insight/internal/config"
	"github.com/Veraticus/spice-insight/internal/storage"
	"github.com/spf13/cobra"
)

// artifactLister is implemented by stores that can describe their artifacts.
type artifactLister interface {
	ListArtifacts(ctx context.Context) ([]storage.ArtifactInfo, error)
}

func retrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Reload or retrain the categorization model",
		Long: `Run a fresh load-or-train cycle for the categorizer. The persisted
model is reloaded, or a new one is trained from the built-in examples
when none can be loaded.

With --with-history the model is trained on the built-in examples plus
every transaction you have categorized, then saved.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			withHistory, _ := cmd.Flags().GetBool("with-history")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			c, err := initCategorizer(ctx, store)
			if err != nil {
				return err
			}

			if withHistory {
				err = retrainWithHistory(ctx, c, store, settings.UserID)
			} else {
				err = c.Retrain(ctx)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Categorizer ready (model "+c.Bundle().Version+")"))
			if lister, ok := store.(artifactLister); ok && settings.ModelsStore == config.StoreSQLite {
				return printArtifacts(ctx, cmd.OutOrStdout(), lister)
			}
			return nil
		},
	}

	cmd.Flags().Bool("with-history", false, "Also train on your categorized transactions")
	return cmd
}

func printArtifacts(ctx context.Context, w io.Writer, lister artifactLister) error {
	infos, err := lister.ListArtifacts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list model artifacts: %w", err)
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{
			info.Name,
			fmt.Sprintf("%d", info.Size),
			info.Checksum[:12],
			info.UpdatedAt.Format(time.RFC3339),
		})
	}
	fmt.Fprintln(w, cli.RenderTable([]string{"Artifact", "Bytes", "Checksum", "Updated"}, rows))
	return nil
}
