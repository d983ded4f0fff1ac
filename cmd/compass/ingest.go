package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"compass/internal/config"
	"compass/internal/logging"
)

func newIngestCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index the knowledge base documents for retrieval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger := logging.NewComponentLogger("compass")
			service, err := newKnowledgeService(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats, err := service.Ingest(ctx, force)
			if err != nil {
				return err
			}
			if stats.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(),
					"Index already holds %d windows; use --force to rebuild\n", stats.Windows)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents (%d windows) across %d topics\n",
				stats.Documents, stats.Windows, stats.Topics)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "rebuild the index even if it already has content")
	return cmd
}
