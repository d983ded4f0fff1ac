package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"compass/internal/config"
	"compass/internal/logging"
	"compass/internal/survey"
	"compass/internal/workflow"
)

func newGenerateCmd() *cobra.Command {
	var surveyPath string
	var dimension string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a maturity report from a survey export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			loaded, err := survey.LoadFile(surveyPath)
			if err != nil {
				return err
			}
			if dimension == "" {
				dimension = loaded.Dimension
			}

			logger := logging.NewComponentLogger("compass")
			orchestrator, err := newOrchestrator(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, runErr := orchestrator.Run(ctx, dimension, loaded.Questions)

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), result)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&surveyPath, "survey", "", "path to the survey export (JSON)")
	cmd.Flags().StringVar(&dimension, "dimension", "", "dimension to assess (default: from survey file)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the full result envelope as JSON")
	_ = cmd.MarkFlagRequired("survey")
	return cmd
}

func printSummary(w io.Writer, result *workflow.Result) {
	fmt.Fprintf(w, "Run %s (%s) finished in %s\n",
		result.RunID, result.Dimension, result.Elapsed.Round(time.Millisecond))

	if !result.Success {
		fmt.Fprintf(w, "Failed: %v\n", result.Err)
		fmt.Fprintf(w, "Stages executed: %v\n", result.AgentsExecuted)
		return
	}

	if result.Assessment != nil {
		fmt.Fprintf(w, "Composite maturity: %.2f of 5\n", result.Assessment.Composite)
		for _, fw := range result.Assessment.Frameworks {
			fmt.Fprintf(w, "  %s: %.2f (%s)\n", fw.Framework, fw.Score, fw.CurrentLevel)
		}
	}
	if result.Critique != nil {
		fmt.Fprintf(w, "Critique mean: %.2f (approved: %t, attempts: %d)\n",
			result.Critique.Mean, result.Approved, result.Attempts)
	}
	if result.FinalReport != nil {
		fmt.Fprintf(w, "\n%s\n", result.FinalReport.ExecutiveSummary)
		if result.FinalReport.RenderedPath != "" {
			fmt.Fprintf(w, "Rendered report: %s\n", result.FinalReport.RenderedPath)
		}
		if result.FinalReport.FormatNote != "" {
			fmt.Fprintf(w, "Note: %s\n", result.FinalReport.FormatNote)
		}
	}
}
