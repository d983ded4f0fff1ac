// Command compass turns survey exports into data management maturity
// reports through a multi-agent LLM pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "compass",
		Short:         "Survey-driven data management maturity reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")
	root.AddCommand(newGenerateCmd(), newIngestCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "compass: %v\n", err)
		os.Exit(1)
	}
}
