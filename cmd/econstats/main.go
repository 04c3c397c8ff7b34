// Package main provides the econstats binary: an HTTP API and CLI that
// route natural-language economic questions to data series.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

const appName = "econstats"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Economic question router",
		Long: `econstats answers natural-language economic questions with charts of
the relevant data series.

Configuration comes from environment variables and an optional YAML
file (CONFIG_FILE, default config.yaml).`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd(), routeCmd(), catalogCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}
