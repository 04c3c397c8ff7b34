package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"econstats/internal/search"
	"econstats/internal/validation"
)

func routeCmd() *cobra.Command {
	var (
		fetch   bool
		years   int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "route <query>",
		Short: "Route a query and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if valid, msg := validation.ValidateQuery(query); !valid {
				return fmt.Errorf("invalid query: %s", msg)
			}

			cfg, ycfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg, ycfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var out any
			if fetch {
				out, err = a.search.Search(ctx, search.Request{Query: query, Years: years})
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
			} else {
				out = a.router.Route(ctx, query)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&fetch, "fetch", false, "Run the full search: fetch data, build charts and summarize")
	cmd.Flags().IntVar(&years, "years", 0, "Lookback in years for --fetch (default DEFAULT_YEARS)")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall timeout")

	return cmd
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the plan catalog shown to the routing model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ycfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg, ycfg, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d plans, %d series\n\n%s\n", a.registry.Len(), a.series.Len(), a.plans.Text())
			return nil
		},
	}
}
