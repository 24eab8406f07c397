package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/amityadav/trendfinder/internal/insights"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "trendfinder",
	Short: "Search-grounded app market insights",
	Long:  "trendfinder asks Gemini, grounded in Google Search, for trending app ideas, top downloads, niches and recent trends.",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(defaultsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(versionCmd)
}

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Run the five default market queries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, cleanup, err := newDispatcher(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		return runQueries(d, cmd.OutOrStdout(), insights.DefaultIntents(), d.RunDefaultQueries)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Run a custom query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query is empty")
		}

		d, cleanup, err := newDispatcher(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		return runQueries(d, cmd.OutOrStdout(), []insights.Intent{insights.IntentCustom}, func() error {
			_, err := d.RunCustomQuery(query)
			return err
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "trendfinder %s (commit: %s)\n", version, commit)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
