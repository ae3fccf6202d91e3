// Package cli implements the vecsearch command line.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vecsearch",
	Short: "TF-IDF vector space search over a document corpus",
	Long: `vecsearch builds a term-weighted (TF-IDF) index over a Wikipedia dump or a
crawled page database and ranks documents by cosine similarity.

Run without a subcommand to print index statistics.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runStats,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "index database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
