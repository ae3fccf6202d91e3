package cli

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print index row counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app) error {
		stats, err := a.db.Stats()
		if err != nil {
			return err
		}
		hasIndex, err := a.db.HasSecondaryIndex()
		if err != nil {
			return err
		}

		cmd.Println("Showing index stats")
		printStats(cmd, stats.Terms, stats.Documents, stats.Weights)
		cmd.Printf("Indexes created: %t\n", hasIndex)
		return nil
	})
}

func printStats(cmd *cobra.Command, terms, documents, weights int) {
	cmd.Printf("Terms: %d\n", terms)
	cmd.Printf("Documents: %d\n", documents)
	cmd.Printf("Values: %d\n", weights)
}
