package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	similarBatched bool
	similarJSON    bool
)

var similarCmd = &cobra.Command{
	Use:   "similar [doc-id or title]",
	Short: "Find documents similar to an indexed document",
	Long: `Ranks indexed documents against the stored term weights of one document.
The document is given by id, or by title when the argument is not a number.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().BoolVar(&similarBatched, "batched", false, "fetch all term weights in one query")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		docID, err := resolveDocument(a, args[0])
		if err != nil {
			return err
		}

		results, err := a.engine(similarBatched).SimilarTo(docID)
		if err != nil {
			return fmt.Errorf("similarity search failed: %w", err)
		}
		return outputResults(cmd, a, results, similarJSON)
	})
}

func resolveDocument(a *app, arg string) (int64, error) {
	if docID, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return docID, nil
	}
	return a.db.GetDocumentID(arg)
}
