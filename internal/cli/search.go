package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

var (
	searchBatched bool
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Ranks indexed documents against the query by cosine similarity of their
TF-IDF weights, every query term weighted equally. Prints the 10 best matches.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchBatched, "batched", false, "fetch all term weights in one query")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		terms := a.processor.Terms(strings.Join(args, " "))
		results, err := a.engine(searchBatched).Query(terms)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return outputResults(cmd, a, results, searchJSON)
	})
}

type resultLine struct {
	Rank  int     `json:"rank"`
	DocID int64   `json:"doc_id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

func outputResults(cmd *cobra.Command, a *app, results []domain.ScoredDoc, asJSON bool) error {
	lines := make([]resultLine, 0, len(results))
	for i, r := range results {
		doc, err := a.db.GetDocument(r.DocID)
		if err != nil {
			return err
		}
		lines = append(lines, resultLine{Rank: i + 1, DocID: r.DocID, Title: doc.Title, Score: r.Score})
	}

	if asJSON {
		data, err := json.MarshalIndent(lines, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(lines) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	for _, line := range lines {
		cmd.Printf("  [%d] %s (%.2f)  doc %d\n", line.Rank, line.Title, line.Score, line.DocID)
	}
	return nil
}
