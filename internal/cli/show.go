package cli

import (
	"cmp"
	"slices"

	"github.com/spf13/cobra"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

var showTerms int

var showCmd = &cobra.Command{
	Use:   "show [doc-id or title]",
	Short: "Print an indexed document and its heaviest terms",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVarP(&showTerms, "terms", "t", 10, "number of terms to print, 0 for all")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		docID, err := resolveDocument(a, args[0])
		if err != nil {
			return err
		}
		doc, err := a.db.GetDocument(docID)
		if err != nil {
			return err
		}
		terms, err := a.db.GetTermsForDocument(docID)
		if err != nil {
			return err
		}

		slices.SortStableFunc(terms, func(x, y domain.TermWeight) int {
			return cmp.Compare(y.Weight, x.Weight)
		})
		if showTerms > 0 && len(terms) > showTerms {
			terms = terms[:showTerms]
		}

		cmd.Printf("%s (doc %d)\n\n", doc.Title, doc.ID)
		cmd.Println(doc.Text)
		cmd.Println()
		cmd.Println("Terms:")
		for _, tw := range terms {
			cmd.Printf("  %-20s %.2f\n", tw.Name, tw.Weight)
		}
		return nil
	})
}
