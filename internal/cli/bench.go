package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deidaraiorek/vecsearch/internal/domain"
	"github.com/deidaraiorek/vecsearch/internal/search"
)

var defaultBenchQueries = []string{
	"adolf stalin",
	"banana monkey",
	"argentina america bull blanket",
	"production neighborhood insure point detail tract salmon garlic lend solid disappoint asylum grow space crosswalk egg habit railroad timber interface",
	"exclude infrastructure illustrate president distinct surface thought save public trail attract announcement body security consideration fuel if lie prosper display",
	"retired toss rider string cool absolute charter obligation situation salvation error nap cat flour digital original manner jockey rugby pledge",
}

var benchHops int

var benchCmd = &cobra.Command{
	Use:   "bench [query...]",
	Short: "Time the retrieval workload against the current index",
	Long: `Runs every query, then follows similar-document hops from the third result,
once for each combination of secondary index and batched vector lookup.
Without arguments a built-in query set is used. The secondary index state is
restored afterwards.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchHops, "hops", 3, "similar-document hops per query")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	queries := args
	if len(queries) == 0 {
		queries = defaultBenchQueries
	}

	return withApp(cmd, func(a *app) (err error) {
		stats, err := a.db.Stats()
		if err != nil {
			return err
		}
		hadIndex, err := a.db.HasSecondaryIndex()
		if err != nil {
			return err
		}
		defer func() {
			if restoreErr := setSecondaryIndex(a, hadIndex); restoreErr != nil && err == nil {
				err = restoreErr
			}
		}()

		cmd.Println(strings.Join([]string{"BR", "SecondaryIndex", "Batched", "Terms", "Documents", "Values", "Time"}, "\t"))
		for _, indexed := range []bool{true, false} {
			if err := setSecondaryIndex(a, indexed); err != nil {
				return err
			}
			for _, batched := range []bool{false, true} {
				elapsed, err := benchWorkload(a, search.NewEngine(a.db, search.WithBatched(batched)), queries)
				if err != nil {
					return err
				}
				a.logger.Debug("bench round finished",
					zap.Bool("secondary_index", indexed),
					zap.Bool("batched", batched),
					zap.Duration("elapsed", elapsed),
				)
				cmd.Println(strings.Join([]string{
					"BR",
					fmt.Sprint(boolToInt(indexed)),
					fmt.Sprint(boolToInt(batched)),
					fmt.Sprint(stats.Terms),
					fmt.Sprint(stats.Documents),
					fmt.Sprint(stats.Weights),
					fmt.Sprintf("%.3f", elapsed.Seconds()),
				}, "\t"))
			}
		}
		return nil
	})
}

// benchWorkload runs each query and then benchHops similar-document hops
// starting from its third result.
func benchWorkload(a *app, engine *search.Engine, queries []string) (time.Duration, error) {
	start := time.Now()
	for _, q := range queries {
		results, err := engine.Query(a.processor.Terms(q))
		if err != nil {
			return 0, err
		}
		for hop := 0; hop < benchHops && len(results) > 0; hop++ {
			results, err = engine.SimilarTo(hopTarget(results))
			if err != nil {
				return 0, err
			}
		}
	}
	return time.Since(start), nil
}

func hopTarget(results []domain.ScoredDoc) int64 {
	return results[min(2, len(results)-1)].DocID
}

func setSecondaryIndex(a *app, enabled bool) error {
	if enabled {
		return a.db.CreateSecondaryIndex()
	}
	return a.db.DropSecondaryIndex()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
