package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deidaraiorek/vecsearch/internal/config"
	"github.com/deidaraiorek/vecsearch/internal/corpus"
	"github.com/deidaraiorek/vecsearch/internal/indexer"
	"github.com/deidaraiorek/vecsearch/internal/textprocessor"
)

var (
	indexSize           int
	indexTokenLimit     int
	indexTopDocs        int
	indexSecondaryIndex bool
	indexSource         string
	indexDump           string
	indexCrawlDB        string
	indexStopWords      string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "(Re)create the index",
	Long: `Drops the existing index and builds a new one from the configured corpus.

Documents are read from a MediaWiki XML dump (plain, .bz2 or .zst) or from a
crawler page database. Redirect pages are skipped.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&indexSize, "size", 0, "number of documents to index (default from config)")
	indexCmd.Flags().IntVar(&indexTokenLimit, "limit", 0, "number of first words processed per document, 0 for all")
	indexCmd.Flags().IntVar(&indexTopDocs, "top-docs", 0, "documents kept per term, 0 for all")
	indexCmd.Flags().BoolVar(&indexSecondaryIndex, "secondary-index", false, "create the weight indexes after the build")
	indexCmd.Flags().StringVar(&indexSource, "source", "", `corpus source, "dump" or "crawl"`)
	indexCmd.Flags().StringVar(&indexDump, "dump", "", "dump file path or glob pattern")
	indexCmd.Flags().StringVar(&indexCrawlDB, "crawl-db", "", "crawler page database path")
	indexCmd.Flags().StringVar(&indexStopWords, "stop-words", "", "comma-separated extra stop words")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) (err error) {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	opts := indexOptions(cmd, a.cfg)
	if indexSource != "" {
		a.cfg.Corpus.Source = indexSource
	}
	if indexDump != "" {
		a.cfg.Corpus.Source = config.SourceDump
		a.cfg.Corpus.DumpPattern = indexDump
	}
	if indexCrawlDB != "" {
		a.cfg.Corpus.Source = config.SourceCrawl
		a.cfg.Corpus.CrawlDB = indexCrawlDB
	}
	processor := a.processor
	if indexStopWords != "" {
		extra := slices.Concat(a.cfg.Corpus.StopWords, strings.Split(indexStopWords, ","))
		processor = textprocessor.NewTextProcessor(extra...)
	}

	// the corpus is resolved before the index file is touched
	src, err := openSource(a)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := a.openIndex(cmd); err != nil {
		return err
	}

	cmd.Println("(Re)creating index")
	stats, err := indexer.New(a.db, processor, a.logger, a.metrics).Build(src, opts)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	printStats(cmd, stats.Terms, stats.Documents, stats.Weights)
	return nil
}

// indexOptions starts from config and applies the flags the user set.
func indexOptions(cmd *cobra.Command, cfg *config.Config) indexer.Options {
	opts := indexer.Options{
		DocumentLimit:  cfg.Indexer.DocumentLimit,
		TokenLimit:     cfg.Indexer.TokenLimit,
		TopKPerTerm:    cfg.Indexer.TopKPerTerm,
		SecondaryIndex: cfg.Indexer.SecondaryIndex,
	}
	flags := cmd.Flags()
	if flags.Changed("size") {
		opts.DocumentLimit = indexSize
	}
	if flags.Changed("limit") {
		opts.TokenLimit = indexTokenLimit
	}
	if flags.Changed("top-docs") {
		opts.TopKPerTerm = indexTopDocs
	}
	if flags.Changed("secondary-index") {
		opts.SecondaryIndex = indexSecondaryIndex
	}
	return opts
}

func openSource(a *app) (corpus.Source, error) {
	switch a.cfg.Corpus.Source {
	case config.SourceCrawl:
		src, err := corpus.OpenCrawlDB(a.cfg.Corpus.CrawlDB, a.cfg.Corpus.CrawlBatchSize)
		if err != nil {
			return nil, err
		}
		if total, err := src.TotalPages(); err == nil {
			a.logger.Info("reading crawled pages",
				zap.String("path", a.cfg.Corpus.CrawlDB),
				zap.Int("pages", total),
			)
		}
		return src, nil
	case config.SourceDump:
		path, err := corpus.FindDump(a.cfg.Corpus.DumpPattern)
		if err != nil {
			return nil, err
		}
		src, err := corpus.OpenDump(path)
		if err != nil {
			return nil, err
		}
		site := src.SiteInfo()
		a.logger.Info("reading dump",
			zap.String("path", path),
			zap.String("site", site.Name),
			zap.String("dbname", site.DBName),
		)
		return src, nil
	default:
		return nil, fmt.Errorf("unknown corpus source %q", a.cfg.Corpus.Source)
	}
}
