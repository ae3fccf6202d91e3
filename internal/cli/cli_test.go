package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

const testDump = `<mediawiki>
  <siteinfo>
    <sitename>Wikipedia</sitename>
    <dbname>simplewiki</dbname>
  </siteinfo>
  <page>
    <title>Clouds</title>
    <id>1</id>
    <revision><model>wikitext</model>
      <text>Clouds cover a substantial portion of [[Earth]] and shade Earth from sunlight.</text>
    </revision>
  </page>
  <page>
    <title>Cloud</title>
    <id>2</id>
    <revision><model>wikitext</model><text>#REDIRECT [[Clouds]]</text></revision>
  </page>
  <page>
    <title>Aerosol effects</title>
    <id>3</id>
    <revision><model>wikitext</model>
      <text>Aerosols seed clouds and change how Earth absorbs sunlight.</text>
    </revision>
  </page>
  <page>
    <title>Test</title>
    <id>4</id>
    <revision><model>wikitext</model><text>Clouds are cool.</text></revision>
  </page>
</mediawiki>`

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// buildIndex indexes testDump into a fresh database and returns its path.
func buildIndex(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dump := filepath.Join(dir, "simplewiki-20240101-pages-articles-multistream.xml")
	require.NoError(t, os.WriteFile(dump, []byte(testDump), 0o644))

	db := filepath.Join(dir, "index.db")
	out, err := execute(t, "index", "--db", db, "--dump", dump)
	require.NoError(t, err, out)
	return db
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range []string{"index", "search", "similar", "show", "stats", "db-index", "serve", "bench"} {
		assert.True(t, names[name], "missing command %q", name)
	}
}

func TestIndexCmd(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "dump.xml")
	require.NoError(t, os.WriteFile(dump, []byte(testDump), 0o644))

	out, err := execute(t, "index", "--db", filepath.Join(dir, "index.db"), "--dump", dump, "--top-docs", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "(Re)creating index")
	assert.Contains(t, out, "Documents: 3")
}

func TestIndexCmdFlags(t *testing.T) {
	for _, name := range []string{"size", "limit", "top-docs", "secondary-index", "source", "dump", "crawl-db", "stop-words"} {
		assert.NotNil(t, indexCmd.Flags().Lookup(name), "missing flag %q", name)
	}
	assert.Equal(t, "0", indexCmd.Flags().Lookup("size").DefValue)
}

func TestIndexCmdMissingDump(t *testing.T) {
	dir := t.TempDir()

	db := filepath.Join(dir, "index.db")
	_, err := execute(t, "index", "--db", db, "--dump", filepath.Join(dir, "none-*.xml"))
	assert.ErrorIs(t, err, domain.ErrCorpusUnavailable)
	assert.NoFileExists(t, db)
}

func TestIndexCmdStopWords(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "dump.xml")
	require.NoError(t, os.WriteFile(dump, []byte(testDump), 0o644))
	cfg := filepath.Join(dir, "vecsearch.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("corpus:\n  stopWords: [sunlight]\n"), 0o644))

	db := filepath.Join(dir, "index.db")
	_, err := execute(t, "index", "--config", cfg, "--db", db, "--dump", dump, "--stop-words", "aerosols,shade")
	require.NoError(t, err)

	for _, query := range []string{"sunlight", "aerosols", "shade"} {
		out, err := execute(t, "search", "--db", db, query)
		require.NoError(t, err)
		assert.Contains(t, out, "No results found.", query)
	}

	out, err := execute(t, "search", "--db", db, "portion")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] Clouds")
}

func TestIndexCmdInvalidSize(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "dump.xml")
	require.NoError(t, os.WriteFile(dump, []byte(testDump), 0o644))

	_, err := execute(t, "index", "--db", filepath.Join(dir, "index.db"), "--dump", dump, "--size", "-1")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestSearchCmd(t *testing.T) {
	db := buildIndex(t)

	out, err := execute(t, "search", "--db", db, "substantial", "portion")
	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] Clouds (1.00)")

	out, err = execute(t, "search", "--db", db, "volcano")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmdJSON(t *testing.T) {
	db := buildIndex(t)

	out, err := execute(t, "search", "--db", db, "--json", "--batched", "earth", "shade")
	require.NoError(t, err)

	var lines []resultLine
	require.NoError(t, json.Unmarshal([]byte(out), &lines))
	require.Len(t, lines, 2)
	assert.Equal(t, "Clouds", lines[0].Title)
	assert.Equal(t, 1, lines[0].Rank)
}

func TestSearchCmdRequiresQuery(t *testing.T) {
	_, err := execute(t, "search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestSimilarCmd(t *testing.T) {
	db := buildIndex(t)

	out, err := execute(t, "similar", "--db", db, "Clouds")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] Clouds")

	out, err = execute(t, "similar", "--db", db, "2")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] Aerosol effects")

	_, err = execute(t, "similar", "--db", db, "Nowhere")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = execute(t, "similar", "--db", db, "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShowCmd(t *testing.T) {
	db := buildIndex(t)

	out, err := execute(t, "show", "--db", db, "--terms", "2", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Clouds (doc 1)")
	assert.Contains(t, out, "Clouds cover a substantial portion of Earth")
	assert.Contains(t, out, "Terms:")

	terms := strings.SplitN(out, "Terms:\n", 2)[1]
	assert.Len(t, strings.Split(strings.TrimSpace(terms), "\n"), 2)
}

func TestStatsIsDefault(t *testing.T) {
	db := buildIndex(t)

	out, err := execute(t, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Showing index stats")
	assert.Contains(t, out, "Documents: 3")
	assert.Contains(t, out, "Indexes created: false")

	out, err = execute(t, "stats", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 3")
}

func TestDBIndexCmd(t *testing.T) {
	db := buildIndex(t)

	out, err := execute(t, "db-index", "create", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Has index: false")
	assert.Contains(t, out, "Done, index created")

	out, err = execute(t, "db-index", "status", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Has index: true")

	out, err = execute(t, "db-index", "drop", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Has index: true")
	assert.Contains(t, out, "Done, index dropped")

	out, err = execute(t, "stats", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexes created: false")
}

func TestBenchCmd(t *testing.T) {
	db := buildIndex(t)

	out, err := execute(t, "bench", "--db", db, "earth sunlight", "clouds")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "BR\tSecondaryIndex"))
	for _, line := range lines[1:] {
		assert.Len(t, strings.Split(line, "\t"), 7)
		assert.Contains(t, line, "\t3\t")
	}

	out, err = execute(t, "stats", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexes created: false")
}

func TestHopTarget(t *testing.T) {
	one := []domain.ScoredDoc{{DocID: 7}}
	many := []domain.ScoredDoc{{DocID: 1}, {DocID: 2}, {DocID: 3}, {DocID: 4}}

	assert.Equal(t, int64(7), hopTarget(one))
	assert.Equal(t, int64(3), hopTarget(many))
}
