package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phrazzld/setgrouper/internal/config"
	"github.com/phrazzld/setgrouper/internal/service"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedSearcher map[string]string

func (c cannedSearcher) SearchPrints(_ context.Context, name string) ([]byte, error) {
	body, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("no prints for %q", name)
	}
	return []byte(body), nil
}

var searcher = cannedSearcher{
	"Sol Ring": `{"object":"list","data":[
		{"name":"Sol Ring","set_name":"Commander Masters","prices":{"usd":"1.50"},"color_identity":[]},
		{"name":"Sol Ring","set_name":"Commander Legends","prices":{"usd":"1.25"},"color_identity":[]}]}`,
	"Evolving Wilds": `{"object":"list","data":[
		{"name":"Evolving Wilds","set_name":"Commander Masters","prices":{"usd":"0.30"},"color_identity":[]}]}`,
}

// isolate runs the test in an empty directory with a memory cache and quiet logs.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("SETGROUPER_CACHE_BACKEND", config.BackendMemory)
	t.Setenv("SETGROUPER_SERVER_LOG_LEVEL", "error")
}

func runCLI(t *testing.T, opts Options, stdin string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), opts, Streams{In: strings.NewReader(stdin), Out: &out, Err: &errOut}, searcher)
	return out.String(), errOut.String(), err
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(pflag.NewFlagSet("test", pflag.ContinueOnError),
		[]string{"--csv", "--exclude", "Sol Ring", "--exclude", "Island", "--progress", "--concurrency", "4", "deck.txt"})
	require.NoError(t, err)
	assert.True(t, opts.CSV)
	assert.True(t, opts.Progress)
	assert.Equal(t, []string{"Sol Ring", "Island"}, opts.Exclude)
	assert.Equal(t, 4, opts.Concurrency)
	assert.Equal(t, "deck.txt", opts.Input)

	_, err = ParseOptions(pflag.NewFlagSet("test", pflag.ContinueOnError), []string{"a.txt", "b.txt"})
	assert.Error(t, err)

	_, err = ParseOptions(pflag.NewFlagSet("test", pflag.ContinueOnError), []string{"--bogus"})
	assert.Error(t, err)
}

func TestRun_TextOutput(t *testing.T) {
	isolate(t)

	out, _, err := runCLI(t, Options{}, "Deck\n1 Sol Ring (CMM) 410\n1 Evolving Wilds\n")
	require.NoError(t, err)
	assert.Equal(t,
		"Commander Masters (2)\n"+
			"  Sol Ring  $1.50  [MID]\n"+
			"  Evolving Wilds  $0.30  [LOW]\n"+
			"\n"+
			"Commander Legends (1)\n"+
			"  Sol Ring  $1.25  [MID]\n",
		out)
}

func TestRun_CSVWithExclude(t *testing.T) {
	isolate(t)

	out, _, err := runCLI(t, Options{CSV: true, Exclude: []string{"Evolving Wilds"}}, "Sol Ring\nEvolving Wilds\n")
	require.NoError(t, err)
	assert.Equal(t, "Set,Cards\nCommander Masters,Sol Ring\nCommander Legends,Sol Ring\n", out)
}

func TestRun_ProgressAndPartialFailure(t *testing.T) {
	isolate(t)

	out, errOut, err := runCLI(t, Options{Progress: true}, "Sol Ring\nMox Lotus\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Commander Masters (1)")
	assert.Contains(t, errOut, "1/2\n")
	assert.Contains(t, errOut, "2/2\n")
	assert.Contains(t, errOut, "failed to resolve card")
}

func TestRun_ReadsFile(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("deck.txt", []byte("1 Evolving Wilds (CMM)\n"), 0o600))

	out, _, err := runCLI(t, Options{Input: "deck.txt", CSV: true}, "")
	require.NoError(t, err)
	assert.Equal(t, "Set,Cards\nCommander Masters,Evolving Wilds\n", out)

	_, _, err = runCLI(t, Options{Input: "missing.txt"}, "")
	assert.ErrorContains(t, err, "failed to read deck list")
}

func TestRun_NoNames(t *testing.T) {
	isolate(t)

	_, _, err := runCLI(t, Options{}, "Deck\n// empty\n")
	assert.ErrorIs(t, err, service.ErrNoNames)
}

func TestRun_CacheMaintenanceWithSQLite(t *testing.T) {
	isolate(t)
	t.Setenv("SETGROUPER_CACHE_BACKEND", config.BackendSQLite)
	t.Setenv("SETGROUPER_CACHE_SQLITE_PATH", filepath.Join(t.TempDir(), "cache.db"))

	_, _, err := runCLI(t, Options{}, "Sol Ring\nEvolving Wilds\n")
	require.NoError(t, err)

	out, _, err := runCLI(t, Options{CacheStats: true}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "entries: 2\n")
	assert.Contains(t, out, "oldest: ")

	out, _, err = runCLI(t, Options{ClearCache: true, CacheStats: true}, "")
	require.NoError(t, err)
	assert.Equal(t, "cache cleared\nentries: 0\napprox bytes: 0\n", out)
}

func TestRun_InvalidOverride(t *testing.T) {
	isolate(t)

	_, _, err := runCLI(t, Options{Backend: "floppy"}, "Sol Ring\n")
	assert.ErrorContains(t, err, "validation failed")
}
