package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trieidx/snapshot"
)

const recordsJSON = `[
  {"id": "o1", "name": "Berlin Bakery", "city": "Berlin"},
  {"id": "o2", "name": "Bern Books", "city": "Bern"},
  {"id": "o3", "name": "Hamburg Harbor", "city": "Hamburg"},
  {"id": "o4", "name": "Cyberlink", "city": "Munich"}
]`

type fixture struct {
	dir     string
	config  string
	records string
}

func newFixture(t *testing.T, primary string) fixture {
	t.Helper()
	dir := t.TempDir()

	f := fixture{
		dir:     dir,
		config:  filepath.Join(dir, "trieidx.yml"),
		records: filepath.Join(dir, "records.json"),
	}

	cfg := "log:\n  level: error\ncache:\n  dir: " + filepath.Join(dir, "cache") + "\n  primary: " + primary + "\nworker:\n  chunk_size: 2\n"
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o600))
	require.NoError(t, os.WriteFile(f.records, []byte(recordsJSON), 0o600))

	return f
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root, cleanup := newRootCmd()
	defer cleanup()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", f.config}, args...))

	err := root.Execute()
	return out.String(), err
}

func lines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestCLI_IndexSearchCache(t *testing.T) {
	for _, primary := range []string{"sqlite", "none"} {
		t.Run(primary, func(t *testing.T) {
			f := newFixture(t, primary)
			ds := []string{"-d", "orgs", "-f", "name,city"}

			out, err := f.run(t, append([]string{"index", f.records}, ds...)...)
			require.NoError(t, err)
			assert.Contains(t, out, "source=records")
			assert.Contains(t, out, "items=4")

			// Served from the cache without the records file.
			out, err = f.run(t, append([]string{"search", "ber"}, ds...)...)
			require.NoError(t, err)
			got := lines(out)
			require.Len(t, got, 3)
			assert.Contains(t, got[0], "\to2\t")
			assert.Contains(t, got[1], "\to1\t")
			assert.True(t, strings.HasPrefix(got[2], "0.7000\to4\t"))

			out, err = f.run(t, append([]string{"search", "ber", "-n", "1", "--return-fields", "city"}, ds...)...)
			require.NoError(t, err)
			assert.Equal(t, []string{"0.9750\to2\t{\"city\":\"Bern\"}"}, lines(out))

			out, err = f.run(t, "cache", "list")
			require.NoError(t, err)
			keys := lines(out)
			require.Len(t, keys, 1)
			assert.True(t, strings.HasPrefix(keys[0], "trie-"))

			out, err = f.run(t, append([]string{"index", f.records, "--force"}, ds...)...)
			require.NoError(t, err)
			assert.Contains(t, out, "source=records")

			_, err = f.run(t, "cache", "rm", keys[0])
			require.NoError(t, err)
			out, err = f.run(t, "cache", "list")
			require.NoError(t, err)
			assert.Empty(t, lines(out))

			_, err = f.run(t, append([]string{"search", "ber"}, ds...)...)
			assert.ErrorContains(t, err, "not cached")

			out, err = f.run(t, append([]string{"search", "hamburg", "--records", f.records}, ds...)...)
			require.NoError(t, err)
			assert.Len(t, lines(out), 1)

			_, err = f.run(t, "cache", "clear")
			require.NoError(t, err)
			out, err = f.run(t, "cache", "list")
			require.NoError(t, err)
			assert.Empty(t, lines(out))
		})
	}
}

func TestCLI_Export(t *testing.T) {
	f := newFixture(t, "none")
	path := filepath.Join(f.dir, "export.json")

	_, err := f.run(t, "export", "-d", "orgs", "-f", "name", "--records", f.records, "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s, err := snapshot.Decode(nil, data)
	require.NoError(t, err)
	assert.Equal(t, "orgs", s.Metadata.DatasetID)
	assert.Equal(t, 4, s.Metadata.RecordCount)
	assert.Len(t, s.Items, 4)

	out, err := f.run(t, "export", "-d", "orgs", "-f", "name")
	require.NoError(t, err)
	assert.Contains(t, out, `"datasetId":"orgs"`)
}

func TestCLI_Errors(t *testing.T) {
	f := newFixture(t, "none")

	_, err := f.run(t, "search", "x")
	assert.Error(t, err, "missing required flags")

	_, err = f.run(t, "index", filepath.Join(f.dir, "missing.json"), "-d", "x", "-f", "name")
	assert.Error(t, err)

	_, err = f.run(t, "--log-level", "loud", "cache", "list")
	assert.ErrorContains(t, err, "log.level")

	bad := filepath.Join(f.dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("cache:\n  enabled: false\n"), 0o600))
	root, cleanup := newRootCmd()
	defer cleanup()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", bad, "cache", "list"})
	assert.ErrorIs(t, root.Execute(), errCacheDisabled)
}
