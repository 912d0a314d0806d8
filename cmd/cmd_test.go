package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firstDoc = `{"root_id": 1, "nodes": [
  {"id": 1, "role": "rootWebArea", "child_ids": [2, 3]},
  {"id": 2, "role": "heading", "string_attributes": [{"key": "name", "value": "Title"}]},
  {"id": 3, "role": "paragraph"}
]}`

const secondDoc = `
updates:
  - nodes:
      - id: 1
        role: rootWebArea
        child_ids: [3]
  - nodes:
      - id: 1
        role: rootWebArea
        child_ids: [3, 7]
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default so runs in one process
// do not see each other's values.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

var fingerprintLine = regexp.MustCompile(`fingerprint: ([0-9a-f]{16})`)

func TestApplyThenReplay(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.yaml")
	require.NoError(t, os.WriteFile(first, []byte(firstDoc), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(secondDoc), 0o644))
	jpath := filepath.Join(dir, "journal.db")

	out, err := run(t, "apply", first, second, "--journal", jpath, "--driver", "bolt", "--tree-id", "page", "--log-level", "error")
	require.Error(t, err, "the last update references a missing node")
	assert.Contains(t, err.Error(), "7 will be in the tree but no data was supplied for it")
	assert.Contains(t, out, "id=3 paragraph")
	assert.NotContains(t, out, "heading")
	assert.Contains(t, out, "applied: 2\nrejected: 1\n")
	applied := fingerprintLine.FindStringSubmatch(out)
	require.Len(t, applied, 2)

	out, err = run(t, "replay", "--journal", jpath, "--driver", "bolt", "--tree-id", "page", "--log-level", "error")
	require.NoError(t, err)
	replayed := fingerprintLine.FindStringSubmatch(out)
	require.Len(t, replayed, 2)
	assert.Equal(t, applied[1], replayed[1])
	assert.Contains(t, out, "tree_id: page")
}

func TestReplayNeedsJournal(t *testing.T) {
	_, err := run(t, "replay")
	assert.Error(t, err)
}

func TestDriverWithoutJournal(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(doc, []byte(firstDoc), 0o644))

	out, err := run(t, "apply", doc, "--driver", "bolt")
	require.ErrorIs(t, err, ErrDriverWithoutJournal)
	assert.Empty(t, out)

	cfg := filepath.Join(dir, "axtree.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte("journal {\n  path = \""+filepath.ToSlash(filepath.Join(dir, "j.db"))+"\"\n}\n"), 0o644))
	_, err = run(t, "apply", doc, "--config", cfg, "--driver", "bolt")
	require.NoError(t, err)
}

func TestApplyWithConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "axtree.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte(`log_level = "loud"`), 0o644))
	doc := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(doc, []byte(firstDoc), 0o644))

	_, err := run(t, "apply", doc, "--config", cfg)
	assert.Error(t, err)

	out, err := run(t, "apply", doc, "--config", cfg, "--log-level", "warn")
	require.Error(t, err, "the file is rejected before flags apply")
	assert.Empty(t, out)
}
