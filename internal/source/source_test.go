package source

import (
	"context"
	"testing"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/axtree/internal/ax"
)

const singleJSON = `{
  "root_id": 1,
  "nodes": [
    {"id": 1, "role": "rootWebArea", "child_ids": [2],
     "string_attributes": [{"key": "name", "value": "Home"}]},
    {"id": 2, "role": "button", "state": ["focusable"],
     "bool_attributes": {"busy": true}}
  ]
}`

const listJSON = `[
  {"root_id": 1, "nodes": [{"id": 1, "child_ids": [2]}, {"id": 2}]},
  {"nodes": [{"id": 1}]}
]`

const scriptYAML = `
version: v1
tree_id: tree-a
description: two steps
updates:
  - has_tree_data: true
    tree_data:
      title: first
    root_id: 1
    nodes:
      - id: 1
        role: rootWebArea
        child_ids: [2]
      - id: 2
        role: staticText
  - nodes:
      - id: 1
        role: rootWebArea
`

const wrappedJSON = `{"meta": {"source": "test"}, "payload": {"updates": [{"root_id": 5, "nodes": [{"id": 5}]}]}}`

func memFS(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, body := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(body), 0o644))
	}
	return fs
}

func TestLoad_SingleUpdate(t *testing.T) {
	l := NewLoader(memFS(t, map[string]string{"one.json": singleJSON}), "")
	got, err := l.Load("one.json")
	require.NoError(t, err)
	require.Len(t, got, 1)

	u := got[0]
	assert.Equal(t, ax.NodeID(1), u.RootID)
	require.Len(t, u.Nodes, 2)
	assert.Equal(t, ax.RoleRootWebArea, u.Nodes[0].Role)
	assert.Equal(t, "Home", u.Nodes[0].GetString(ax.StringAttributeName))
	assert.Equal(t, []ax.NodeID{2}, u.Nodes[0].ChildIDs)
	assert.Equal(t, ax.RoleButton, u.Nodes[1].Role)
	assert.True(t, u.Nodes[1].HasState(ax.StateFocusable))
	assert.True(t, u.Nodes[1].GetBool(ax.BoolAttributeBusy))
}

func TestLoad_List(t *testing.T) {
	l := NewLoader(memFS(t, map[string]string{"list.json": listJSON}), "")
	got, err := l.Load("list.json")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ax.NodeID(1), got[0].RootID)
	assert.Equal(t, ax.InvalidNodeID, got[1].RootID)
}

func TestLoad_ScriptYAML(t *testing.T) {
	l := NewLoader(memFS(t, map[string]string{"s.yaml": scriptYAML}), "")
	got, err := l.Load("s.yaml")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].HasTreeData)
	assert.Equal(t, "tree-a", got[0].TreeData.TreeID)
	assert.Equal(t, "first", got[0].TreeData.Title)
	assert.Equal(t, ax.RoleStaticText, got[0].Nodes[1].Role)
	assert.False(t, got[1].HasTreeData)
}

func TestLoad_Selector(t *testing.T) {
	l := NewLoader(memFS(t, map[string]string{"w.json": wrappedJSON}), "$.payload")
	got, err := l.Load("w.json")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ax.NodeID(5), got[0].RootID)

	l.Selector = "$.nothing"
	_, err = l.Load("w.json")
	assert.ErrorIs(t, err, ErrEmptySelection)

	l.Selector = "$[[["
	_, err = l.Load("w.json")
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	fs := memFS(t, map[string]string{
		"a.txt":       "{}",
		"bad.json":    "{",
		"scalar.json": "42",
		"v2.json":     `{"version": "v2", "updates": []}`,
		"role.json":   `{"nodes": [{"id": 1, "role": "notARole"}]}`,
	})
	l := NewLoader(fs, "")

	_, err := l.Load("a.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.Load("scalar.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	for _, name := range []string{"bad.json", "v2.json", "role.json", "missing.json"} {
		_, err = l.Load(name)
		assert.Error(t, err, name)
		assert.Contains(t, err.Error(), name)
	}
}

func TestLoadAll_PreservesOrder(t *testing.T) {
	files := map[string]string{
		"1.json": `{"root_id": 1, "nodes": [{"id": 1}]}`,
		"2.json": `[{"nodes": [{"id": 1, "child_ids": [2]}, {"id": 2}]}, {"nodes": [{"id": 2}]}]`,
		"3.yml":  "nodes:\n  - id: 1\n",
	}
	l := NewLoader(memFS(t, files), "")
	got, err := l.LoadAll(context.Background(), []string{"1.json", "2.json", "3.yml"})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, ax.NodeID(1), got[0].RootID)
	assert.Len(t, got[1].Nodes, 2)
	assert.Equal(t, ax.NodeID(2), got[2].Nodes[0].ID)
	assert.Equal(t, ax.NodeID(1), got[3].Nodes[0].ID)

	_, err = l.LoadAll(context.Background(), []string{"1.json", "nope.json"})
	assert.Error(t, err)
}
