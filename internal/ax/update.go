package ax

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TreeData is metadata that applies to a whole tree.
type TreeData struct {
	TreeID            string  `json:"tree_id,omitempty" msgpack:"tree_id,omitempty"`
	ParentTreeID      string  `json:"parent_tree_id,omitempty" msgpack:"parent_tree_id,omitempty"`
	FocusedTreeID     string  `json:"focused_tree_id,omitempty" msgpack:"focused_tree_id,omitempty"`
	DocType           string  `json:"doctype,omitempty" msgpack:"doctype,omitempty"`
	Title             string  `json:"title,omitempty" msgpack:"title,omitempty"`
	URL               string  `json:"url,omitempty" msgpack:"url,omitempty"`
	Loaded            bool    `json:"loaded,omitempty" msgpack:"loaded,omitempty"`
	LoadingProgress   float32 `json:"loading_progress,omitempty" msgpack:"loading_progress,omitempty"`
	FocusID           NodeID  `json:"focus_id,omitempty" msgpack:"focus_id,omitempty"`
	SelIsBackward     bool    `json:"sel_is_backward,omitempty" msgpack:"sel_is_backward,omitempty"`
	SelAnchorObjectID NodeID  `json:"sel_anchor_object_id,omitempty" msgpack:"sel_anchor_object_id,omitempty"`
	SelAnchorOffset   int32   `json:"sel_anchor_offset,omitempty" msgpack:"sel_anchor_offset,omitempty"`
	SelFocusObjectID  NodeID  `json:"sel_focus_object_id,omitempty" msgpack:"sel_focus_object_id,omitempty"`
	SelFocusOffset    int32   `json:"sel_focus_offset,omitempty" msgpack:"sel_focus_offset,omitempty"`
}

func (d TreeData) Equal(o TreeData) bool { return d == o }

func (d TreeData) String() string {
	var parts []string
	add := func(k string, v any) { parts = append(parts, fmt.Sprintf("%s=%v", k, v)) }
	if d.TreeID != "" {
		add("tree_id", d.TreeID)
	}
	if d.ParentTreeID != "" {
		add("parent_tree_id", d.ParentTreeID)
	}
	if d.Title != "" {
		add("title", d.Title)
	}
	if d.URL != "" {
		add("url", d.URL)
	}
	if d.Loaded {
		add("loaded", true)
	}
	if d.FocusID != InvalidNodeID {
		add("focus_id", d.FocusID)
	}
	if d.SelAnchorObjectID != InvalidNodeID {
		add("sel_anchor", fmt.Sprintf("%d:%d", d.SelAnchorObjectID, d.SelAnchorOffset))
	}
	if d.SelFocusObjectID != InvalidNodeID {
		add("sel_focus", fmt.Sprintf("%d:%d", d.SelFocusObjectID, d.SelFocusOffset))
	}
	return "AXTreeData " + strings.Join(parts, " ")
}

// NewTreeID returns a fresh random tree id.
func NewTreeID() string { return uuid.NewString() }

// TreeChecks carries optional consistency expectations for an update.
type TreeChecks struct {
	NodeCount int `json:"node_count" msgpack:"node_count"`
}

// TreeUpdate is one incremental change request. NodeIDToClear, when set,
// names a node whose subtree is dropped before the records are applied.
// Nodes are applied in order: a parent's record must come before the
// records of any children it introduces.
type TreeUpdate struct {
	HasTreeData   bool        `json:"has_tree_data,omitempty" msgpack:"has_tree_data,omitempty"`
	TreeData      TreeData    `json:"tree_data" msgpack:"tree_data"`
	NodeIDToClear NodeID      `json:"node_id_to_clear,omitempty" msgpack:"node_id_to_clear,omitempty"`
	RootID        NodeID      `json:"root_id,omitempty" msgpack:"root_id,omitempty"`
	Nodes         []NodeData  `json:"nodes,omitempty" msgpack:"nodes,omitempty"`
	TreeChecks    *TreeChecks `json:"tree_checks,omitempty" msgpack:"tree_checks,omitempty"`
}

// String renders the update for diagnostics.
func (u *TreeUpdate) String() string {
	var b strings.Builder
	if u.HasTreeData {
		b.WriteString(u.TreeData.String())
		b.WriteByte('\n')
	}
	if u.NodeIDToClear != InvalidNodeID {
		fmt.Fprintf(&b, "AXTreeUpdate: clear node %d\n", u.NodeIDToClear)
	}
	if u.RootID != InvalidNodeID {
		fmt.Fprintf(&b, "AXTreeUpdate: root id %d\n", u.RootID)
	}
	b.WriteString("AXTreeUpdate: nodes\n")
	for i := range u.Nodes {
		b.WriteString(u.Nodes[i].String())
		b.WriteByte('\n')
	}
	return b.String()
}
