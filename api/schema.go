package api

import "github.com/agentic-research/axtree/internal/ax"

// ScriptVersion is the only script version this build understands.
const ScriptVersion = "v1"

// Script is an update document: a sequence of tree updates applied in
// order to one tree.
type Script struct {
	// Version of the script format. Empty means ScriptVersion.
	Version string `json:"version,omitempty"`
	// TreeID, when set, is stamped onto every update that carries tree
	// data without an id of its own.
	TreeID string `json:"tree_id,omitempty"`
	// Description is free text for humans.
	Description string `json:"description,omitempty"`
	// Updates in application order.
	Updates []ax.TreeUpdate `json:"updates"`
}
