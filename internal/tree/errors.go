package tree

import (
	"errors"
	"fmt"
)

// Failure classes reported by Unserialize. Every *UnserializeError wraps
// exactly one of them.
var (
	ErrNotInTree               = errors.New("node not in tree")
	ErrDuplicateChild          = errors.New("duplicate child ids")
	ErrCreationPending         = errors.New("node already pending creation")
	ErrCreationPendingForChild = errors.New("child already pending creation")
	ErrReparent                = errors.New("node reparented without destruction")
	ErrPendingNodes            = errors.New("nodes left pending")
	ErrPendingChanges          = errors.New("changes left pending")
	ErrNoRoot                  = errors.New("tree has no root")
	ErrInvalidTreeConstruction = errors.New("invalid tree construction")
	ErrInconsistentNodeCount   = errors.New("inconsistent node count")

	// ErrUpdateInProgress is returned when Unserialize is re-entered from
	// an observer callback.
	ErrUpdateInProgress = errors.New("tree update already in progress")

	// ErrDestroyed is returned for any update after Destroy.
	ErrDestroyed = errors.New("tree destroyed")
)

// UnserializeError describes why an update was rejected.
type UnserializeError struct {
	Kind error
	Msg  string
}

func (e *UnserializeError) Error() string { return e.Msg }

func (e *UnserializeError) Unwrap() error { return e.Kind }

func newUnserializeError(kind error, format string, args ...any) *UnserializeError {
	return &UnserializeError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// ErrorKind names the failure class of err for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotInTree):
		return "not_in_tree"
	case errors.Is(err, ErrDuplicateChild):
		return "duplicate_child"
	case errors.Is(err, ErrCreationPending):
		return "creation_pending"
	case errors.Is(err, ErrCreationPendingForChild):
		return "creation_pending_for_child"
	case errors.Is(err, ErrReparent):
		return "reparent"
	case errors.Is(err, ErrPendingNodes):
		return "pending_nodes"
	case errors.Is(err, ErrPendingChanges):
		return "pending_changes"
	case errors.Is(err, ErrNoRoot):
		return "no_root"
	case errors.Is(err, ErrInvalidTreeConstruction):
		return "invalid_construction"
	case errors.Is(err, ErrInconsistentNodeCount):
		return "inconsistent_node_count"
	case errors.Is(err, ErrUpdateInProgress):
		return "update_in_progress"
	case errors.Is(err, ErrDestroyed):
		return "destroyed"
	}
	return "unknown"
}
