// Package journal persists applied tree updates so a tree can be rebuilt
// later by replaying them in order.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentic-research/axtree/internal/ax"
)

// Record is one journaled update. Err is non-empty when the update was
// rejected; replays skip such records.
type Record struct {
	Seq       uint64        `msgpack:"-"`
	TreeID    string        `msgpack:"t"`
	AppliedAt time.Time     `msgpack:"at"`
	Update    ax.TreeUpdate `msgpack:"u"`
	Err       string        `msgpack:"e,omitempty"`
}

// Failed reports whether the update was rejected when it was applied.
func (r *Record) Failed() bool { return r.Err != "" }

// Store is an append-only update log.
type Store interface {
	// Append stores rec, assigns its sequence number and returns it.
	Append(ctx context.Context, rec *Record) (uint64, error)
	// Iterate calls fn for each record of treeID in sequence order. An
	// empty treeID selects every record. Iteration stops at the first
	// error fn returns.
	Iterate(ctx context.Context, treeID string, fn func(*Record) error) error
	Len(ctx context.Context) (int, error)
	Close() error
}

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

var ErrUnknownDriver = errors.New("unknown journal driver")

// Open opens or creates a journal at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(path)
	case DriverBolt:
		return OpenBolt(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}
