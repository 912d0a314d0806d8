// Package replay owns a live tree and feeds it updates from sources or
// from a journal. All access to the tree goes through the Player lock.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentic-research/axtree/internal/ax"
	"github.com/agentic-research/axtree/internal/journal"
	"github.com/agentic-research/axtree/internal/tree"
)

// Options configures a Player.
type Options struct {
	Tree tree.Options
	// Journal, when set, receives every applied update.
	Journal journal.Store
	// Observers are attached to every tree the player creates.
	Observers []tree.Observer
	Logger    *slog.Logger
	// TreeID names the journal stream. Empty means a fresh uuid.
	TreeID string
}

// Snapshot is a point-in-time summary of the player's tree.
type Snapshot struct {
	TreeID      string
	RootID      ax.NodeID
	NodeCount   int
	Applied     int
	Failed      int
	Fingerprint uint64
	Dump        string
}

// Player serializes updates and queries against one tree and swaps the
// tree on Reset and Rebuild.
type Player struct {
	mu      sync.Mutex
	opts    Options
	logger  *slog.Logger
	tracer  trace.Tracer
	treeID  string
	current *tree.Tree
	applied int
	failed  int
}

func New(opts Options) *Player {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Tree.Logger == nil {
		opts.Tree.Logger = logger
	}
	treeID := opts.TreeID
	if treeID == "" {
		treeID = ax.NewTreeID()
	}
	p := &Player{
		opts:   opts,
		logger: logger.With("component", "replay", "tree_id", treeID),
		tracer: otel.Tracer("github.com/agentic-research/axtree/internal/replay"),
		treeID: treeID,
	}
	p.current = p.newTree()
	return p
}

func (p *Player) newTree() *tree.Tree {
	t := tree.New(p.opts.Tree)
	for _, o := range p.opts.Observers {
		t.AddObserver(o)
	}
	return t
}

// TreeID returns the journal stream id of this player.
func (p *Player) TreeID() string { return p.treeID }

// Apply unserializes u into the tree and journals the outcome. A
// rejected update leaves the tree unchanged and is journaled with its
// error so rebuilds skip it.
func (p *Player) Apply(ctx context.Context, u ax.TreeUpdate) error {
	ctx, span := p.tracer.Start(ctx, "replay.Player.Apply",
		trace.WithAttributes(
			attribute.Int("update.nodes", len(u.Nodes)),
			attribute.Int64("update.root_id", int64(u.RootID)),
		))
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context cancelled")
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	applyErr := p.current.Unserialize(u)
	if applyErr != nil {
		p.failed++
		span.RecordError(applyErr)
		span.SetStatus(codes.Error, tree.ErrorKind(applyErr))
		p.logger.Warn("update rejected", "kind", tree.ErrorKind(applyErr), "error", applyErr)
	} else {
		p.applied++
		span.SetAttributes(attribute.Int("tree.nodes", p.current.Size()))
	}

	if p.opts.Journal == nil {
		return applyErr
	}
	rec := &journal.Record{TreeID: p.treeID, AppliedAt: time.Now(), Update: u}
	if applyErr != nil {
		rec.Err = applyErr.Error()
	}
	if _, err := p.opts.Journal.Append(ctx, rec); err != nil {
		span.RecordError(err)
		p.logger.Error("journal append failed", "error", err)
		return errors.Join(applyErr, fmt.Errorf("journal: %w", err))
	}
	return applyErr
}

// ApplyAll applies every update in order. Rejected updates do not stop
// the run; their errors are joined. Cancellation stops it.
func (p *Player) ApplyAll(ctx context.Context, updates []ax.TreeUpdate) error {
	var errs []error
	for i, u := range updates {
		if err := p.Apply(ctx, u); err != nil {
			if ctx.Err() != nil {
				return errors.Join(append(errs, ctx.Err())...)
			}
			errs = append(errs, fmt.Errorf("update %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Rebuild replays the successful records of treeID from store into a
// fresh tree and swaps it in. An empty treeID replays every record.
// Replayed updates are not journaled again. It returns the number of
// records applied.
func (p *Player) Rebuild(ctx context.Context, store journal.Store, treeID string) (int, error) {
	ctx, span := p.tracer.Start(ctx, "replay.Player.Rebuild",
		trace.WithAttributes(attribute.String("tree.id", treeID)))
	defer span.End()

	fresh := p.newTree()
	applied, skipped := 0, 0
	err := store.Iterate(ctx, treeID, func(rec *journal.Record) error {
		if rec.Failed() {
			skipped++
			return nil
		}
		if err := fresh.Unserialize(rec.Update); err != nil {
			return fmt.Errorf("record %d: %w", rec.Seq, err)
		}
		applied++
		return nil
	})
	if err != nil {
		fresh.Destroy()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return applied, fmt.Errorf("rebuild %s: %w", treeID, err)
	}
	span.SetAttributes(attribute.Int("records.applied", applied), attribute.Int("records.skipped", skipped))

	p.mu.Lock()
	old := p.current
	p.current = fresh
	if treeID != "" {
		p.treeID = treeID
	}
	p.applied, p.failed = applied, 0
	p.mu.Unlock()
	old.Destroy()

	p.logger.Info("tree rebuilt", "records", applied, "skipped", skipped, "nodes", fresh.Size())
	return applied, nil
}

// Reset destroys the current tree and starts over with an empty one.
func (p *Player) Reset() {
	fresh := p.newTree()
	p.mu.Lock()
	old := p.current
	p.current = fresh
	p.applied, p.failed = 0, 0
	p.mu.Unlock()
	old.Destroy()
}

// View runs fn with exclusive access to the tree. fn must not retain the
// tree or call Unserialize.
func (p *Player) View(fn func(*tree.Tree) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.current)
}

func (p *Player) Snapshot(verbose bool) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		TreeID:      p.treeID,
		NodeCount:   p.current.Size(),
		Applied:     p.applied,
		Failed:      p.failed,
		Fingerprint: p.current.Fingerprint(),
		Dump:        p.current.Dump(verbose),
	}
	if r := p.current.Root(); r != nil {
		s.RootID = r.ID()
	}
	return s
}

// Close destroys the tree. The journal belongs to the caller.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current.Destroy()
	return nil
}
