package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/agentic-research/axtree/internal/ax"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the journal in a single SQLite table. The update is
// stored as msgpack alongside queryable columns.
type SQLiteStore struct {
	db     *sql.DB
	insert *sql.Stmt
	mu     sync.Mutex
}

// OpenSQLite opens the database at path and creates the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS updates (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		tree_id TEXT NOT NULL,
		applied_at INTEGER NOT NULL,
		node_count INTEGER NOT NULL,
		err TEXT NOT NULL DEFAULT '',
		payload BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_updates_tree ON updates(tree_id, seq);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	insert, err := db.Prepare(`
		INSERT INTO updates (tree_id, applied_at, node_count, err, payload)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return &SQLiteStore{db: db, insert: insert}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec *Record) (uint64, error) {
	payload, err := encode(&rec.Update)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.insert.ExecContext(ctx, rec.TreeID, rec.AppliedAt.UnixNano(), len(rec.Update.Nodes), rec.Err, payload)
	if err != nil {
		return 0, fmt.Errorf("insert update: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	rec.Seq = uint64(id)
	return rec.Seq, nil
}

func (s *SQLiteStore) Iterate(ctx context.Context, treeID string, fn func(*Record) error) error {
	query := `SELECT seq, tree_id, applied_at, err, payload FROM updates`
	var args []any
	if treeID != "" {
		query += ` WHERE tree_id = ?`
		args = append(args, treeID)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query updates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			rec     Record
			nanos   int64
			payload []byte
		)
		if err := rows.Scan(&rec.Seq, &rec.TreeID, &nanos, &rec.Err, &payload); err != nil {
			return fmt.Errorf("scan update: %w", err)
		}
		rec.AppliedAt = time.Unix(0, nanos)
		var u ax.TreeUpdate
		if err := decode(payload, &u); err != nil {
			return fmt.Errorf("update %d: %w", rec.Seq, err)
		}
		rec.Update = u
		if err := fn(&rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM updates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count updates: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	_ = s.insert.Close()
	return s.db.Close()
}
