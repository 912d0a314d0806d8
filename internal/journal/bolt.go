package journal

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var updatesBucket = []byte("updates")

// BoltStore keeps the journal in a bbolt bucket keyed by the big-endian
// sequence number, so cursor order is sequence order.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the bbolt file at path.
func OpenBolt(path string) (*BoltStore, error) {
	opt := *bbolt.DefaultOptions
	opt.Timeout = 10 * time.Second
	opt.FreelistType = bbolt.FreelistMapType

	db, err := bbolt.Open(path, 0o666, &opt)
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(updatesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

func (s *BoltStore) Append(ctx context.Context, rec *Record) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	value, err := encode(rec)
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(updatesBucket)
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), value)
	})
	if err != nil {
		return 0, fmt.Errorf("append update: %w", err)
	}
	rec.Seq = seq
	return seq, nil
}

func (s *BoltStore) Iterate(ctx context.Context, treeID string, fn func(*Record) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(updatesBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := decode(v, &rec); err != nil {
				return fmt.Errorf("update %x: %w", k, err)
			}
			if treeID != "" && rec.TreeID != treeID {
				continue
			}
			rec.Seq = binary.BigEndian.Uint64(k)
			if err := fn(&rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(updatesBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) Close() error { return s.db.Close() }
