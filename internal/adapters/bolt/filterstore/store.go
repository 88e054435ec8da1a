// Package filterstore persists per-trip filter selections in a local bbolt
// file, so a dashboard reopens the way it was left between runs.
package filterstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/view"
)

var bucketName = []byte("filters")

// Store is a bbolt implementation of filterstore.Store. Keys are decimal
// trip ids, values JSON view.Stored records.
type Store struct {
	db *bolt.DB
}

// Open opens the filter database at path, creating it if needed.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening filter db at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating filters bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context, tripID domain.TripID) (view.Stored, bool, error) {
	_ = ctx
	var (
		st view.Stored
		ok bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketName).Get(key(tripID))
		if data == nil {
			return nil
		}
		var rec view.Stored
		if err := json.Unmarshal(data, &rec); err != nil {
			// Corrupt state reads as absent; the caller falls back to
			// defaults instead of failing the whole view.
			return nil
		}
		st, ok = rec, true
		return nil
	})
	if err != nil {
		return view.Stored{}, false, err
	}
	return st, ok, nil
}

func (s *Store) Save(ctx context.Context, tripID domain.TripID, st view.Stored) error {
	_ = ctx
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling filter state for trip %d: %w", tripID, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key(tripID), data)
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(tripID domain.TripID) []byte {
	return []byte(strconv.FormatInt(int64(tripID), 10))
}
