package filterstore

import (
	"context"
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/tripsync/planner/internal/adapters/contracttest"
	"github.com/tripsync/planner/internal/domain"
	filterstoreport "github.com/tripsync/planner/internal/ports/out/filterstore"
	"github.com/tripsync/planner/internal/view"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "filters.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContract_BoltFilterStore(t *testing.T) {
	contracttest.RunFilterStore(t, func(t *testing.T) (filterstoreport.Store, contracttest.CleanupFunc) {
		t.Helper()
		return openTemp(t), nil
	})
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(ctx, 7, view.Stored{People: []string{"me"}, Categories: []string{"hotels"}, Statuses: []string{"scheduled"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, ok, err := s.Load(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("Load after reopen: ok=%v err=%v", ok, err)
	}
	if len(got.People) != 1 || got.People[0] != "me" {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestCorruptValueReadsAsAbsent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	tripID := domain.TripID(9)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key(tripID), []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("plant corrupt value: %v", err)
	}

	got, ok, err := s.Load(ctx, tripID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatalf("corrupt value should read as absent, got %+v", got)
	}

	// A save repairs the slot.
	if err := s.Save(ctx, tripID, view.Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok, err := s.Load(ctx, tripID); err != nil || !ok {
		t.Fatalf("Load after repair: ok=%v err=%v", ok, err)
	}
}
