package filterstore

import (
	"context"
	"sync"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/view"
)

// Store is an in-memory implementation of filterstore.Store.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	m  map[domain.TripID]view.Stored
}

func NewStore() *Store {
	return &Store{
		m: make(map[domain.TripID]view.Stored),
	}
}

func (s *Store) Load(ctx context.Context, tripID domain.TripID) (view.Stored, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[tripID]
	if !ok {
		return view.Stored{}, false, nil
	}
	return cloneStored(st), true, nil
}

func (s *Store) Save(ctx context.Context, tripID domain.TripID, st view.Stored) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[tripID] = cloneStored(st)
	return nil
}

func cloneStored(st view.Stored) view.Stored {
	cp := st
	if st.People != nil {
		cp.People = append([]string(nil), st.People...)
	}
	if st.Categories != nil {
		cp.Categories = append([]string(nil), st.Categories...)
	}
	if st.Statuses != nil {
		cp.Statuses = append([]string(nil), st.Statuses...)
	}
	return cp
}
