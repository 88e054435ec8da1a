package triprepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ports/out/triprepo"
)

// Repo is an in-memory implementation of triprepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu     sync.RWMutex
	nextID domain.TripID
	byID   map[domain.TripID]domain.Trip
}

func NewRepo() *Repo {
	return &Repo{
		nextID: 1,
		byID:   make(map[domain.TripID]domain.Trip),
	}
}

func (r *Repo) Create(ctx context.Context, t domain.Trip) (domain.TripID, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID != 0 {
		if _, ok := r.byID[t.ID]; ok {
			return 0, triprepo.ErrAlreadyExists
		}
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	} else {
		t.ID = r.nextID
		r.nextID++
	}
	r.byID[t.ID] = cloneTrip(t)
	return t.ID, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (domain.Trip, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return domain.Trip{}, triprepo.ErrNotFound
	}
	return cloneTrip(t), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Trip, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Trip, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, cloneTrip(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneTrip(t domain.Trip) domain.Trip {
	cp := t
	cp.Destination = cloneStringPtr(t.Destination)
	cp.StartDate = cloneTimePtr(t.StartDate)
	cp.EndDate = cloneTimePtr(t.EndDate)
	return cp
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
