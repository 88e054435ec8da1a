package activityrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ports/out/activityrepo"
)

// Repo is an in-memory implementation of activityrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu     sync.RWMutex
	nextID domain.ActivityID
	byID   map[domain.ActivityID]domain.Activity
}

func NewRepo() *Repo {
	return &Repo{
		nextID: 1,
		byID:   make(map[domain.ActivityID]domain.Activity),
	}
}

func (r *Repo) Create(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID != 0 {
		if _, ok := r.byID[a.ID]; ok {
			return domain.Activity{}, activityrepo.ErrAlreadyExists
		}
		if a.ID >= r.nextID {
			r.nextID = a.ID + 1
		}
	} else {
		a.ID = r.nextID
		r.nextID++
	}
	r.byID[a.ID] = a.Clone()
	return r.read(a.ID), nil
}

func (r *Repo) Save(ctx context.Context, a domain.Activity) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID]; !ok {
		return activityrepo.ErrNotFound
	}
	r.byID[a.ID] = a.Clone()
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ActivityID) (domain.Activity, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.byID[id]; !ok {
		return domain.Activity{}, activityrepo.ErrNotFound
	}
	return r.read(id), nil
}

func (r *Repo) ListByTrip(ctx context.Context, tripID domain.TripID) ([]domain.Activity, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Activity, 0)
	for id, a := range r.byID {
		if a.TripID != tripID {
			continue
		}
		out = append(out, r.read(id))
	}
	sortActivities(out)
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ActivityID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return activityrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// read clones the stored record and recomputes Counts from the invites, the
// same way a relational read would aggregate them. Callers hold the lock.
func (r *Repo) read(id domain.ActivityID) domain.Activity {
	a := r.byID[id].Clone()
	a.Counts = domain.CountInvites(a.Invites)
	return a
}

func sortActivities(as []domain.Activity) {
	// Start time ascending with undated activities after dated ones, then
	// createdAt, then ID, so listings stay deterministic.
	sort.Slice(as, func(i, j int) bool {
		a, b := as[i], as[j]
		ad, bd := a.StartTime, b.StartTime
		if ad != nil && bd != nil && !ad.Equal(*bd) {
			return ad.Before(*bd)
		}
		if ad != nil && bd == nil {
			return true
		}
		if ad == nil && bd != nil {
			return false
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
