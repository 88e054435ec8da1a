package memberrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ports/out/memberrepo"
)

// Repo is an in-memory implementation of memberrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	nextID    domain.UserID
	byID      map[domain.UserID]domain.Member
	idByEmail map[string]domain.UserID
}

func NewRepo() *Repo {
	return &Repo{
		nextID:    1,
		byID:      make(map[domain.UserID]domain.Member),
		idByEmail: make(map[string]domain.UserID),
	}
}

func (r *Repo) Create(ctx context.Context, m domain.Member) (domain.UserID, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	email := emailKey(m.Email)
	if email != "" {
		if _, ok := r.idByEmail[email]; ok {
			return 0, memberrepo.ErrEmailTaken
		}
	}
	if m.ID != 0 {
		if _, ok := r.byID[m.ID]; ok {
			return 0, memberrepo.ErrAlreadyExists
		}
		if m.ID >= r.nextID {
			r.nextID = m.ID + 1
		}
	} else {
		m.ID = r.nextID
		r.nextID++
	}

	r.byID[m.ID] = m
	if email != "" {
		r.idByEmail[email] = m.ID
	}
	return m.ID, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.Member{}, memberrepo.ErrNotFound
	}
	return m, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Member, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		di := strings.ToLower(out[i].DisplayName)
		dj := strings.ToLower(out[j].DisplayName)
		if di == dj {
			return out[i].ID < out[j].ID
		}
		return di < dj
	})
	return out, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
