package triprepo

import (
	"context"

	"github.com/tripsync/planner/internal/domain"
)

// Repository provides access to persisted trips. The canonical domain.Trip
// record doubles as the persistence shape.
//
// Result ordering expectations:
//   - List returns trips oldest first, by CreatedAt then ID, to keep
//     behavior deterministic.
type Repository interface {
	// Create persists a new trip and returns the assigned id. A zero t.ID
	// asks the store to assign the next one.
	Create(ctx context.Context, t domain.Trip) (domain.TripID, error)

	GetByID(ctx context.Context, id domain.TripID) (domain.Trip, error)

	List(ctx context.Context) ([]domain.Trip, error)
}
