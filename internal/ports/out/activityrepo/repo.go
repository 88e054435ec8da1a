package activityrepo

import (
	"context"

	"github.com/tripsync/planner/internal/domain"
)

// Repository provides access to persisted activities. The canonical
// domain.Activity record doubles as the persistence shape; invites persist
// as part of the aggregate, in join order.
//
// Result expectations:
//   - Reads return Counts derived from the stored invites.
//   - ListByTrip orders by start time ascending with undated activities
//     last, then CreatedAt, then ID, to keep behavior deterministic.
type Repository interface {
	// Create persists a new activity and returns it with its assigned id.
	Create(ctx context.Context, a domain.Activity) (domain.Activity, error)

	// Save overwrites the whole aggregate, invites included,
	// last-write-wins. ErrNotFound if the activity does not exist.
	Save(ctx context.Context, a domain.Activity) error

	GetByID(ctx context.Context, id domain.ActivityID) (domain.Activity, error)

	ListByTrip(ctx context.Context, tripID domain.TripID) ([]domain.Activity, error)

	// Delete removes the activity and its invites. ErrNotFound if absent.
	Delete(ctx context.Context, id domain.ActivityID) error
}
