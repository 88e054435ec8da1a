package filterstore

import (
	"context"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/view"
)

// Store persists the last-used filter selection per trip, so a dashboard
// reopens the way it was left.
type Store interface {
	// Load returns the stored selection for a trip. ok is false when
	// nothing usable is stored; corrupt state reads as absent rather than
	// failing, so callers fall back to defaults silently.
	Load(ctx context.Context, tripID domain.TripID) (s view.Stored, ok bool, err error)

	// Save overwrites the selection for a trip.
	Save(ctx context.Context, tripID domain.TripID, s view.Stored) error
}
