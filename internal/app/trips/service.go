// Package trips implements the application service for reading trips.
//
// Trips are created out of band (seed data or operator tooling); the planner
// API only ever reads them, so the service surface is deliberately small.
package trips

import (
	"context"
	"errors"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ports/out/triprepo"
)

type Service struct {
	trips triprepo.Repository
}

func NewService(trips triprepo.Repository) *Service {
	return &Service{trips: trips}
}

// GetTrip returns one trip by id.
func (s *Service) GetTrip(ctx context.Context, tripID domain.TripID) (domain.Trip, error) {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return domain.Trip{}, &Error{Status: 404, Code: "TRIP_NOT_FOUND", Message: "trip not found"}
		}
		return domain.Trip{}, err
	}
	return t, nil
}

// ListTrips returns every trip, oldest first.
func (s *Service) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	return s.trips.List(ctx)
}
