package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tripsync/planner/internal/domain"
	activityrepoport "github.com/tripsync/planner/internal/ports/out/activityrepo"
	memberrepoport "github.com/tripsync/planner/internal/ports/out/memberrepo"
	triprepoport "github.com/tripsync/planner/internal/ports/out/triprepo"
)

type demoMember struct {
	name string
	id   domain.UserID
}

type demoSeed struct {
	trip    domain.TripID
	members []demoMember
}

// seedDemoData provisions a small roster, one trip and a few activities so a
// fresh memory-backed instance has something to serve. Dates are laid out
// relative to now: the trip starts today and runs four days.
func seedDemoData(ctx context.Context, members memberrepoport.Repository, trips triprepoport.Repository, acts activityrepoport.Repository, now time.Time) (*demoSeed, error) {
	seed := &demoSeed{}

	profiles := make(map[string]*domain.UserSummary)
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		email := fmt.Sprintf("%s@demo.tripsync.example", strings.ToLower(name))
		id, err := members.Create(ctx, domain.Member{DisplayName: name, Email: email})
		if err != nil {
			return nil, fmt.Errorf("seed member %s: %w", name, err)
		}
		seed.members = append(seed.members, demoMember{name: name, id: id})
		profiles[name] = &domain.UserSummary{ID: id, DisplayName: name, Email: email}
	}
	alice, bob, carol := profiles["Alice"], profiles["Bob"], profiles["Carol"]

	day0 := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tripEnd := day0.Add(4 * 24 * time.Hour)
	tripID, err := trips.Create(ctx, domain.Trip{
		Name:      "Lisbon long weekend",
		StartDate: &day0,
		EndDate:   &tripEnd,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("seed trip: %w", err)
	}
	seed.trip = tripID

	invite := func(u *domain.UserSummary, status domain.InviteStatus) domain.Invite {
		return domain.Invite{UserID: u.ID, User: u, Status: status, UpdatedAt: now}
	}

	dinnerStart := day0.Add(24*time.Hour + 19*time.Hour + 30*time.Minute)
	dinnerEnd := dinnerStart.Add(2 * time.Hour)
	dinnerClose := dinnerStart.Add(-2 * time.Hour)
	checkIn := day0.Add(15 * time.Hour)

	// The dinner is deliberately at capacity: Carol's ACCEPT runs into
	// CAPACITY_FULL and the waitlist flow is demoable immediately.
	demoActivities := []domain.Activity{
		{
			TripID:        tripID,
			Name:          "Welcome dinner at Cervejaria Ramiro",
			Location:      strptr("Av. Almirante Reis 1"),
			CategoryHint:  strptr("dining"),
			Kind:          domain.ActivityKindScheduled,
			StartTime:     &dinnerStart,
			EndTime:       &dinnerEnd,
			RSVPCloseTime: &dinnerClose,
			MaxCapacity:   intptr(2),
			CreatorID:     alice.ID,
			Invites: []domain.Invite{
				invite(alice, domain.InviteStatusAccepted),
				invite(bob, domain.InviteStatusAccepted),
				invite(carol, domain.InviteStatusPending),
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			TripID:    tripID,
			Name:      "Sunset sailing on the Tagus",
			Kind:      domain.ActivityKindPropose,
			CreatorID: bob.ID,
			TimeOptions: []time.Time{
				day0.Add(2*24*time.Hour + 18*time.Hour),
				day0.Add(3*24*time.Hour + 17*time.Hour + 30*time.Minute),
			},
			Invites: []domain.Invite{
				invite(bob, domain.InviteStatusAccepted),
				invite(alice, domain.InviteStatusPending),
				invite(carol, domain.InviteStatusPending),
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			TripID:       tripID,
			Name:         "Check in at Memmo Alfama",
			Location:     strptr("Tv. das Merceeiras 27"),
			CategoryHint: strptr("hotel"),
			Kind:         domain.ActivityKindScheduled,
			StartTime:    &checkIn,
			CreatorID:    alice.ID,
			Invites: []domain.Invite{
				invite(alice, domain.InviteStatusAccepted),
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	for _, a := range demoActivities {
		if _, err := acts.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("seed activity %q: %w", a.Name, err)
		}
	}

	return seed, nil
}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }
