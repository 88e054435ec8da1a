// Package contracttest holds behavioral contracts every adapter of a given
// port must satisfy. Memory and postgres contract tests run the same suites.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tripsync/planner/internal/domain"
	activityrepoport "github.com/tripsync/planner/internal/ports/out/activityrepo"
	filterstoreport "github.com/tripsync/planner/internal/ports/out/filterstore"
	idempotencyport "github.com/tripsync/planner/internal/ports/out/idempotency"
	memberrepoport "github.com/tripsync/planner/internal/ports/out/memberrepo"
	triprepoport "github.com/tripsync/planner/internal/ports/out/triprepo"
	"github.com/tripsync/planner/internal/view"
)

type CleanupFunc = func()

type MemberRepoFactory func(t *testing.T) (memberrepoport.Repository, CleanupFunc)
type TripRepoFactory func(t *testing.T) (triprepoport.Repository, CleanupFunc)
type ActivityRepoFactory func(t *testing.T) (activityrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)
type FilterStoreFactory func(t *testing.T) (filterstoreport.Store, CleanupFunc)

func RunMemberRepo(t *testing.T, newRepo MemberRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	aliceID, err := repo.Create(ctx, domain.Member{
		DisplayName: "Alice Johnson",
		Email:       "alice@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Create alice: %v", err)
	}
	if aliceID == 0 {
		t.Fatalf("expected assigned id")
	}
	got, err := repo.GetByID(ctx, aliceID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DisplayName != "Alice Johnson" || got.Email != "alice@example.com" {
		t.Fatalf("unexpected member: %+v", got)
	}

	// Email uniqueness.
	if _, err := repo.Create(ctx, domain.Member{
		DisplayName: "Alice Again",
		Email:       "alice@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	}); !errors.Is(err, memberrepoport.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// Deterministic list ordering by displayName (case-insensitive).
	if _, err := repo.Create(ctx, domain.Member{
		DisplayName: "bob",
		Email:       "bob@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		t.Fatalf("Create bob: %v", err)
	}
	ms, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ms) != 2 || ms[0].DisplayName != "Alice Johnson" || ms[1].DisplayName != "bob" {
		t.Fatalf("unexpected ordering: %#v", ms)
	}

	if _, err := repo.GetByID(ctx, aliceID+1000); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func RunTripRepo(t *testing.T, newRepo TripRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	earlier := time.Unix(2000, 0).UTC()
	later := time.Unix(3000, 0).UTC()
	start := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	secondID, err := repo.Create(ctx, domain.Trip{
		Name:      "Second",
		CreatedAt: later,
		UpdatedAt: later,
	})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	firstID, err := repo.Create(ctx, domain.Trip{
		Name:      "First",
		StartDate: &start,
		CreatedAt: earlier,
		UpdatedAt: earlier,
	})
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}

	got, err := repo.GetByID(ctx, firstID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "First" || got.StartDate == nil || !got.StartDate.Equal(start) {
		t.Fatalf("unexpected trip: %+v", got)
	}

	// Oldest first by createdAt.
	ts, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ts) != 2 || ts[0].ID != firstID || ts[1].ID != secondID {
		t.Fatalf("unexpected ordering: %#v", ts)
	}

	if _, err := repo.GetByID(ctx, firstID+secondID+1000); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// RunActivityRepo needs members and a trip seeded first so relational
// backends satisfy their references.
func RunActivityRepo(t *testing.T, newMemberRepo MemberRepoFactory, newTripRepo TripRepoFactory, newActivityRepo ActivityRepoFactory) {
	t.Helper()
	ctx := context.Background()

	members, mCleanup := newMemberRepo(t)
	if mCleanup != nil {
		t.Cleanup(mCleanup)
	}
	trips, tCleanup := newTripRepo(t)
	if tCleanup != nil {
		t.Cleanup(tCleanup)
	}
	activities, aCleanup := newActivityRepo(t)
	if aCleanup != nil {
		t.Cleanup(aCleanup)
	}

	now := time.Unix(4000, 0).UTC()
	creatorID, err := members.Create(ctx, domain.Member{
		DisplayName: "Creator",
		Email:       "creator@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("seed creator: %v", err)
	}
	guestID, err := members.Create(ctx, domain.Member{
		DisplayName: "Guest",
		Email:       "guest@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("seed guest: %v", err)
	}
	tripID, err := trips.Create(ctx, domain.Trip{
		Name:      "Contract Trip",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed trip: %v", err)
	}

	start := time.Date(2026, 7, 11, 18, 0, 0, 0, time.UTC)
	option := time.Date(2026, 7, 12, 9, 0, 0, 0, time.UTC)
	location := "Pier 3"
	capacity := 8

	dinner, err := activities.Create(ctx, domain.Activity{
		TripID:      tripID,
		Name:        "Group dinner",
		Location:    &location,
		Kind:        domain.ActivityKindScheduled,
		StartTime:   &start,
		MaxCapacity: &capacity,
		CreatorID:   creatorID,
		Invites: []domain.Invite{
			{UserID: guestID, Status: domain.InviteStatusPending, UpdatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create dinner: %v", err)
	}
	if dinner.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	got, err := activities.GetByID(ctx, dinner.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Group dinner" || got.Location == nil || *got.Location != "Pier 3" {
		t.Fatalf("unexpected activity: %+v", got)
	}
	if len(got.Invites) != 1 || got.Invites[0].UserID != guestID {
		t.Fatalf("unexpected invites: %#v", got.Invites)
	}
	if got.Counts.Pending != 1 || got.Counts.Accepted != 0 {
		t.Fatalf("counts should be derived from invites: %+v", got.Counts)
	}

	// Save replaces the whole aggregate.
	got.Invites[0].Status = domain.InviteStatusAccepted
	got.Invites = append(got.Invites, domain.Invite{
		UserID:    creatorID,
		Status:    domain.InviteStatusAccepted,
		UpdatedAt: now.Add(time.Hour),
	})
	got.UpdatedAt = now.Add(time.Hour)
	if err := activities.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved, err := activities.GetByID(ctx, dinner.ID)
	if err != nil {
		t.Fatalf("GetByID after save: %v", err)
	}
	if len(saved.Invites) != 2 || saved.Counts.Accepted != 2 || saved.Counts.Pending != 0 {
		t.Fatalf("unexpected aggregate after save: %+v", saved.Counts)
	}
	if saved.Invites[0].UserID != guestID || saved.Invites[1].UserID != creatorID {
		t.Fatalf("invite order must be preserved: %#v", saved.Invites)
	}

	// Ordering: dated first, undated last.
	undated, err := activities.Create(ctx, domain.Activity{
		TripID:    tripID,
		Name:      "Someday beach walk",
		Kind:      domain.ActivityKindPropose,
		CreatorID: creatorID,
		CreatedAt: now.Add(2 * time.Hour),
		UpdatedAt: now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create undated: %v", err)
	}
	brunch, err := activities.Create(ctx, domain.Activity{
		TripID:      tripID,
		Name:        "Brunch",
		Kind:        domain.ActivityKindScheduled,
		StartTime:   &option,
		CreatorID:   creatorID,
		CreatedAt:   now.Add(3 * time.Hour),
		UpdatedAt:   now.Add(3 * time.Hour),
		TimeOptions: nil,
	})
	if err != nil {
		t.Fatalf("Create brunch: %v", err)
	}
	list, err := activities.ListByTrip(ctx, tripID)
	if err != nil {
		t.Fatalf("ListByTrip: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 activities, got %d", len(list))
	}
	if list[0].ID != dinner.ID || list[1].ID != brunch.ID || list[2].ID != undated.ID {
		t.Fatalf("unexpected ordering: %v %v %v", list[0].Name, list[1].Name, list[2].Name)
	}

	// Delete removes the aggregate.
	if err := activities.Delete(ctx, undated.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := activities.GetByID(ctx, undated.ID); !errors.Is(err, activityrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := activities.Delete(ctx, undated.ID); !errors.Is(err, activityrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
	if err := activities.Save(ctx, domain.Activity{ID: undated.ID, TripID: tripID, Name: "ghost", Kind: domain.ActivityKindScheduled}); !errors.Is(err, activityrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on save of deleted, got %v", err)
	}
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      "k-1",
		User:     domain.UserID(7),
		Method:   "PUT",
		Route:    "/trips/{tripID}/activities/{activityID}/rsvp",
		BodyHash: "",
	}
	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// A different body hash is a different fingerprint.
	fp2 := fp
	fp2.BodyHash = "sha256:zzz"
	if _, ok, err := store.Get(ctx, fp2); err != nil || ok {
		t.Fatalf("expected miss for different fingerprint, ok=%v err=%v", ok, err)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}

func RunFilterStore(t *testing.T, newStore FilterStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	tripID := domain.TripID(42)

	if _, ok, err := store.Load(ctx, tripID); err != nil || ok {
		t.Fatalf("expected miss for unsaved trip, ok=%v err=%v", ok, err)
	}

	st := view.Stored{
		People:     []string{"everyone"},
		Categories: []string{"restaurants", "other"},
		Statuses:   []string{"scheduled", "proposed"},
	}
	if err := store.Save(ctx, tripID, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := store.Load(ctx, tripID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if len(got.Categories) != 2 || got.Categories[0] != "restaurants" {
		t.Fatalf("unexpected stored state: %+v", got)
	}

	// Last save wins.
	st2 := view.Stored{People: []string{"3"}, Categories: []string{"flights"}, Statuses: []string{"scheduled"}}
	if err := store.Save(ctx, tripID, st2); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, ok, err = store.Load(ctx, tripID)
	if err != nil || !ok || len(got.People) != 1 || got.People[0] != "3" {
		t.Fatalf("expected overwritten state, got ok=%v err=%v %+v", ok, err, got)
	}

	// Per-trip isolation.
	if _, ok, err := store.Load(ctx, tripID+1); err != nil || ok {
		t.Fatalf("expected miss for other trip, ok=%v err=%v", ok, err)
	}
}
