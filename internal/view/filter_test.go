package view_test

import (
	"testing"
	"time"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/view"
)

const (
	viewer domain.UserID = 1
	other  domain.UserID = 2
)

func timePtr(t time.Time) *time.Time { return &t }
func strPtr(s string) *string        { return &s }
func boolPtr(b bool) *bool           { return &b }

func allOn() view.Filter {
	return view.Default().Runtime(viewer)
}

func scheduled(id domain.ActivityID, at time.Time, invites ...domain.Invite) domain.Activity {
	a := domain.Activity{
		ID:        id,
		Kind:      domain.ActivityKindScheduled,
		Name:      "a",
		StartTime: timePtr(at),
		Invites:   invites,
	}
	a.Counts = domain.CountInvites(invites)
	return a
}

func TestVisible_StatusFilter(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	acts := []domain.Activity{
		scheduled(1, at, domain.Invite{UserID: other, Status: domain.InviteStatusAccepted}),
		{ID: 2, Kind: domain.ActivityKindPropose, TimeOptions: []time.Time{at},
			Invites: []domain.Invite{{UserID: other, Status: domain.InviteStatusAccepted}},
			Counts:  domain.InviteCounts{Accepted: 1}},
	}

	c := view.Composer{Viewer: viewer}

	f := allOn()
	got := c.Visible(acts, f, nil)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("visible=%v want only the scheduled activity", ids(got))
	}

	f.Statuses = view.Statuses{Proposed: true}
	got = c.Visible(acts, f, nil)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("visible=%v want only the proposal", ids(got))
	}
}

func TestVisible_CategoryFilter(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	flight := scheduled(1, at, domain.Invite{UserID: other, Status: domain.InviteStatusAccepted})
	flight.CategoryHint = strPtr("Flight AA123")
	dinner := scheduled(2, at, domain.Invite{UserID: other, Status: domain.InviteStatusAccepted})
	dinner.CategoryHint = strPtr("dining")

	c := view.Composer{Viewer: viewer}
	f := allOn()
	f.Categories = map[domain.Category]bool{domain.CategoryFlights: true}

	got := c.Visible([]domain.Activity{flight, dinner}, f, nil)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("visible=%v want only the flight", ids(got))
	}
}

func TestVisible_PersonalActivities(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	mine := scheduled(1, at)
	mine.CreatorID = viewer
	mine.Visibility = strPtr("private")

	theirs := scheduled(2, at)
	theirs.CreatorID = other
	theirs.Visibility = strPtr("private")

	// Still classified personal (explicit visibility wins), but the shared
	// flag publishes it to the group calendar.
	published := scheduled(3, at)
	published.CreatorID = other
	published.Visibility = strPtr("private")
	published.Shared = boolPtr(true)
	published.Invites = []domain.Invite{{UserID: other, Status: domain.InviteStatusAccepted}}
	published.Counts = domain.CountInvites(published.Invites)

	c := view.Composer{Viewer: viewer}
	got := c.Visible([]domain.Activity{mine, theirs, published}, allOn(), nil)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("visible=%v want mine and the published one", ids(got))
	}

	// With the personal category off, every personally-classified activity
	// disappears, shared or not.
	f := allOn()
	delete(f.Categories, domain.CategoryPersonal)
	got = c.Visible([]domain.Activity{mine, theirs, published}, f, nil)
	if len(got) != 0 {
		t.Fatalf("visible=%v want none", ids(got))
	}
}

func TestVisible_EveryoneHeuristic(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	accepted := scheduled(1, at, domain.Invite{UserID: other, Status: domain.InviteStatusAccepted})
	onlyPending := scheduled(2, at, domain.Invite{UserID: other, Status: domain.InviteStatusPending})
	onlyPending.Shared = boolPtr(true)
	minePending := scheduled(3, at, domain.Invite{UserID: other, Status: domain.InviteStatusPending})
	minePending.CreatorID = viewer
	minePending.Shared = boolPtr(true)

	c := view.Composer{Viewer: viewer}
	got := c.Visible([]domain.Activity{accepted, onlyPending, minePending}, allOn(), nil)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("visible=%v want accepted-by-someone and posted-by-viewer", ids(got))
	}
}

func TestVisible_SpecificPeople(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	a1 := scheduled(1, at, domain.Invite{UserID: other, Status: domain.InviteStatusAccepted})
	a2 := scheduled(2, at, domain.Invite{UserID: viewer, Status: domain.InviteStatusPending})
	a3 := scheduled(3, at, domain.Invite{UserID: viewer, Status: domain.InviteStatusDeclined})
	a3.Shared = boolPtr(true)

	f := allOn()
	f.People = view.People{IDs: []domain.UserID{viewer}}

	c := view.Composer{Viewer: viewer}
	got := c.Visible([]domain.Activity{a1, a2, a3}, f, nil)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("visible=%v want only the pending invite", ids(got))
	}
}

func TestVisible_CustomPersonMatcher(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	a1 := scheduled(1, at, domain.Invite{UserID: viewer, Status: domain.InviteStatusDeclined})

	f := allOn()
	f.People = view.People{IDs: []domain.UserID{viewer}}

	c := view.Composer{
		Viewer: viewer,
		PersonMatch: func(a domain.Activity, user domain.UserID) bool {
			_, ok := domain.InviteFor(a, user)
			return ok
		},
	}
	got := c.Visible([]domain.Activity{a1}, f, nil)
	if len(got) != 1 {
		t.Fatalf("visible=%v: a matcher counting declines must keep it", ids(got))
	}
}

func TestVisible_DateRange(t *testing.T) {
	t.Parallel()

	r := &view.DateRange{
		Start: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	inv := domain.Invite{UserID: other, Status: domain.InviteStatusAccepted}

	inside := scheduled(1, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), inv)
	lastDayEvening := scheduled(2, time.Date(2026, 3, 15, 22, 0, 0, 0, time.UTC), inv)
	outside := scheduled(3, time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC), inv)

	undated := domain.Activity{ID: 4, Kind: domain.ActivityKindScheduled,
		Invites: []domain.Invite{inv}, Counts: domain.InviteCounts{Accepted: 1}}

	optionInRange := domain.Activity{ID: 5, Kind: domain.ActivityKindPropose,
		TimeOptions: []time.Time{
			time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		Invites: []domain.Invite{inv}, Counts: domain.InviteCounts{Accepted: 1}}

	c := view.Composer{Viewer: viewer}
	f := allOn()
	f.Statuses = view.Statuses{Scheduled: true, Proposed: true}

	got := c.Visible([]domain.Activity{inside, lastDayEvening, outside, undated, optionInRange}, f, r)
	want := []domain.ActivityID{1, 2, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("visible=%v want %v", ids(got), want)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("visible=%v want %v", ids(got), want)
		}
	}
}

func TestVisible_ProposalFallbackDate(t *testing.T) {
	t.Parallel()

	fb := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	inv := domain.Invite{UserID: other, Status: domain.InviteStatusAccepted}

	undatedProposal := domain.Activity{ID: 1, Kind: domain.ActivityKindPropose,
		Invites: []domain.Invite{inv}, Counts: domain.InviteCounts{Accepted: 1}}

	f := allOn()
	f.Statuses = view.Statuses{Proposed: true}
	c := view.Composer{Viewer: viewer}

	inWindow := &view.DateRange{
		Start:    time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Fallback: timePtr(fb),
	}
	if got := c.Visible([]domain.Activity{undatedProposal}, f, inWindow); len(got) != 1 {
		t.Fatalf("visible=%v: fallback day lands in the window", ids(got))
	}

	outWindow := &view.DateRange{
		Start:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 4, 7, 0, 0, 0, 0, time.UTC),
		Fallback: timePtr(fb),
	}
	if got := c.Visible([]domain.Activity{undatedProposal}, f, outWindow); len(got) != 0 {
		t.Fatalf("visible=%v: fallback day misses the window", ids(got))
	}

	// Without a fallback the proposal has zero candidates and always passes.
	noFallback := &view.DateRange{Start: outWindow.Start, End: outWindow.End}
	if got := c.Visible([]domain.Activity{undatedProposal}, f, noFallback); len(got) != 1 {
		t.Fatalf("visible=%v: zero candidates never hide an activity", ids(got))
	}
}

func TestVisible_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	inv := domain.Invite{UserID: other, Status: domain.InviteStatusAccepted}
	late := scheduled(1, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), inv)
	early := scheduled(2, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), inv)
	mid := scheduled(3, time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC), inv)

	c := view.Composer{Viewer: viewer}
	got := c.Visible([]domain.Activity{late, early, mid}, allOn(), nil)
	if len(got) != 3 || got[0].ID != 1 || got[1].ID != 2 || got[2].ID != 3 {
		t.Fatalf("visible=%v want input order", ids(got))
	}

	sorted := view.SortByDate(got)
	if sorted[0].ID != 2 || sorted[1].ID != 3 || sorted[2].ID != 1 {
		t.Fatalf("sorted=%v want date order", ids(sorted))
	}
	// The input slice is untouched.
	if got[0].ID != 1 {
		t.Fatalf("input reordered: %v", ids(got))
	}
}

func TestSortByDate_UndatedLastStable(t *testing.T) {
	t.Parallel()

	inv := domain.Invite{UserID: other, Status: domain.InviteStatusAccepted}
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	undatedA := domain.Activity{ID: 1, Kind: domain.ActivityKindScheduled, Invites: []domain.Invite{inv}}
	undatedB := domain.Activity{ID: 2, Kind: domain.ActivityKindScheduled, Invites: []domain.Invite{inv}}
	datedA := scheduled(3, at, inv)
	datedB := scheduled(4, at, inv)

	sorted := view.SortByDate([]domain.Activity{undatedA, datedA, undatedB, datedB})
	want := []domain.ActivityID{3, 4, 1, 2}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("sorted=%v want %v", ids(sorted), want)
		}
	}
}

func ids(acts []domain.Activity) []domain.ActivityID {
	out := make([]domain.ActivityID, len(acts))
	for i, a := range acts {
		out[i] = a.ID
	}
	return out
}
