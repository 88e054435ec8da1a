package domain_test

import (
	"testing"
	"time"

	"github.com/tripsync/planner/internal/domain"
)

func TestCountInvites(t *testing.T) {
	t.Parallel()

	got := domain.CountInvites([]domain.Invite{
		{UserID: 1, Status: domain.InviteStatusAccepted},
		{UserID: 2, Status: domain.InviteStatusAccepted},
		{UserID: 3, Status: domain.InviteStatusPending},
		{UserID: 4, Status: domain.InviteStatusDeclined},
		{UserID: 5, Status: domain.InviteStatusWaitlisted},
		{UserID: 6, Status: "unknown"},
	})
	want := domain.InviteCounts{Accepted: 2, Pending: 1, Declined: 1, Waitlisted: 1}
	if got != want {
		t.Fatalf("counts=%+v want %+v", got, want)
	}
}

func TestSetInviteStatus_UpsertKeepsPositions(t *testing.T) {
	t.Parallel()

	at := time.Unix(500, 0).UTC()
	a := domain.Activity{
		Kind: domain.ActivityKindScheduled,
		Invites: []domain.Invite{
			{UserID: creator, Status: domain.InviteStatusAccepted},
			{UserID: friend, Status: domain.InviteStatusPending},
		},
		Counts: domain.InviteCounts{Accepted: 1, Pending: 1},
	}

	domain.SetInviteStatus(&a, friend, nil, domain.InviteStatusAccepted, at)
	if len(a.Invites) != 2 || a.Invites[1].UserID != friend || a.Invites[1].Status != domain.InviteStatusAccepted {
		t.Fatalf("invites=%+v", a.Invites)
	}
	if !a.Invites[1].UpdatedAt.Equal(at) {
		t.Fatalf("updatedAt=%v", a.Invites[1].UpdatedAt)
	}
	if a.Counts != (domain.InviteCounts{Accepted: 2}) {
		t.Fatalf("counts=%+v", a.Counts)
	}

	domain.SetInviteStatus(&a, stranger, &domain.UserSummary{ID: stranger, DisplayName: "New"}, domain.InviteStatusWaitlisted, at)
	if len(a.Invites) != 3 || a.Invites[2].UserID != stranger {
		t.Fatalf("invites=%+v", a.Invites)
	}
	if a.Invites[2].User == nil || a.Invites[2].User.DisplayName != "New" {
		t.Fatalf("profile=%+v", a.Invites[2].User)
	}
	if a.Counts != (domain.InviteCounts{Accepted: 2, Waitlisted: 1}) {
		t.Fatalf("counts=%+v", a.Counts)
	}
}

func TestSetInviteStatus_PreservesPrecomputedTotals(t *testing.T) {
	t.Parallel()

	// A record from an older schema: totals shipped without the invite
	// list behind them. Changing one invite must not zero everyone else.
	a := domain.Activity{
		Kind:   domain.ActivityKindScheduled,
		Counts: domain.InviteCounts{Accepted: 7, Declined: 3},
	}

	domain.SetInviteStatus(&a, friend, nil, domain.InviteStatusAccepted, time.Unix(500, 0).UTC())
	if a.Counts != (domain.InviteCounts{Accepted: 8, Declined: 3}) {
		t.Fatalf("counts=%+v", a.Counts)
	}
}

func TestInviteFor(t *testing.T) {
	t.Parallel()

	a := domain.Activity{
		Invites: []domain.Invite{{UserID: creator, Status: domain.InviteStatusAccepted}},
	}

	inv, ok := domain.InviteFor(a, creator)
	if !ok || inv.Status != domain.InviteStatusAccepted {
		t.Fatalf("invite=%+v ok=%v", inv, ok)
	}

	if _, ok := domain.InviteFor(a, stranger); ok {
		t.Fatalf("expected no invite")
	}

	status, ok := domain.StatusFor(a, creator)
	if !ok || status != domain.InviteStatusAccepted {
		t.Fatalf("status=%s ok=%v", status, ok)
	}
	if _, ok := domain.StatusFor(a, stranger); ok {
		t.Fatalf("expected no status")
	}
}
