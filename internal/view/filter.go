package view

import (
	"sort"

	"github.com/tripsync/planner/internal/domain"
)

// People is the person dimension of a filter. With no specific IDs the
// selection means "everyone": any activity the group has signed on to. IDs
// are concrete user ids; the stored "me" sentinel has already been resolved
// by the time a People value exists.
type People struct {
	Everyone bool
	IDs      []domain.UserID
}

// Statuses toggles the two activity kinds. The proposals view is the only
// place Proposed is normally on.
type Statuses struct {
	Scheduled bool
	Proposed  bool
}

// Filter is one complete filter selection.
type Filter struct {
	People     People
	Categories map[domain.Category]bool
	Statuses   Statuses
}

// PersonMatchFunc decides whether an activity counts as belonging to a
// person. The composer delegates this so hosts can swap the notion of
// "their activity" without touching the predicate plumbing.
type PersonMatchFunc func(a domain.Activity, user domain.UserID) bool

// InvitedOrAccepted is the default person matcher: the user holds an invite
// that is still alive (accepted or pending). Declined and waitlisted invites
// do not pull an activity into someone's calendar.
func InvitedOrAccepted(a domain.Activity, user domain.UserID) bool {
	s, ok := domain.StatusFor(a, user)
	return ok && (s == domain.InviteStatusAccepted || s == domain.InviteStatusPending)
}

// Composer filters activity lists for one viewer. The zero value works;
// PersonMatch defaults to InvitedOrAccepted.
type Composer struct {
	Viewer      domain.UserID
	PersonMatch PersonMatchFunc
}

// Visible returns the activities passing every predicate, in input order.
// A nil range means no date filtering.
func (c Composer) Visible(acts []domain.Activity, f Filter, r *DateRange) []domain.Activity {
	match := c.PersonMatch
	if match == nil {
		match = InvitedOrAccepted
	}

	var out []domain.Activity
	for _, a := range acts {
		if !statusPass(a, f.Statuses) {
			continue
		}
		if !c.categoryPass(a, f.Categories) {
			continue
		}
		if !c.peoplePass(a, f.People, match) {
			continue
		}
		if !rangePass(a, r) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func statusPass(a domain.Activity, s Statuses) bool {
	if a.Kind == domain.ActivityKindPropose {
		return s.Proposed
	}
	return s.Scheduled
}

func (c Composer) categoryPass(a domain.Activity, enabled map[domain.Category]bool) bool {
	cls := domain.Classify(a, c.Viewer)
	if !enabled[cls.Category] {
		return false
	}
	if cls.Personal {
		return domain.PersonalVisibleTo(a, c.Viewer)
	}
	return true
}

func (c Composer) peoplePass(a domain.Activity, p People, match PersonMatchFunc) bool {
	if len(p.IDs) == 0 {
		// "Everyone" is a relevance heuristic, not a wide-open pass:
		// somebody has accepted, or the viewer posted it.
		return a.Counts.Accepted > 0 || (a.CreatorID != 0 && a.CreatorID == c.Viewer)
	}
	for _, id := range p.IDs {
		if match(a, id) {
			return true
		}
	}
	return false
}

// rangePass hides an activity only when it has candidates and none land in
// the window. Activities with no derivable date always pass; hiding them
// would silently lose records with missing data.
func rangePass(a domain.Activity, r *DateRange) bool {
	if r == nil {
		return true
	}
	cands := domain.CandidatesWithFallback(a, r.Fallback)
	if len(cands) == 0 {
		return true
	}
	for _, c := range cands {
		if r.Contains(c) {
			return true
		}
	}
	return false
}

// SortByDate orders activities by primary date ascending, undated ones
// last. The sort is stable, so ties keep their input order.
func SortByDate(acts []domain.Activity) []domain.Activity {
	out := make([]domain.Activity, len(acts))
	copy(out, acts)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := domain.PrimaryDate(out[i]), domain.PrimaryDate(out[j])
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
	return out
}
