package dashboard

import (
	"time"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/view"
)

// Item is one activity prepared for rendering, every derived field the host
// needs precomputed so templates stay dumb.
type Item struct {
	Activity domain.Activity

	PrimaryDate *time.Time
	Category    domain.Category
	Personal    bool

	// ViewerStatus is the viewer's invite status. Pending doubles as the
	// zero state of a participant with no invite yet; HasInvite
	// disambiguates.
	ViewerStatus domain.InviteStatus
	HasInvite    bool

	// Allowed is the advisory action set for the viewer right now. The
	// server still enforces; this only decides which buttons to draw.
	Allowed []domain.RSVPAction

	// InFlight marks an RSVP mutation still waiting on the server.
	InFlight bool
}

// Snapshot is the full render model for one frame.
type Snapshot struct {
	Trip   domain.Trip
	Filter view.Stored
	View   view.ViewMode

	Calendar  []Item
	Proposals []Item
}

// Snapshot composes the current render model. It is synchronous and pure
// over the engine's state: no network, no debounce, the same state always
// yields the same frame.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	fallback := domain.FallbackDate(e.trip)

	r := view.RangeForView(e.mode, e.anchor)
	if r != nil {
		r.Fallback = fallback
	}

	composer := view.Composer{Viewer: e.viewer}
	visible := view.SortByDate(composer.Visible(e.calendar, e.active, r))

	// The proposals pane keeps the people and category dimensions of the
	// active filter but always shows proposals, unbounded by the calendar
	// window.
	propFilter := e.active
	propFilter.Statuses = view.Statuses{Proposed: true}
	props := view.SortByDate(composer.Visible(e.proposals, propFilter, nil))

	return Snapshot{
		Trip:      e.trip,
		Filter:    cloneStored(e.stored),
		View:      e.mode,
		Calendar:  e.itemsLocked(visible, now),
		Proposals: e.itemsLocked(props, now),
	}
}

func (e *Engine) itemsLocked(acts []domain.Activity, now time.Time) []Item {
	out := make([]Item, 0, len(acts))
	for _, a := range acts {
		cls := domain.Classify(a, e.viewer)
		status, hasInvite := domain.StatusFor(a, e.viewer)
		if !hasInvite {
			status = domain.InviteStatusPending
		}
		out = append(out, Item{
			Activity:     a.Clone(),
			PrimaryDate:  domain.PrimaryDate(a),
			Category:     cls.Category,
			Personal:     cls.Personal,
			ViewerStatus: status,
			HasInvite:    hasInvite,
			Allowed:      domain.AllowedActions(a, e.viewer, now),
			InFlight:     e.inflight[a.ID] > 0,
		})
	}
	return out
}
