// Package dashboard runs the client side of the planner: it caches a trip's
// activity lists, composes the visible calendar through the view filters,
// and submits RSVP actions optimistically so the interface never waits on
// the network to acknowledge a tap.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tripsync/planner/internal/client"
	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ports/out/clock"
	"github.com/tripsync/planner/internal/ports/out/filterstore"
	platformclock "github.com/tripsync/planner/internal/platform/clock"
	"github.com/tripsync/planner/internal/view"
)

// ErrUnknownActivity reports a submit against an id no cached list holds.
var ErrUnknownActivity = errors.New("dashboard: activity not in any cached list")

// DefaultSettleDelay is how long filter changes coast before the composed
// list recomputes and the selection persists. Long enough to ride out a
// burst of checkbox toggling, short enough to feel immediate.
const DefaultSettleDelay = 250 * time.Millisecond

// API is the slice of the planner client the engine drives.
type API interface {
	ListActivities(ctx context.Context, tripID domain.TripID, kind *domain.ActivityKind) ([]domain.Activity, error)
	SetRSVP(ctx context.Context, tripID domain.TripID, activityID domain.ActivityID, action domain.RSVPAction, idempotencyKey string) (domain.Activity, error)
}

// Config wires an Engine. API, Viewer and Trip are required; everything
// else has a working default.
type Config struct {
	API    API
	Viewer domain.UserID
	Trip   domain.Trip

	// Filters persists the selection per trip. Nil keeps it in memory
	// only.
	Filters filterstore.Store
	Clock   clock.Clock

	// SettleDelay overrides DefaultSettleDelay. A negative value disables
	// the debounce entirely so changes settle synchronously.
	SettleDelay time.Duration

	// OnChange fires after anything that alters the composed view:
	// refreshes, optimistic applies, commits, rollbacks, removals, and
	// settled filter changes.
	OnChange func()
	// OnNotice receives user-facing events. Both callbacks run outside
	// the engine lock, so a handler may call straight back into the
	// engine.
	OnNotice func(Notice)
}

// Engine is the dashboard's state holder. One mutex guards the cached
// lists and filter state; network calls always happen outside it, so a
// slow server never blocks rendering.
type Engine struct {
	api    API
	viewer domain.UserID
	trip   domain.Trip
	store  filterstore.Store
	clk    clock.Clock

	onChange func()
	onNotice func(Notice)

	settle *debouncer

	mu        sync.Mutex
	calendar  []domain.Activity
	proposals []domain.Activity
	inflight  map[domain.ActivityID]int
	stored    view.Stored
	active    view.Filter
	mode      view.ViewMode
	anchor    time.Time
}

// NewEngine builds the engine and loads the trip's persisted filter
// selection. Missing or corrupt state falls back to the defaults without
// comment; a dashboard must come up even when its local state is gone.
func NewEngine(ctx context.Context, cfg Config) *Engine {
	e := &Engine{
		api:      cfg.API,
		viewer:   cfg.Viewer,
		trip:     cfg.Trip,
		store:    cfg.Filters,
		clk:      cfg.Clock,
		onChange: cfg.OnChange,
		onNotice: cfg.OnNotice,
		inflight: make(map[domain.ActivityID]int),
		mode:     view.ViewList,
	}
	if e.clk == nil {
		e.clk = platformclock.NewSystemClock()
	}

	delay := cfg.SettleDelay
	if delay == 0 {
		delay = DefaultSettleDelay
	}
	e.settle = newDebouncer(delay, e.settleFilter)

	e.stored = view.Default()
	if e.store != nil {
		if s, ok, err := e.store.Load(ctx, e.trip.ID); err == nil && ok {
			e.stored = s
		}
	}
	e.active = e.stored.Runtime(e.viewer)
	e.anchor = e.clk.Now()
	return e
}

// Close settles any pending filter change so the last selection persists,
// then stops the debounce timer.
func (e *Engine) Close() {
	e.settle.Flush()
	e.settle.Stop()
}

// Refresh replaces both cached lists wholesale from the API.
func (e *Engine) Refresh(ctx context.Context) error {
	scheduled, propose := domain.ActivityKindScheduled, domain.ActivityKindPropose
	cal, err := e.api.ListActivities(ctx, e.trip.ID, &scheduled)
	if err != nil {
		return e.fail(0, err)
	}
	props, err := e.api.ListActivities(ctx, e.trip.ID, &propose)
	if err != nil {
		return e.fail(0, err)
	}

	e.mu.Lock()
	e.calendar, e.proposals = cal, props
	e.mu.Unlock()
	e.changed()
	return nil
}

// SubmitRSVP runs one optimistic mutation attempt: predict the outcome,
// show it immediately, then reconcile with the server's answer.
//
// Each attempt snapshots only the one activity it touches, so attempts in
// flight together on different activities never disturb each other. On
// success the server's record replaces every cached copy; the optimistic
// guess is never trusted past the round trip, because waitlist promotion
// and counts are computed server-side.
func (e *Engine) SubmitRSVP(ctx context.Context, activityID domain.ActivityID, pressed domain.RSVPAction) error {
	e.mu.Lock()
	cached, ok := e.findLocked(activityID)
	if !ok {
		e.mu.Unlock()
		return ErrUnknownActivity
	}

	// Proposal reactions toggle, so resolve what the press means before
	// predicting anything.
	action := domain.EffectiveAction(cached, e.viewer, pressed)
	target, ok := domain.ApplyAction(action)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("dashboard: unknown action %q", pressed)
	}

	snap := e.snapshotLocked(activityID)
	now := e.clk.Now()
	e.applyLocked(activityID, func(a *domain.Activity) {
		domain.SetInviteStatus(a, e.viewer, nil, target, now)
	})
	e.inflight[activityID]++
	e.mu.Unlock()
	e.changed()

	updated, err := e.api.SetRSVP(ctx, e.trip.ID, activityID, action, uuid.NewString())

	e.mu.Lock()
	e.inflight[activityID]--
	if e.inflight[activityID] <= 0 {
		delete(e.inflight, activityID)
	}
	var notice *Notice
	if err == nil {
		e.replaceLocked(updated)
	} else {
		var apiErr *client.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.IsNotFound():
			// Cancelled out from under us. The cached record is what is
			// stale, not the rollback target; drop it instead of
			// restoring.
			e.removeLocked(activityID)
			notice = &Notice{Kind: NoticeActivityGone, ActivityID: activityID, Err: err}
		case errors.As(err, &apiErr) && apiErr.IsAuth():
			e.restoreLocked(snap)
			notice = &Notice{Kind: NoticeReauthRequired, ActivityID: activityID, Err: err}
		default:
			e.restoreLocked(snap)
			notice = &Notice{Kind: NoticeRSVPRejected, ActivityID: activityID, Err: err}
		}
	}
	e.mu.Unlock()

	if notice != nil {
		e.notify(*notice)
	}
	e.changed()
	return err
}

// SetFilter replaces the selection. The stored form updates at once, so
// controls render their new state immediately; the composed list and the
// persisted copy follow when the burst settles.
func (e *Engine) SetFilter(s view.Stored) {
	e.mu.Lock()
	e.stored = cloneStored(s)
	e.mu.Unlock()
	e.settle.Trigger()
}

// SetView switches the calendar window. View switches are single
// deliberate actions, not burst toggling, so they are not debounced.
func (e *Engine) SetView(mode view.ViewMode, anchor time.Time) {
	e.mu.Lock()
	e.mode, e.anchor = mode, anchor
	e.mu.Unlock()
	e.changed()
}

// settleFilter is the debounced tail of SetFilter: the selection becomes
// the one the composer sees, persists, and the host re-renders once.
func (e *Engine) settleFilter() {
	e.mu.Lock()
	e.active = e.stored.Runtime(e.viewer)
	stored := cloneStored(e.stored)
	e.mu.Unlock()

	if e.store != nil {
		// Best effort, like the browser storage this replaces: losing a
		// write costs the next session its memory of the selection and
		// nothing else.
		_ = e.store.Save(context.Background(), e.trip.ID, stored)
	}
	e.changed()
}

// fail surfaces the one cross-cutting failure mode of any API call: a dead
// session raises the reauth notice. Everything else just propagates.
func (e *Engine) fail(activityID domain.ActivityID, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.IsAuth() {
		e.notify(Notice{Kind: NoticeReauthRequired, ActivityID: activityID, Err: err})
	}
	return err
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

func (e *Engine) notify(n Notice) {
	if e.onNotice != nil {
		e.onNotice(n)
	}
}

// attemptSnapshot is one mutation's private copy of the touched activity,
// taken per cached list. A nil entry means that list did not hold the
// activity when the attempt began.
type attemptSnapshot struct {
	id     domain.ActivityID
	copies []*domain.Activity
}

// listsLocked enumerates the cached lists an activity may live in. Every
// cache walk goes through it so adding a list is a one-line change.
func (e *Engine) listsLocked() []*[]domain.Activity {
	return []*[]domain.Activity{&e.calendar, &e.proposals}
}

func (e *Engine) findLocked(id domain.ActivityID) (domain.Activity, bool) {
	for _, list := range e.listsLocked() {
		for _, a := range *list {
			if a.ID == id {
				return a, true
			}
		}
	}
	return domain.Activity{}, false
}

func (e *Engine) snapshotLocked(id domain.ActivityID) attemptSnapshot {
	snap := attemptSnapshot{id: id}
	for _, list := range e.listsLocked() {
		var cp *domain.Activity
		for _, a := range *list {
			if a.ID == id {
				c := a.Clone()
				cp = &c
				break
			}
		}
		snap.copies = append(snap.copies, cp)
	}
	return snap
}

// applyLocked rewrites every cached copy of one activity through fn,
// copy-on-write so snapshots taken beforehand stay intact.
func (e *Engine) applyLocked(id domain.ActivityID, fn func(*domain.Activity)) {
	for _, list := range e.listsLocked() {
		for i, a := range *list {
			if a.ID != id {
				continue
			}
			cp := a.Clone()
			fn(&cp)
			(*list)[i] = cp
		}
	}
}

// replaceLocked swaps the server's authoritative record into every list
// still holding the activity.
func (e *Engine) replaceLocked(a domain.Activity) {
	for _, list := range e.listsLocked() {
		for i, have := range *list {
			if have.ID == a.ID {
				(*list)[i] = a.Clone()
			}
		}
	}
}

// restoreLocked swaps an attempt's snapshot back in, by id and in place.
// Positions a wholesale refresh or a removal dropped meanwhile stay
// dropped; restoring never resurrects a record or reorders a list.
func (e *Engine) restoreLocked(snap attemptSnapshot) {
	for li, list := range e.listsLocked() {
		cp := snap.copies[li]
		if cp == nil {
			continue
		}
		for i, have := range *list {
			if have.ID == snap.id {
				(*list)[i] = cp.Clone()
			}
		}
	}
}

func (e *Engine) removeLocked(id domain.ActivityID) {
	for _, list := range e.listsLocked() {
		kept := (*list)[:0]
		for _, a := range *list {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		*list = kept
	}
}

func cloneStored(s view.Stored) view.Stored {
	return view.Stored{
		People:     append([]string(nil), s.People...),
		Categories: append([]string(nil), s.Categories...),
		Statuses:   append([]string(nil), s.Statuses...),
	}
}
