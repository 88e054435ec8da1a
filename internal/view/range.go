// Package view composes the visible activity list for a calendar view:
// person, category, status, and date-range predicates ANDed over the
// activity list, plus the persisted filter selection those predicates are
// built from.
package view

import "time"

// ViewMode selects how much of the calendar a range spans.
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
	// ViewList shows everything; it carries no date range at all.
	ViewList ViewMode = "list"
)

func (m ViewMode) Valid() bool {
	switch m {
	case ViewDay, ViewWeek, ViewMonth, ViewList:
		return true
	}
	return false
}

// DateRange is an inclusive calendar window. Start and End are midnights of
// the first and last day; Contains treats anything on a boundary day as
// inside, so the midnight encoding never clips the last day's evening.
// Fallback is the trip-level date substituted for undated proposals.
type DateRange struct {
	Start time.Time
	End   time.Time

	Fallback *time.Time
}

// Contains reports whether an instant falls inside the window.
func (r DateRange) Contains(t time.Time) bool {
	if !t.Before(r.Start) && !t.After(r.End) {
		return true
	}
	return sameDay(t, r.Start) || sameDay(t, r.End)
}

// RangeForView builds the window for a view mode around an anchor instant,
// in the anchor's location. Weeks run Monday through Sunday. List mode has
// no window and returns nil.
func RangeForView(mode ViewMode, anchor time.Time) *DateRange {
	day := midnight(anchor)
	switch mode {
	case ViewDay:
		return &DateRange{Start: day, End: day}
	case ViewWeek:
		monday := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
		return &DateRange{Start: monday, End: monday.AddDate(0, 0, 6)}
	case ViewMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return &DateRange{Start: first, End: first.AddDate(0, 1, -1)}
	default:
		return nil
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
