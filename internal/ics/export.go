// Package ics renders a trip's activity list as an iCalendar feed, so the
// plan can be subscribed to from any calendar app.
package ics

import (
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/tripsync/planner/internal/domain"
)

// Export renders one VEVENT per dated activity. Undated activities are
// skipped; an event without a start renders at a meaningless position in
// every client. Proposals export as TENTATIVE on their primary candidate
// date.
func Export(trip domain.Trip, acts []domain.Activity) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//TripSync//Planner//EN")
	if trip.Name != "" {
		cal.SetXWRCalName(trip.Name)
	}

	for _, a := range acts {
		start := domain.PrimaryDate(a)
		if start == nil {
			continue
		}

		ev := cal.AddEvent(EventUID(a.ID))
		ev.SetDtStampTime(stampTime(a))
		ev.SetStartAt(start.UTC())
		if a.EndTime != nil {
			ev.SetEndAt(a.EndTime.UTC())
		}
		ev.SetSummary(a.Name)
		if a.Description != nil {
			ev.SetDescription(*a.Description)
		}
		if a.Location != nil {
			ev.SetLocation(*a.Location)
		}
		if a.Kind == domain.ActivityKindPropose {
			ev.SetStatus(ical.ObjectStatusTentative)
		} else {
			ev.SetStatus(ical.ObjectStatusConfirmed)
		}
	}

	return []byte(cal.Serialize()), nil
}

// EventUID is the stable per-activity identifier feeds carry, so a
// re-export updates events in place instead of duplicating them.
func EventUID(id domain.ActivityID) string {
	return "activity-" + strconv.FormatInt(int64(id), 10) + "@tripsync"
}

// stampTime picks the DTSTAMP for a record. Every VEVENT must carry one;
// the record's own timestamps keep exports reproducible, with the wall
// clock as the last resort for records that never got stamped.
func stampTime(a domain.Activity) time.Time {
	switch {
	case !a.UpdatedAt.IsZero():
		return a.UpdatedAt.UTC()
	case !a.CreatedAt.IsZero():
		return a.CreatedAt.UTC()
	default:
		return time.Now().UTC()
	}
}
