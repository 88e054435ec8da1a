package domain

import "time"

// Trip is the domain representation of a trip. Activities hang off a trip
// and borrow its dates when they have none of their own.
type Trip struct {
	ID          TripID
	Name        string
	Destination *string

	StartDate *time.Time // date-only semantics at the edges
	EndDate   *time.Time // date-only semantics at the edges

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FallbackDate is the trip-level date substituted for an undated proposal
// when a calendar view needs a day to place it on: the start date when set,
// otherwise the end date, otherwise nil. It is only ever used for day
// matching, never for sorting.
func FallbackDate(t Trip) *time.Time {
	switch {
	case t.StartDate != nil:
		d := *t.StartDate
		return &d
	case t.EndDate != nil:
		d := *t.EndDate
		return &d
	default:
		return nil
	}
}
