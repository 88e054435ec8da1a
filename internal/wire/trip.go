package wire

import (
	"time"

	"github.com/oapi-codegen/runtime/types"

	"github.com/tripsync/planner/internal/domain"
)

// Trip is the wire shape of a trip summary. Trip dates are date-only on the
// wire; the engine only ever uses them as fallback days for undated
// proposals.
type Trip struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Destination *string `json:"destination,omitempty"`

	StartDate *types.Date `json:"startDate,omitempty"`
	EndDate   *types.Date `json:"endDate,omitempty"`

	CreatedAt *FlexTime `json:"createdAt,omitempty"`
	UpdatedAt *FlexTime `json:"updatedAt,omitempty"`
}

func (w Trip) Normalize() domain.Trip {
	t := domain.Trip{
		ID:          domain.TripID(w.ID),
		Name:        w.Name,
		Destination: optText(w.Destination),
		StartDate:   dayPtr(w.StartDate),
		EndDate:     dayPtr(w.EndDate),
	}
	if at := w.CreatedAt.TimePtr(); at != nil {
		t.CreatedAt = *at
	}
	if at := w.UpdatedAt.TimePtr(); at != nil {
		t.UpdatedAt = *at
	}
	return t
}

func TripFromDomain(t domain.Trip) Trip {
	w := Trip{
		ID:          int64(t.ID),
		Name:        t.Name,
		Destination: t.Destination,
		StartDate:   datePtr(t.StartDate),
		EndDate:     datePtr(t.EndDate),
	}
	if !t.CreatedAt.IsZero() {
		w.CreatedAt = flexPtr(&t.CreatedAt)
	}
	if !t.UpdatedAt.IsZero() {
		w.UpdatedAt = flexPtr(&t.UpdatedAt)
	}
	return w
}

func dayPtr(d *types.Date) *time.Time {
	if d == nil {
		return nil
	}
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

func datePtr(t *time.Time) *types.Date {
	if t == nil {
		return nil
	}
	return &types.Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}
