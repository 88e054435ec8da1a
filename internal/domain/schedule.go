package domain

import "time"

// PrimaryDate is the single instant used to sort an activity and place it on
// a day: the start time when present, otherwise the first time option. Nil
// means the activity is undated.
func PrimaryDate(a Activity) *time.Time {
	if a.StartTime != nil {
		t := *a.StartTime
		return &t
	}
	if len(a.TimeOptions) > 0 {
		t := a.TimeOptions[0]
		return &t
	}
	return nil
}

// DateCandidates lists every instant an activity could occur on: the primary
// date first, then the remaining time options in listed order. Duplicate
// instants collapse to one candidate. An undated activity has none.
func DateCandidates(a Activity) []time.Time {
	primary := PrimaryDate(a)
	if primary == nil {
		return nil
	}
	out := []time.Time{*primary}
	for _, opt := range a.TimeOptions {
		if !containsInstant(out, opt) {
			out = append(out, opt)
		}
	}
	return out
}

// CandidatesWithFallback is DateCandidates with a trip-level fallback date
// substituted for an undated proposal. The fallback exists so a proposal
// still lands on a calendar day; it never applies to scheduled activities
// and never becomes the primary date.
func CandidatesWithFallback(a Activity, fallback *time.Time) []time.Time {
	if out := DateCandidates(a); len(out) > 0 {
		return out
	}
	if a.Kind == ActivityKindPropose && fallback != nil {
		return []time.Time{*fallback}
	}
	return nil
}

// ComparisonPoint is the instant used to decide whether an activity is over:
// the end time when present, otherwise the primary date.
func ComparisonPoint(a Activity) *time.Time {
	if a.EndTime != nil {
		t := *a.EndTime
		return &t
	}
	return PrimaryDate(a)
}

// IsPast reports whether an activity's comparison point is strictly before
// now. An undated activity is never past.
func IsPast(a Activity, now time.Time) bool {
	cp := ComparisonPoint(a)
	return cp != nil && cp.Before(now)
}

// RSVPClosed reports whether the response window has passed. Activities
// without a close time never lock.
func RSVPClosed(a Activity, now time.Time) bool {
	return a.RSVPCloseTime != nil && now.After(*a.RSVPCloseTime)
}

func containsInstant(ts []time.Time, t time.Time) bool {
	for _, have := range ts {
		if have.Equal(t) {
			return true
		}
	}
	return false
}
