package domain

import (
	"strings"
	"unicode"
)

// The activity schema went through several versions: the oldest records have
// only an invite list, later ones a shared flag, current ones an explicit
// visibility string. Inference checks newest to oldest so each generation of
// data degrades to the next older rule.

var personalVisibilities = map[string]bool{
	"private":  true,
	"personal": true,
	"me":       true,
}

var sharedVisibilities = map[string]bool{
	"trip":   true,
	"shared": true,
	"group":  true,
	"public": true,
}

var categoryTokens = map[string]Category{
	"flight":  CategoryFlights,
	"flights": CategoryFlights,
	"air":     CategoryFlights,
	"airport": CategoryFlights,

	"hotel":   CategoryHotels,
	"stay":    CategoryHotels,
	"lodging": CategoryHotels,
	"resort":  CategoryHotels,

	"restaurant": CategoryRestaurants,
	"food":       CategoryRestaurants,
	"dining":     CategoryRestaurants,
	"meal":       CategoryRestaurants,
	"brunch":     CategoryRestaurants,
}

// Classification is the derived calendar placement of an activity.
type Classification struct {
	Category Category
	Personal bool
}

// Classify derives the calendar category for a and whether it is personal to
// its creator rather than a group item.
func Classify(a Activity, viewer UserID) Classification {
	if isPersonal(a, viewer) {
		return Classification{Category: CategoryPersonal, Personal: true}
	}
	return Classification{Category: CategoryFromHint(a.CategoryHint)}
}

func isPersonal(a Activity, viewer UserID) bool {
	if a.Visibility != nil {
		v := strings.ToLower(strings.TrimSpace(*a.Visibility))
		if personalVisibilities[v] {
			return true
		}
		if sharedVisibilities[v] {
			return false
		}
	}
	if a.Shared != nil {
		return !*a.Shared
	}

	// Records that predate both flags: infer from the invite list. No
	// invites, or a single invite held by the creator, reads as a
	// note-to-self.
	switch {
	case len(a.Invites) == 0:
		return true
	case len(a.Invites) == 1 && a.Invites[0].UserID == a.CreatorID:
		return true
	}

	// A wider invite set reads as a group item whether or not the viewer is
	// on it, so the viewer does not change the outcome here today.
	return false
}

// SharedWithTrip reports whether a personally-classified activity was
// explicitly published to the group calendar: the shared flag is literally
// true, or the visibility string is one of the shared values. Inferred
// visibility never counts.
func SharedWithTrip(a Activity) bool {
	if a.Shared != nil && *a.Shared {
		return true
	}
	if a.Visibility != nil {
		return sharedVisibilities[strings.ToLower(strings.TrimSpace(*a.Visibility))]
	}
	return false
}

// PersonalVisibleTo reports whether the viewer should see a personal
// activity: their own always, anyone else's only when shared with the trip.
func PersonalVisibleTo(a Activity, viewer UserID) bool {
	if a.CreatorID != 0 && a.CreatorID == viewer {
		return true
	}
	return SharedWithTrip(a)
}

// CategoryFromHint buckets a free-text category hint. Hints are matched
// word by word so "Flight AA123" and "airport transfer" both land in
// flights; anything unrecognized is a plain activity.
func CategoryFromHint(hint *string) Category {
	if hint == nil {
		return CategoryActivities
	}
	words := strings.FieldsFunc(strings.ToLower(*hint), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if cat, ok := categoryTokens[w]; ok {
			return cat
		}
	}
	return CategoryActivities
}
