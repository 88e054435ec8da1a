package view

import (
	"strconv"

	"github.com/tripsync/planner/internal/domain"
)

// People sentinels as they persist. "me" is stored symbolically so the
// selection survives account switches.
const (
	TokenEveryone = "everyone"
	TokenMe       = "me"
)

// Stored is the persisted form of a filter selection, one record per trip.
// Values are plain tokens so any schema generation can read them; unknown
// tokens are dropped on load rather than failing.
type Stored struct {
	People     []string `json:"people"`
	Categories []string `json:"categories"`
	Statuses   []string `json:"statuses"`
}

// Default is the documented out-of-the-box selection: every category on,
// scheduled activities only, everyone.
func Default() Stored {
	return Stored{
		People: []string{TokenEveryone},
		Categories: []string{
			string(domain.CategoryFlights),
			string(domain.CategoryHotels),
			string(domain.CategoryRestaurants),
			string(domain.CategoryActivities),
			string(domain.CategoryPersonal),
		},
		Statuses: []string{"scheduled"},
	}
}

// Runtime resolves a stored selection against the current viewer. Sentinels
// become concrete ids, unknown tokens vanish, and a dimension that is
// absent altogether (nil, as when older state predates it) falls back to
// its default. An explicitly empty list is honored as "none selected".
func (s Stored) Runtime(viewer domain.UserID) Filter {
	if s.People == nil {
		s.People = Default().People
	}
	if s.Categories == nil {
		s.Categories = Default().Categories
	}
	if s.Statuses == nil {
		s.Statuses = Default().Statuses
	}

	var f Filter
	for _, tok := range s.People {
		switch tok {
		case TokenEveryone:
			f.People.Everyone = true
		case TokenMe:
			if viewer != 0 {
				f.People.IDs = append(f.People.IDs, viewer)
			}
		default:
			if id, err := strconv.ParseInt(tok, 10, 64); err == nil && id > 0 {
				f.People.IDs = append(f.People.IDs, domain.UserID(id))
			}
		}
	}

	f.Categories = make(map[domain.Category]bool, len(s.Categories))
	for _, tok := range s.Categories {
		switch c := domain.Category(tok); c {
		case domain.CategoryFlights, domain.CategoryHotels, domain.CategoryRestaurants,
			domain.CategoryActivities, domain.CategoryPersonal:
			f.Categories[c] = true
		}
	}

	for _, tok := range s.Statuses {
		switch tok {
		case "scheduled":
			f.Statuses.Scheduled = true
		case "proposed":
			f.Statuses.Proposed = true
		}
	}
	return f
}
