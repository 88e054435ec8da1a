package domain

import "time"

// Member is the domain representation of a member profile.
type Member struct {
	ID UserID

	DisplayName string
	Email       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary reduces a member to the profile fields embedded in invite payloads.
func (m Member) Summary() UserSummary {
	return UserSummary{ID: m.ID, DisplayName: m.DisplayName, Email: m.Email}
}
