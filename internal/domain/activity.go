package domain

import "time"

type ActivityKind string

const (
	// ActivityKindScheduled is an activity committed to a time.
	ActivityKindScheduled ActivityKind = "SCHEDULED"
	// ActivityKindPropose is a proposal still collecting reactions; it has
	// candidate time options instead of a committed start.
	ActivityKindPropose ActivityKind = "PROPOSE"
)

func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityKindScheduled, ActivityKindPropose:
		return true
	}
	return false
}

type InviteStatus string

const (
	InviteStatusAccepted   InviteStatus = "accepted"
	InviteStatusPending    InviteStatus = "pending"
	InviteStatusDeclined   InviteStatus = "declined"
	InviteStatusWaitlisted InviteStatus = "waitlisted"
)

func (s InviteStatus) Valid() bool {
	switch s {
	case InviteStatusAccepted, InviteStatusPending, InviteStatusDeclined, InviteStatusWaitlisted:
		return true
	}
	return false
}

type RSVPAction string

const (
	RSVPActionAccept   RSVPAction = "ACCEPT"
	RSVPActionDecline  RSVPAction = "DECLINE"
	RSVPActionWaitlist RSVPAction = "WAITLIST"
	RSVPActionMaybe    RSVPAction = "MAYBE"
)

func (a RSVPAction) Valid() bool {
	switch a {
	case RSVPActionAccept, RSVPActionDecline, RSVPActionWaitlist, RSVPActionMaybe:
		return true
	}
	return false
}

// Category is the derived calendar bucket for an activity. The stored
// category hint is free text; Category is what classification resolves it to.
type Category string

const (
	CategoryFlights     Category = "flights"
	CategoryHotels      Category = "hotels"
	CategoryRestaurants Category = "restaurants"
	CategoryActivities  Category = "activities"
	CategoryPersonal    Category = "personal"
)

// UserSummary is the profile slice carried alongside an invite.
type UserSummary struct {
	ID          UserID
	DisplayName string
	Email       string
}

// Invite is one participant's relationship to an activity. On a proposal the
// status is an up/down reaction rather than attendance.
type Invite struct {
	UserID UserID
	User   *UserSummary

	Status    InviteStatus
	UpdatedAt time.Time
}

// InviteCounts are per-status invite totals. They normally derive from the
// invite list, but records from older schema versions may ship precomputed
// totals without the list itself.
type InviteCounts struct {
	Accepted   int
	Pending    int
	Declined   int
	Waitlisted int
}

// CountInvites derives totals from an invite list.
func CountInvites(invites []Invite) InviteCounts {
	var c InviteCounts
	for _, inv := range invites {
		switch inv.Status {
		case InviteStatusAccepted:
			c.Accepted++
		case InviteStatusPending:
			c.Pending++
		case InviteStatusDeclined:
			c.Declined++
		case InviteStatusWaitlisted:
			c.Waitlisted++
		}
	}
	return c
}

// Activity is the canonical activity record. Upstream payloads come in
// several historical shapes; normalization maps them all onto this one and
// the rest of the engine never sees the variants.
type Activity struct {
	ID     ActivityID
	TripID TripID

	Name        string
	Description *string
	Location    *string

	// CategoryHint is the free-text category signal ("flight", "dining").
	// It is an input to classification, not a closed enum.
	CategoryHint *string

	Kind ActivityKind

	StartTime     *time.Time
	EndTime       *time.Time
	TimeOptions   []time.Time
	RSVPCloseTime *time.Time

	MaxCapacity *int

	CreatorID UserID

	// Visibility and Shared are explicit flags from newer schema versions.
	// Either or both may be absent, in which case visibility is inferred
	// from the invite list.
	Visibility *string
	Shared     *bool

	Invites []Invite
	Counts  InviteCounts

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone deep-copies the record. Stores and caches hand out clones so
// callers can mutate their copy without reaching into shared state.
func (a Activity) Clone() Activity {
	cp := a
	cp.Description = clonePtr(a.Description)
	cp.Location = clonePtr(a.Location)
	cp.CategoryHint = clonePtr(a.CategoryHint)
	cp.StartTime = clonePtr(a.StartTime)
	cp.EndTime = clonePtr(a.EndTime)
	cp.RSVPCloseTime = clonePtr(a.RSVPCloseTime)
	cp.MaxCapacity = clonePtr(a.MaxCapacity)
	cp.Visibility = clonePtr(a.Visibility)
	cp.Shared = clonePtr(a.Shared)
	if a.TimeOptions != nil {
		cp.TimeOptions = append([]time.Time(nil), a.TimeOptions...)
	}
	if a.Invites != nil {
		cp.Invites = make([]Invite, len(a.Invites))
		for i, inv := range a.Invites {
			ci := inv
			ci.User = clonePtr(inv.User)
			cp.Invites[i] = ci
		}
	}
	return cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// InviteFor returns the viewer's invite, if any. At most one invite exists
// per user.
func InviteFor(a Activity, user UserID) (Invite, bool) {
	for _, inv := range a.Invites {
		if inv.UserID == user {
			return inv, true
		}
	}
	return Invite{}, false
}

// StatusFor returns the viewer's invite status. ok is false when the viewer
// has no invite on the activity.
func StatusFor(a Activity, user UserID) (InviteStatus, bool) {
	inv, ok := InviteFor(a, user)
	if !ok {
		return "", false
	}
	return inv.Status, true
}

// SetInviteStatus upserts the invite for user and keeps Counts consistent.
// Existing invites keep their position; new ones append, so waitlist
// promotion order follows join order. Counts are adjusted incrementally
// rather than recounted because the invite list may be a partial view of a
// record whose totals were precomputed upstream.
func SetInviteStatus(a *Activity, user UserID, profile *UserSummary, status InviteStatus, at time.Time) {
	for i := range a.Invites {
		if a.Invites[i].UserID != user {
			continue
		}
		adjustCount(&a.Counts, a.Invites[i].Status, -1)
		adjustCount(&a.Counts, status, +1)
		a.Invites[i].Status = status
		a.Invites[i].UpdatedAt = at
		if profile != nil {
			a.Invites[i].User = profile
		}
		return
	}
	a.Invites = append(a.Invites, Invite{UserID: user, User: profile, Status: status, UpdatedAt: at})
	adjustCount(&a.Counts, status, +1)
}

func adjustCount(c *InviteCounts, status InviteStatus, delta int) {
	var n *int
	switch status {
	case InviteStatusAccepted:
		n = &c.Accepted
	case InviteStatusPending:
		n = &c.Pending
	case InviteStatusDeclined:
		n = &c.Declined
	case InviteStatusWaitlisted:
		n = &c.Waitlisted
	default:
		return
	}
	*n += delta
	if *n < 0 {
		*n = 0
	}
}
