package wire

import (
	"strings"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/tripsync/planner/internal/domain"
)

// Activity is the wire shape of an activity record across every schema
// generation the dashboard has seen. Modern servers emit a subset of these
// fields; Normalize folds whichever combination arrives into the one
// canonical domain record.
type Activity struct {
	ID     int64 `json:"id"`
	TripID int64 `json:"tripId,omitempty"`

	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`

	Category *string `json:"category,omitempty"`

	Kind string `json:"kind,omitempty"`
	// Type is the pre-rename spelling of Kind.
	Type *string `json:"type,omitempty"`

	StartTime     *FlexTime  `json:"startTime,omitempty"`
	EndTime       *FlexTime  `json:"endTime,omitempty"`
	TimeOptions   []FlexTime `json:"timeOptions,omitempty"`
	RSVPCloseTime *FlexTime  `json:"rsvpCloseTime,omitempty"`

	MaxCapacity nullable.Nullable[int] `json:"maxCapacity,omitempty"`

	PostedBy nullable.Nullable[int64] `json:"postedBy,omitempty"`
	Poster   *User                    `json:"poster,omitempty"`

	Visibility nullable.Nullable[string] `json:"visibility,omitempty"`
	Shared     nullable.Nullable[bool]   `json:"shared,omitempty"`

	Invites []Invite `json:"invites,omitempty"`

	AcceptedCount   nullable.Nullable[int] `json:"acceptedCount,omitempty"`
	PendingCount    nullable.Nullable[int] `json:"pendingCount,omitempty"`
	DeclinedCount   nullable.Nullable[int] `json:"declinedCount,omitempty"`
	WaitlistedCount nullable.Nullable[int] `json:"waitlistedCount,omitempty"`

	CreatedAt *FlexTime `json:"createdAt,omitempty"`
	UpdatedAt *FlexTime `json:"updatedAt,omitempty"`
}

// Invite is the wire shape of one participant's RSVP record.
type Invite struct {
	UserID    int64     `json:"userId,omitempty"`
	User      *User     `json:"user,omitempty"`
	Status    string    `json:"status,omitempty"`
	UpdatedAt *FlexTime `json:"updatedAt,omitempty"`
}

// User is the profile summary attached to invites and posters.
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	// Name is the pre-rename spelling of DisplayName.
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Normalize maps any historical activity shape onto the canonical record.
// It never fails: unparsable fields degrade to their absent form.
func (w Activity) Normalize() domain.Activity {
	a := domain.Activity{
		ID:     domain.ActivityID(w.ID),
		TripID: domain.TripID(w.TripID),

		Name:        strings.TrimSpace(w.Name),
		Description: optText(w.Description),
		Location:    optText(w.Location),

		CategoryHint: optText(w.Category),

		StartTime:     w.StartTime.TimePtr(),
		EndTime:       w.EndTime.TimePtr(),
		RSVPCloseTime: w.RSVPCloseTime.TimePtr(),

		MaxCapacity: fromNullable(w.MaxCapacity),

		CreatorID: w.creatorID(),

		Visibility: fromNullable(w.Visibility),
		Shared:     fromNullable(w.Shared),
	}

	for _, opt := range w.TimeOptions {
		if opt.Valid {
			a.TimeOptions = append(a.TimeOptions, opt.Time)
		}
	}

	a.Kind = w.kind(len(a.TimeOptions) > 0, a.StartTime != nil)

	seen := make(map[domain.UserID]bool, len(w.Invites))
	for _, wi := range w.Invites {
		inv, ok := wi.normalize()
		if !ok || seen[inv.UserID] {
			continue
		}
		seen[inv.UserID] = true
		a.Invites = append(a.Invites, inv)
	}

	a.Counts = w.counts(a.Invites)

	if t := w.CreatedAt.TimePtr(); t != nil {
		a.CreatedAt = *t
	}
	if t := w.UpdatedAt.TimePtr(); t != nil {
		a.UpdatedAt = *t
	}
	return a
}

// creatorID reconciles the two historical creator encodings: the bare
// postedBy id wins, then the poster object's id, then unknown.
func (w Activity) creatorID() domain.UserID {
	if id := fromNullable(w.PostedBy); id != nil {
		return domain.UserID(*id)
	}
	if w.Poster != nil {
		return domain.UserID(w.Poster.ID)
	}
	return 0
}

func (w Activity) kind(hasOptions, hasStart bool) domain.ActivityKind {
	raw := w.Kind
	if raw == "" && w.Type != nil {
		raw = *w.Type
	}
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SCHEDULED":
		return domain.ActivityKindScheduled
	case "PROPOSE", "PROPOSAL":
		return domain.ActivityKindPropose
	}
	// Records that predate the kind field: candidate times without a
	// committed start read as a proposal.
	if hasOptions && !hasStart {
		return domain.ActivityKindPropose
	}
	return domain.ActivityKindScheduled
}

// counts prefers the server's precomputed totals field by field and derives
// the rest from the invite list.
func (w Activity) counts(invites []domain.Invite) domain.InviteCounts {
	c := domain.CountInvites(invites)
	if v := fromNullable(w.AcceptedCount); v != nil {
		c.Accepted = *v
	}
	if v := fromNullable(w.PendingCount); v != nil {
		c.Pending = *v
	}
	if v := fromNullable(w.DeclinedCount); v != nil {
		c.Declined = *v
	}
	if v := fromNullable(w.WaitlistedCount); v != nil {
		c.Waitlisted = *v
	}
	return c
}

func (wi Invite) normalize() (domain.Invite, bool) {
	id := wi.UserID
	if id == 0 && wi.User != nil {
		id = wi.User.ID
	}
	if id == 0 {
		return domain.Invite{}, false
	}

	inv := domain.Invite{UserID: domain.UserID(id), Status: parseStatus(wi.Status)}
	if wi.User != nil {
		inv.User = wi.User.summary()
	}
	if t := wi.UpdatedAt.TimePtr(); t != nil {
		inv.UpdatedAt = *t
	}
	return inv, true
}

// parseStatus reads an invite status, degrading unknown values to pending,
// the zero state of a participant.
func parseStatus(s string) domain.InviteStatus {
	switch domain.InviteStatus(strings.ToLower(strings.TrimSpace(s))) {
	case domain.InviteStatusAccepted:
		return domain.InviteStatusAccepted
	case domain.InviteStatusDeclined:
		return domain.InviteStatusDeclined
	case domain.InviteStatusWaitlisted:
		return domain.InviteStatusWaitlisted
	default:
		return domain.InviteStatusPending
	}
}

func (u User) summary() *domain.UserSummary {
	name := u.DisplayName
	if name == "" {
		name = u.Name
	}
	return &domain.UserSummary{ID: domain.UserID(u.ID), DisplayName: name, Email: u.Email}
}

// FromDomain renders the modern wire shape of a canonical record. Legacy
// aliases are never emitted; counts always are.
func FromDomain(a domain.Activity) Activity {
	w := Activity{
		ID:     int64(a.ID),
		TripID: int64(a.TripID),

		Name:        a.Name,
		Description: a.Description,
		Location:    a.Location,

		Category: a.CategoryHint,
		Kind:     string(a.Kind),

		StartTime:     flexPtr(a.StartTime),
		EndTime:       flexPtr(a.EndTime),
		RSVPCloseTime: flexPtr(a.RSVPCloseTime),

		MaxCapacity: toNullable(a.MaxCapacity),

		Visibility: toNullable(a.Visibility),
		Shared:     toNullable(a.Shared),
	}

	if !a.CreatedAt.IsZero() {
		w.CreatedAt = flexPtr(&a.CreatedAt)
	}
	if !a.UpdatedAt.IsZero() {
		w.UpdatedAt = flexPtr(&a.UpdatedAt)
	}

	if a.CreatorID != 0 {
		w.PostedBy.Set(int64(a.CreatorID))
	}

	for _, opt := range a.TimeOptions {
		w.TimeOptions = append(w.TimeOptions, NewFlexTime(opt))
	}

	for _, inv := range a.Invites {
		wi := Invite{UserID: int64(inv.UserID), Status: string(inv.Status)}
		if inv.User != nil {
			wi.User = &User{ID: int64(inv.User.ID), DisplayName: inv.User.DisplayName, Email: inv.User.Email}
		}
		if !inv.UpdatedAt.IsZero() {
			wi.UpdatedAt = flexPtr(&inv.UpdatedAt)
		}
		w.Invites = append(w.Invites, wi)
	}

	w.AcceptedCount.Set(a.Counts.Accepted)
	w.PendingCount.Set(a.Counts.Pending)
	w.DeclinedCount.Set(a.Counts.Declined)
	w.WaitlistedCount.Set(a.Counts.Waitlisted)
	return w
}

func optText(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}

func flexPtr(t *time.Time) *FlexTime {
	if t == nil {
		return nil
	}
	f := NewFlexTime(*t)
	return &f
}

func fromNullable[T any](n nullable.Nullable[T]) *T {
	if !n.IsSpecified() || n.IsNull() {
		return nil
	}
	v := n.MustGet()
	return &v
}

func toNullable[T any](p *T) nullable.Nullable[T] {
	var n nullable.Nullable[T]
	if p != nil {
		n.Set(*p)
	}
	return n
}
