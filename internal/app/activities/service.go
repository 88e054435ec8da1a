// Package activities implements the application service for scheduling
// activities inside a trip and recording who is coming.
//
// The service owns the write-side rules the dashboard relies on: who may
// see an activity, when responses lock, how capacity is enforced, and how
// a freed seat is handed to the waitlist. Read-side presentation (filters,
// grouping, date ranges) lives in the view package and stays out of here.
package activities

import (
	"context"
	"errors"
	"time"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ports/out/activityrepo"
	"github.com/tripsync/planner/internal/ports/out/clock"
	"github.com/tripsync/planner/internal/ports/out/memberrepo"
	"github.com/tripsync/planner/internal/ports/out/triprepo"
)

// CreateActivityInput carries the caller-supplied fields for a new activity.
// The creator and trip come from the request context, never from the body.
type CreateActivityInput struct {
	Name          string
	Description   *string
	Location      *string
	CategoryHint  *string
	Kind          domain.ActivityKind
	StartTime     *time.Time
	EndTime       *time.Time
	TimeOptions   []time.Time
	RSVPCloseTime *time.Time
	MaxCapacity   *int
	Visibility    *string
	Shared        *bool
	InviteUserIDs []domain.UserID
}

// ListInput narrows ListTripActivities. A nil Kind returns every kind.
type ListInput struct {
	Kind *domain.ActivityKind
}

type Service struct {
	activities activityrepo.Repository
	trips      triprepo.Repository
	members    memberrepo.Repository
	clk        clock.Clock
}

func NewService(activities activityrepo.Repository, trips triprepo.Repository, members memberrepo.Repository, clk clock.Clock) *Service {
	return &Service{
		activities: activities,
		trips:      trips,
		members:    members,
		clk:        clk,
	}
}

// ListTripActivities returns the trip's activities the caller is allowed to
// see, in the repository's date ordering. Personal activities belonging to
// other members are omitted rather than erred on, so the listing never
// reveals that they exist.
func (s *Service) ListTripActivities(ctx context.Context, caller domain.UserID, tripID domain.TripID, in ListInput) ([]domain.Activity, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return nil, &Error{Status: 404, Code: "TRIP_NOT_FOUND", Message: "trip not found"}
		}
		return nil, err
	}

	all, err := s.activities.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.Activity, 0, len(all))
	for _, a := range all {
		if in.Kind != nil && a.Kind != *in.Kind {
			continue
		}
		c := domain.Classify(a, caller)
		if c.Personal && !domain.PersonalVisibleTo(a, caller) {
			continue
		}
		visible = append(visible, a)
	}
	return visible, nil
}

// GetActivity loads one activity for the caller. Activities the caller may
// not see and activities addressed through the wrong trip both come back as
// ACTIVITY_NOT_FOUND.
func (s *Service) GetActivity(ctx context.Context, caller domain.UserID, tripID domain.TripID, activityID domain.ActivityID) (domain.Activity, error) {
	return s.loadVisible(ctx, caller, tripID, activityID)
}

// CreateActivity validates and stores a new activity with the caller as its
// creator. Invitees start out pending; the creator is not invited to their
// own activity unless listed explicitly.
func (s *Service) CreateActivity(ctx context.Context, caller domain.UserID, tripID domain.TripID, in CreateActivityInput) (domain.Activity, error) {
	if _, err := s.members.GetByID(ctx, caller); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Activity{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid caller"}
		}
		return domain.Activity{}, err
	}
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return domain.Activity{}, &Error{Status: 404, Code: "TRIP_NOT_FOUND", Message: "trip not found"}
		}
		return domain.Activity{}, err
	}

	name := domain.NormalizeHumanName(in.Name)
	if name == "" {
		return domain.Activity{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "name must not be empty",
			Details: map[string]any{"field": "name"},
		}
	}
	if !in.Kind.Valid() {
		return domain.Activity{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "kind must be SCHEDULED or PROPOSE",
			Details: map[string]any{"field": "kind"},
		}
	}
	if in.StartTime != nil && in.EndTime != nil && in.EndTime.Before(*in.StartTime) {
		return domain.Activity{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "endTime must not be before startTime",
			Details: map[string]any{"field": "endTime"},
		}
	}
	if in.MaxCapacity != nil {
		if *in.MaxCapacity < 1 {
			return domain.Activity{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "maxCapacity must be at least 1",
				Details: map[string]any{"field": "maxCapacity"},
			}
		}
		if in.Kind == domain.ActivityKindPropose {
			return domain.Activity{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "proposals cannot be capped",
				Details: map[string]any{"field": "maxCapacity"},
			}
		}
	}

	now := s.clk.Now().UTC()
	a := domain.Activity{
		TripID:        tripID,
		Name:          name,
		Description:   domain.NormalizeFreeText(in.Description),
		Location:      domain.NormalizeFreeText(in.Location),
		CategoryHint:  domain.NormalizeFreeText(in.CategoryHint),
		Kind:          in.Kind,
		StartTime:     cloneTimePtr(in.StartTime),
		EndTime:       cloneTimePtr(in.EndTime),
		TimeOptions:   append([]time.Time(nil), in.TimeOptions...),
		RSVPCloseTime: cloneTimePtr(in.RSVPCloseTime),
		MaxCapacity:   cloneIntPtr(in.MaxCapacity),
		CreatorID:     caller,
		Visibility:    domain.NormalizeFreeText(in.Visibility),
		Shared:        cloneBoolPtr(in.Shared),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	invites, err := s.buildInvites(ctx, in.InviteUserIDs, now)
	if err != nil {
		return domain.Activity{}, err
	}
	a.Invites = invites
	a.Counts = domain.CountInvites(invites)

	created, err := s.activities.Create(ctx, a)
	if err != nil {
		return domain.Activity{}, err
	}
	return created, nil
}

// CancelActivity deletes an activity. Only the creator may cancel; for
// anyone else the activity simply does not exist.
func (s *Service) CancelActivity(ctx context.Context, caller domain.UserID, tripID domain.TripID, activityID domain.ActivityID) error {
	a, err := s.loadVisible(ctx, caller, tripID, activityID)
	if err != nil {
		return err
	}
	if a.CreatorID == 0 || a.CreatorID != caller {
		return notFound()
	}
	if err := s.activities.Delete(ctx, activityID); err != nil {
		if errors.Is(err, activityrepo.ErrNotFound) {
			return notFound()
		}
		return err
	}
	return nil
}

// SetRSVP records the caller's response to an activity and returns the
// updated record. The action is applied literally; turning a repeated tap
// into a withdrawal is the dashboard's business, not the server's.
func (s *Service) SetRSVP(ctx context.Context, caller domain.UserID, tripID domain.TripID, activityID domain.ActivityID, action domain.RSVPAction) (domain.Activity, error) {
	if !action.Valid() {
		return domain.Activity{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "action must be ACCEPT, DECLINE, MAYBE or WAITLIST",
			Details: map[string]any{"field": "action"},
		}
	}

	a, err := s.loadVisible(ctx, caller, tripID, activityID)
	if err != nil {
		return domain.Activity{}, err
	}

	now := s.clk.Now()
	if domain.RSVPClosed(a, now) || domain.IsPast(a, now) {
		return domain.Activity{}, &Error{Status: 409, Code: "RSVP_CLOSED", Message: "responses are closed for this activity"}
	}

	current, _ := domain.StatusFor(a, caller)
	if action == domain.RSVPActionWaitlist {
		if a.Kind == domain.ActivityKindPropose || a.MaxCapacity == nil {
			return domain.Activity{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "this activity has no waitlist",
				Details: map[string]any{"field": "action"},
			}
		}
	}
	if action == domain.RSVPActionAccept && domain.CapacityFull(a) && current != domain.InviteStatusAccepted {
		return domain.Activity{}, &Error{Status: 409, Code: "CAPACITY_FULL", Message: "this activity is full"}
	}

	member, err := s.members.GetByID(ctx, caller)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Activity{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid caller"}
		}
		return domain.Activity{}, err
	}

	status, _ := domain.ApplyAction(action)
	profile := member.Summary()
	domain.SetInviteStatus(&a, caller, &profile, status, now.UTC())

	if current == domain.InviteStatusAccepted && status != domain.InviteStatusAccepted {
		promoteWaitlisted(&a, now.UTC())
	}

	a.Counts = domain.CountInvites(a.Invites)
	a.UpdatedAt = now.UTC()

	if err := s.activities.Save(ctx, a); err != nil {
		if errors.Is(err, activityrepo.ErrNotFound) {
			return domain.Activity{}, notFound()
		}
		return domain.Activity{}, err
	}
	return a, nil
}

// loadVisible fetches an activity and applies the same hiding rules as the
// listing: wrong trip, missing record and somebody else's personal item all
// collapse into the one 404.
func (s *Service) loadVisible(ctx context.Context, caller domain.UserID, tripID domain.TripID, activityID domain.ActivityID) (domain.Activity, error) {
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, activityrepo.ErrNotFound) {
			return domain.Activity{}, notFound()
		}
		return domain.Activity{}, err
	}
	if a.TripID != tripID {
		return domain.Activity{}, notFound()
	}
	c := domain.Classify(a, caller)
	if c.Personal && !domain.PersonalVisibleTo(a, caller) {
		return domain.Activity{}, notFound()
	}
	return a, nil
}

func (s *Service) buildInvites(ctx context.Context, userIDs []domain.UserID, at time.Time) ([]domain.Invite, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	invites := make([]domain.Invite, 0, len(userIDs))
	seen := make(map[domain.UserID]bool, len(userIDs))
	for _, id := range userIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		m, err := s.members.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, memberrepo.ErrNotFound) {
				return nil, &Error{
					Status:  422,
					Code:    "VALIDATION_ERROR",
					Message: "invitee is not a known member",
					Details: map[string]any{"field": "inviteUserIds", "userId": int64(id)},
				}
			}
			return nil, err
		}
		profile := m.Summary()
		invites = append(invites, domain.Invite{
			UserID:    id,
			User:      &profile,
			Status:    domain.InviteStatusPending,
			UpdatedAt: at,
		})
	}
	if len(invites) == 0 {
		return nil, nil
	}
	return invites, nil
}

// promoteWaitlisted fills free seats from the waitlist in invite order,
// which is creation order, so the longest-waiting member gets the seat.
func promoteWaitlisted(a *domain.Activity, at time.Time) {
	if a.MaxCapacity == nil || a.Kind == domain.ActivityKindPropose {
		return
	}
	for i := range a.Invites {
		if a.Counts.Accepted >= *a.MaxCapacity {
			return
		}
		if a.Invites[i].Status != domain.InviteStatusWaitlisted {
			continue
		}
		a.Invites[i].Status = domain.InviteStatusAccepted
		a.Invites[i].UpdatedAt = at
		a.Counts.Waitlisted--
		a.Counts.Accepted++
	}
}

func notFound() *Error {
	return &Error{Status: 404, Code: "ACTIVITY_NOT_FOUND", Message: "activity not found"}
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneIntPtr(n *int) *int {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

func cloneBoolPtr(b *bool) *bool {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
