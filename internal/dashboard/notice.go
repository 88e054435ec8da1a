package dashboard

import "github.com/tripsync/planner/internal/domain"

// NoticeKind classifies the out-of-band events a host surfaces to the user.
type NoticeKind string

const (
	// NoticeRSVPRejected reports a submitted action the server refused.
	// The optimistic change has already been rolled back when this fires.
	NoticeRSVPRejected NoticeKind = "rsvp-rejected"

	// NoticeReauthRequired reports a dead session. The host should send
	// the user back through sign-in instead of retrying.
	NoticeReauthRequired NoticeKind = "reauth-required"

	// NoticeActivityGone reports an activity cancelled out from under the
	// dashboard. Its cached copies have already been dropped.
	NoticeActivityGone NoticeKind = "activity-gone"
)

// Notice is one user-facing event from the engine. Err carries the
// underlying cause, usually a *client.APIError.
type Notice struct {
	Kind       NoticeKind
	ActivityID domain.ActivityID
	Err        error
}
