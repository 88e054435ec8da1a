package domain

import "time"

// ApplyAction maps an RSVP action onto the status it produces. The mapping
// is flat: the participant's current status never changes the result. ok is
// false only for an action outside the known set.
func ApplyAction(action RSVPAction) (InviteStatus, bool) {
	switch action {
	case RSVPActionAccept:
		return InviteStatusAccepted, true
	case RSVPActionDecline:
		return InviteStatusDeclined, true
	case RSVPActionWaitlist:
		return InviteStatusWaitlisted, true
	case RSVPActionMaybe:
		return InviteStatusPending, true
	}
	return "", false
}

// CapacityFull reports whether an activity has no seats left: it is a real
// scheduled activity with a capacity set and at least that many accepted
// invites. Proposals never fill; reactions are not attendance.
func CapacityFull(a Activity) bool {
	return a.Kind != ActivityKindPropose && a.MaxCapacity != nil && a.Counts.Accepted >= *a.MaxCapacity
}

// EffectiveAction resolves the toggle semantics of proposal reactions.
// Pressing the reaction a participant already holds withdraws it, so ACCEPT
// on an already-accepted proposal (or DECLINE on a declined one) becomes
// MAYBE. Scheduled activities pass actions through untouched.
func EffectiveAction(a Activity, viewer UserID, action RSVPAction) RSVPAction {
	if a.Kind != ActivityKindPropose {
		return action
	}
	status, ok := StatusFor(a, viewer)
	if !ok {
		return action
	}
	if action == RSVPActionAccept && status == InviteStatusAccepted {
		return RSVPActionMaybe
	}
	if action == RSVPActionDecline && status == InviteStatusDeclined {
		return RSVPActionMaybe
	}
	return action
}

// AllowedActions lists the actions worth offering the viewer on an
// activity. Past or locked activities offer nothing. Proposals always offer
// both reactions since each doubles as its own withdraw toggle. For
// scheduled activities the action that would reproduce the viewer's current
// status is dropped, and when capacity is full ACCEPT is replaced by
// WAITLIST (or dropped outright for someone already waitlisted).
func AllowedActions(a Activity, viewer UserID, now time.Time) []RSVPAction {
	if IsPast(a, now) || RSVPClosed(a, now) {
		return nil
	}
	if a.Kind == ActivityKindPropose {
		return []RSVPAction{RSVPActionAccept, RSVPActionDecline}
	}

	current, hasInvite := StatusFor(a, viewer)
	full := CapacityFull(a)

	var out []RSVPAction
	for _, action := range []RSVPAction{RSVPActionAccept, RSVPActionDecline, RSVPActionMaybe} {
		target, _ := ApplyAction(action)
		if hasInvite && target == current {
			continue
		}
		if action == RSVPActionAccept && full {
			if current == InviteStatusWaitlisted {
				continue
			}
			action = RSVPActionWaitlist
		}
		out = append(out, action)
	}
	return out
}
