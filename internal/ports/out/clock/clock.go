package clock

import "time"

// Clock provides time to the application. Past checks, RSVP close
// enforcement, and record stamping all go through it so tests can hold the
// clock still.
type Clock interface {
	Now() time.Time
}
