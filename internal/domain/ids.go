package domain

// UserID is the internal identifier for a member account. Zero means the
// user is unknown; legacy activity records that predate creator tracking
// carry a zero creator.
type UserID int64

// TripID is the internal identifier for a trip record.
type TripID int64

// ActivityID is the internal identifier for an activity record.
type ActivityID int64
