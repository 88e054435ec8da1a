package memberrepo

import (
	"context"

	"github.com/tripsync/planner/internal/domain"
)

// Repository provides access to persisted members. The canonical
// domain.Member record doubles as the persistence shape.
//
// Result ordering expectations:
//   - List returns members ordered by DisplayName ascending, ID as
//     tiebreak, to keep behavior deterministic.
type Repository interface {
	// Create persists a new member and returns the assigned id. A zero
	// m.ID asks the store to assign the next one. ErrEmailTaken if the
	// email is already bound, case-insensitively.
	Create(ctx context.Context, m domain.Member) (domain.UserID, error)

	GetByID(ctx context.Context, id domain.UserID) (domain.Member, error)

	List(ctx context.Context) ([]domain.Member, error)
}
