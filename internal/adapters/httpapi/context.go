package httpapi

import (
	"context"

	"github.com/tripsync/planner/internal/domain"
)

type userKey struct{}

func WithUser(ctx context.Context, id domain.UserID) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

func UserFromContext(ctx context.Context) (domain.UserID, bool) {
	v, ok := ctx.Value(userKey{}).(domain.UserID)
	return v, ok && v != 0
}
