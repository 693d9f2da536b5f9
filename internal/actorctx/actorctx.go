// Package actorctx carries the authenticated identity on a context.Context so
// code below the HTTP layer (logging, tracing) can see who is acting.
package actorctx

import (
	"context"

	"github.com/geocoder89/bloghub/internal/domain/user"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, id user.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (user.Identity, bool) {
	v, ok := ctx.Value(ctxKey{}).(user.Identity)

	return v, ok && !v.IsZero()
}

func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)

	return id.ID, ok
}
