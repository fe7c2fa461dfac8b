package httpapi

import (
	"context"

	"blog/backend/internal/model"
)

type ctxKey string

// ctxIdentityKey carries the caller resolved for the request.
const ctxIdentityKey ctxKey = "identity"

func withIdentity(ctx context.Context, id *model.Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

// IdentityFrom returns the caller of the request, nil when anonymous.
func IdentityFrom(ctx context.Context) *model.Identity {
	id, _ := ctx.Value(ctxIdentityKey).(*model.Identity)
	return id
}
