package shared

import (
	"context"
	"time"
)

// Clock supplies the current time to use cases.
type Clock interface {
	Now() time.Time
}

// CurrentUser resolves the acting principal.
type CurrentUser interface {
	UserID(ctx context.Context) (ID, error)
}

// CurrentUserFunc adapts a function to CurrentUser.
type CurrentUserFunc func(ctx context.Context) (ID, error)

// UserID implements CurrentUser.
func (f CurrentUserFunc) UserID(ctx context.Context) (ID, error) {
	return f(ctx)
}

type userCtxKey struct{}

// WithUserID attaches the acting user to ctx.
func WithUserID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, userCtxKey{}, id)
}

// ContextUser resolves the user stored by WithUserID.
var ContextUser CurrentUser = CurrentUserFunc(func(ctx context.Context) (ID, error) {
	id, ok := ctx.Value(userCtxKey{}).(ID)
	if !ok || id == NilID {
		return NilID, NewDomainError("shared", "CurrentUser", ErrUnauthorized, "no user in context")
	}
	return id, nil
})
