package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role is the side of the marketplace a caller acts for.
type Role string

const (
	RoleVendor Role = "vendor"
	RoleCouple Role = "couple"
)

func (r Role) Valid() bool { return r == RoleVendor || r == RoleCouple }

// Principal is the resolved caller of a request.
type Principal struct {
	Role Role      `json:"role"`
	ID   uuid.UUID `json:"id"`
}

func (p Principal) IsVendor() bool { return p.Role == RoleVendor }
func (p Principal) IsCouple() bool { return p.Role == RoleCouple }

// Resolver turns a bearer token into a principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Principal, error)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal set by Middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
