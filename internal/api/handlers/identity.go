package handlers

import (
	"context"
	"net/http"
	"slices"
	"strings"
)

// Headers set by the upstream auth gateway. The service trusts them as is.
const (
	HeaderOrganizationID = "X-Organization-ID"
	HeaderUserID         = "X-User-ID"
	HeaderUserRole       = "X-User-Role"
)

const (
	RoleCourier = "courier"
	RoleManager = "manager"
	RoleOwner   = "owner"
)

type Identity struct {
	OrganizationID string
	UserID         string
	Role           string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller resolved by RequireRole.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// RequireRole rejects requests without a complete identity (401) or whose
// role is not one of roles (403).
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Identity{
				OrganizationID: strings.TrimSpace(r.Header.Get(HeaderOrganizationID)),
				UserID:         strings.TrimSpace(r.Header.Get(HeaderUserID)),
				Role:           strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole))),
			}
			if id.OrganizationID == "" || id.UserID == "" || id.Role == "" {
				writeError(w, r, http.StatusUnauthorized, "missing identity")
				return
			}
			if !slices.Contains(roles, id.Role) {
				writeError(w, r, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
