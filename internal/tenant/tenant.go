// Package tenant carries the authenticated organization and user identity
// through a request. Identity arrives in trusted headers set by the fronting
// auth layer; nothing here re-derives or validates it.
package tenant

import (
	"context"
	"net/http"
)

// Header names populated by the auth layer.
const (
	HeaderOrganizationID = "X-Organization-ID"
	HeaderUserID         = "X-User-ID"
)

type contextKey int

const (
	orgKey contextKey = iota
	userKey
)

// Middleware pulls the tenant identity off the request headers and rejects
// requests that carry no organization.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := r.Header.Get(HeaderOrganizationID)
		if orgID == "" {
			http.Error(w, `{"error":"missing organization"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), orgKey, orgID)
		if userID := r.Header.Get(HeaderUserID); userID != "" {
			ctx = context.WithValue(ctx, userKey, userID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OrganizationID returns the organization for the request, or "".
func OrganizationID(ctx context.Context) string {
	v, _ := ctx.Value(orgKey).(string)
	return v
}

// UserID returns the user for the request, or "".
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userKey).(string)
	return v
}

// WithIdentity returns a context carrying the given identity. Used by the
// CLI and tests, which have no HTTP request to pull headers from.
func WithIdentity(ctx context.Context, orgID, userID string) context.Context {
	ctx = context.WithValue(ctx, orgKey, orgID)
	return context.WithValue(ctx, userKey, userID)
}
