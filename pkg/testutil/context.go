package testutil

import (
	"net/http"

	"podium/internal/identity"
	"podium/pkg/domain"
)

// WithPrincipal attaches an authenticated principal to the request context,
// simulating what the auth middleware does for a valid bearer token.
// An invalid id leaves the request unchanged.
func WithPrincipal(req *http.Request, principalID string) *http.Request {
	id, err := domain.ParsePrincipalID(principalID)
	if err != nil {
		return req
	}
	p, err := identity.NewAuthenticated(id)
	if err != nil {
		return req
	}
	return req.WithContext(identity.ContextWithPrincipal(req.Context(), p))
}

// AsPrincipal attaches an already-constructed principal to the request context.
func AsPrincipal(req *http.Request, p identity.Principal) *http.Request {
	return req.WithContext(identity.ContextWithPrincipal(req.Context(), p))
}
