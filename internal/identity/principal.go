// Package identity resolves the calling principal for every operation.
//
// Identity is always passed explicitly: services take a Principal parameter and
// middleware attaches one to the request context. Nothing in this package infers
// an identity from the absence of credentials; the development placeholder is an
// explicit, build-gated construction.
package identity

import (
	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
)

// Kind distinguishes how a principal was established.
type Kind string

const (
	// KindAuthenticated marks a principal backed by validated credentials.
	KindAuthenticated Kind = "authenticated"
	// KindDevelopmentPlaceholder marks the well-known zero identity used by
	// local development builds. Only constructible under the devauth build tag.
	KindDevelopmentPlaceholder Kind = "development_placeholder"
)

// Principal is the identity on whose behalf an operation is evaluated.
type Principal struct {
	ID   domain.PrincipalID
	Kind Kind
}

// NewAuthenticated constructs a principal from a validated identity.
func NewAuthenticated(id domain.PrincipalID) (Principal, error) {
	if id.IsZero() {
		return Principal{}, dErrors.New(dErrors.CodeUnauthorized, "authenticated principal requires a non-zero id")
	}
	return Principal{ID: id, Kind: KindAuthenticated}, nil
}

// NewDevelopmentPlaceholder constructs the zero-identity placeholder principal.
//
// Two gates must both be open: the binary must be compiled with the devauth
// build tag, and the development-mode configuration flag must be set. Production
// builds fail here regardless of configuration.
func NewDevelopmentPlaceholder(developmentMode bool) (Principal, error) {
	if !developmentPrincipalAllowed {
		return Principal{}, dErrors.New(dErrors.CodeUnauthorized, "development placeholder principal is compiled out of this build")
	}
	if !developmentMode {
		return Principal{}, dErrors.New(dErrors.CodeUnauthorized, "development mode is not enabled")
	}
	return Principal{ID: domain.PrincipalID{}, Kind: KindDevelopmentPlaceholder}, nil
}

// IsZero reports whether the principal is unset (no identity resolved).
func (p Principal) IsZero() bool { return p.Kind == "" }
