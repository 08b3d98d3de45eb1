package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"podium/internal/identity"
	"podium/internal/platform/token"
	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/httputil"
	"podium/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*token.Claims, error)
}

// ResolvePrincipal authenticates the request and attaches the resolved
// principal to the context. A valid bearer token yields an authenticated
// principal. Without credentials the request is rejected, unless development
// mode is enabled in a build that compiles the placeholder in; then the
// well-known placeholder principal is attached instead.
func ResolvePrincipal(validator TokenValidator, developmentMode bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "

			if after, ok := strings.CutPrefix(authHeader, bearerPrefix); ok {
				claims, err := validator.ValidateToken(after)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, err)
					return
				}
				principalID, err := domain.ParsePrincipalID(claims.PrincipalID)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access - malformed principal claim",
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims"))
					return
				}
				principal, err := identity.NewAuthenticated(principalID)
				if err != nil {
					httputil.WriteError(w, err)
					return
				}
				next.ServeHTTP(w, r.WithContext(identity.ContextWithPrincipal(ctx, principal)))
				return
			}

			principal, err := identity.NewDevelopmentPlaceholder(developmentMode)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.ContextWithPrincipal(ctx, principal)))
		})
	}
}
