package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/mmynk/pocketledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// SessionKey is the context key for the validated session claims.
const SessionKey contextKey = "session"

// GetSession extracts the session claims from the context.
// Returns nil when the request was not authenticated, including when no
// password is configured.
func GetSession(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(SessionKey).(*auth.Claims)
	return claims
}

// RequireAuth returns a middleware that validates JWT tokens once the app is locked.
// While no password has been set the data is open and requests pass through.
func RequireAuth(jwtManager *auth.JWTManager, lock auth.Authenticator) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			locked, err := lock.IsSet(ctx)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnavailable, err)
			}
			if !locked {
				return next(ctx, req)
			}

			tokenString, err := bearerToken(req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			ctx = context.WithValue(ctx, SessionKey, claims)
			return next(ctx, req)
		}
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}
