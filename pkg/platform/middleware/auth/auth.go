package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	request "trialconsent/pkg/platform/middleware/request"
	"trialconsent/pkg/requestcontext"
)

// JWTValidator defines the interface for validating staff access tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTValidatorFunc adapts a function to JWTValidator.
type JWTValidatorFunc func(tokenString string) (*JWTClaims, error)

func (f JWTValidatorFunc) ValidateToken(tokenString string) (*JWTClaims, error) {
	return f(tokenString)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	// Username is recorded as user_created / user_modified on consent rows.
	Username string
	Site     string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated staff username in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			if claims.Username == "" {
				logger.WarnContext(ctx, "unauthorized access - token has no username",
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithActor(ctx, claims.Username)
			if claims.Site != "" {
				ctx = requestcontext.WithSite(ctx, claims.Site)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
