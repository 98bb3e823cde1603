package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	apphttp "github.com/onurmutlu/flirtmarket/pkg/app/http"
	"github.com/onurmutlu/flirtmarket/pkg/user"
)

// Middleware authenticates the bearer token and stores the identity in the request context.
// Requests without a valid token are rejected with 401.
func Middleware(v *JWTValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "missing bearer token"))
				return
			}

			info, err := v.ValidateToken(token)
			if err != nil {
				logger.Debug("Rejected bearer token", zap.Error(err))
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthInfo(r.Context(), info)))
		})
	}
}

// RequireRole rejects requests whose authenticated role is not one of roles with 403.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := RoleFromContext(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			apphttp.DefaultErrorHandler(w, apperrors.ForbiddenError(nil, "forbidden"))
		})
	}
}

// MustUserID returns the authenticated user id or an unauthorized service error.
func MustUserID(r *http.Request) (int64, error) {
	id, ok := UserIDFromContext(r.Context())
	if !ok || id <= 0 {
		return 0, apperrors.UnAuthorizedError(nil, "authentication required")
	}
	return id, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
