package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/schoolink-dev/schoolink/internal/domain"
	jwt_internal "github.com/schoolink-dev/schoolink/internal/jwt"
	"github.com/schoolink-dev/schoolink/internal/logger"
)

var (
	errNoToken       = errors.New("no access token provided")
	errInvalidClaims = errors.New("invalid token claims")
)

// Key to store the requester identity in the request context
type key int

const RequesterKey key = 0

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService jwt_internal.JwtService
}

func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// NeedAuth returns middleware that requires authentication
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(nil)
}

// AdminOnly returns middleware that requires a tenant or platform admin.
// This is a coarse route-level filter; the service's permission gate still
// applies its own per-message-type rules underneath.
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return a.auth(domain.IsAdmin)
}

// StaffOnly returns middleware that requires admin or teacher.
func (a *Auth) StaffOnly() func(http.Handler) http.Handler {
	return a.auth(domain.IsStaff)
}

func (a *Auth) auth(roleCheck func(domain.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requester, err := a.extractRequester(r)
			if err != nil {
				logger.Log.Debug("authentication failed", "error", err)
				http.Error(w, "Not authorized", http.StatusUnauthorized)
				return
			}
			if roleCheck != nil && !roleCheck(requester.Role) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), RequesterKey, requester)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractRequester extracts and validates the caller identity from the JWT
// token in the request.
func (a *Auth) extractRequester(r *http.Request) (*domain.Requester, error) {
	// Try to get token from cookie first (for browser clients)
	var tokenString string
	accessCookie, err := r.Cookie("accessToken")
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		// If no cookie, try Authorization header (for API/mobile clients)
		tokenString = token
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}

	uidStr, ok := claims["uid"].(string)
	if !ok {
		return nil, errInvalidClaims
	}
	uid, err := uuid.Parse(uidStr)
	if err != nil {
		return nil, errInvalidClaims
	}

	tenantStr, ok := claims["tenant_id"].(string)
	if !ok {
		return nil, errInvalidClaims
	}
	tenantId, err := uuid.Parse(tenantStr)
	if err != nil {
		return nil, errInvalidClaims
	}

	role, ok := claims["role"].(string)
	if !ok {
		return nil, errInvalidClaims
	}

	return &domain.Requester{TenantId: tenantId, UserId: uid, Role: role}, nil
}

// GetRequesterFromContext returns the authenticated caller, or nil when the
// request passed through without auth.
func GetRequesterFromContext(r *http.Request) *domain.Requester {
	requester, _ := r.Context().Value(RequesterKey).(*domain.Requester)
	return requester
}
