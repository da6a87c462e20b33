package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolink-dev/schoolink/internal/domain"
	jwt_internal "github.com/schoolink-dev/schoolink/internal/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth(t *testing.T) {
	jwtService := jwt_internal.New("test_secret", time.Hour)
	admin := domain.Requester{TenantId: uuid.New(), UserId: uuid.New(), Role: domain.RoleTenantAdmin}
	tokenAdmin, _ := jwtService.NewToken(admin)
	teacher := domain.Requester{TenantId: uuid.New(), UserId: uuid.New(), Role: domain.RoleTeacher}
	tokenTeacher, _ := jwtService.NewToken(teacher)
	parent := domain.Requester{TenantId: uuid.New(), UserId: uuid.New(), Role: domain.RoleParent}
	tokenParent, _ := jwtService.NewToken(parent)

	tests := []struct {
		name              string
		middleware        string // "need_auth", "admin_only", "staff_only"
		cookie            *http.Cookie
		authHeader        string
		expectedStatus    int
		expectedRequester *domain.Requester
	}{
		{
			name:              "valid token via cookie",
			middleware:        "need_auth",
			cookie:            &http.Cookie{Name: "accessToken", Value: tokenParent},
			expectedStatus:    http.StatusOK,
			expectedRequester: &parent,
		},
		{
			name:              "valid token via bearer header",
			middleware:        "need_auth",
			authHeader:        "Bearer " + tokenParent,
			expectedStatus:    http.StatusOK,
			expectedRequester: &parent,
		},
		{
			name:           "no token",
			middleware:     "need_auth",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			middleware:     "need_auth",
			cookie:         &http.Cookie{Name: "accessToken", Value: "invalid_token"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:              "admin on admin route",
			middleware:        "admin_only",
			cookie:            &http.Cookie{Name: "accessToken", Value: tokenAdmin},
			expectedStatus:    http.StatusOK,
			expectedRequester: &admin,
		},
		{
			name:           "parent on admin route",
			middleware:     "admin_only",
			cookie:         &http.Cookie{Name: "accessToken", Value: tokenParent},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:              "teacher on staff route",
			middleware:        "staff_only",
			cookie:            &http.Cookie{Name: "accessToken", Value: tokenTeacher},
			expectedStatus:    http.StatusOK,
			expectedRequester: &teacher,
		},
		{
			name:           "parent on staff route",
			middleware:     "staff_only",
			cookie:         &http.Cookie{Name: "accessToken", Value: tokenParent},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://example.com", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			authMw := NewAuth(jwtService)
			var middleware func(http.Handler) http.Handler
			switch tt.middleware {
			case "admin_only":
				middleware = authMw.AdminOnly()
			case "staff_only":
				middleware = authMw.StaffOnly()
			default:
				middleware = authMw.NeedAuth()
			}

			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requester := GetRequesterFromContext(r)
				require.NotNil(t, requester, "Auth should always propagate the requester thru context")
				if tt.expectedRequester != nil {
					assert.Equal(t, tt.expectedRequester.TenantId, requester.TenantId)
					assert.Equal(t, tt.expectedRequester.UserId, requester.UserId)
					assert.Equal(t, tt.expectedRequester.Role, requester.Role)
				}
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
