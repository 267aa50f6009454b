package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtected(t *testing.T, svc *jwt.JWTService, extra ...func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(svc.JWTAuth()))
	r.Use(AuthRequired)
	for _, mw := range extra {
		r.Use(mw)
	}
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		require.True(t, ok)
		_, _ = io.WriteString(w, actor.EmployeeID+"|"+string(actor.Role))
	})
	return r
}

func get(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", time.Hour)
	h := newProtected(t, svc)

	t.Run("access token yields actor", func(t *testing.T) {
		token, _, err := svc.GenerateAccessToken("emp-1", employee.RoleEmployee)
		require.NoError(t, err)

		rec := get(h, token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "emp-1|employee", rec.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		rec := get(h, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("sse token is not an access token", func(t *testing.T) {
		token, _, err := svc.GenerateSSEToken("emp-1")
		require.NoError(t, err)

		rec := get(h, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := jwt.NewJWTService("other-secret", time.Hour)
		token, _, err := other.GenerateAccessToken("emp-1", employee.RoleAdmin)
		require.NoError(t, err)

		rec := get(h, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", time.Hour)
	h := newProtected(t, svc, RequirePermission(employee.PermissionLeaveApprove))

	employeeToken, _, err := svc.GenerateAccessToken("emp-1", employee.RoleEmployee)
	require.NoError(t, err)
	adminToken, _, err := svc.GenerateAccessToken("adm-1", employee.RoleSuperAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(h, employeeToken).Code)
	assert.Equal(t, http.StatusOK, get(h, adminToken).Code)

	listAll := newProtected(t, svc, RequirePermission(employee.PermissionLeaveViewAll))
	assert.Equal(t, http.StatusForbidden, get(listAll, employeeToken).Code)
	assert.Equal(t, http.StatusOK, get(listAll, adminToken).Code)
}

func TestSecureHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
