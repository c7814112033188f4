package middlewares

import (
	"net/http"
	"net/http/httptest"
	"sitbook/src/types"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signed(t *testing.T, role string, key string, expires time.Time) string {
	claims := types.Claims{
		Username: "ops",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", MaintenanceMiddleware, AdminAuthMiddleware, func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"username": ctx.GetString("username")})
	})
	return r
}

func do(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAuthMiddleware(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", secret)
	t.Setenv("MAINTENANCE_MODE", "false")
	r := router()
	later := time.Now().Add(time.Hour)

	assert.Equal(t, http.StatusOK, do(r, signed(t, AdminRole, secret, later)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, signed(t, AdminRole, "other", later)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, signed(t, AdminRole, secret, time.Now().Add(-time.Hour))).Code)
	assert.Equal(t, http.StatusForbidden, do(r, signed(t, "sitter", secret, later)).Code)
}

func TestAdminAuthMiddlewareUnconfigured(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "")
	t.Setenv("MAINTENANCE_MODE", "false")
	assert.Equal(t, http.StatusUnauthorized, do(router(), signed(t, AdminRole, secret, time.Now().Add(time.Hour))).Code)
}

func TestMaintenanceMiddleware(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", secret)
	t.Setenv("MAINTENANCE_MODE", "true")
	assert.Equal(t, http.StatusServiceUnavailable, do(router(), signed(t, AdminRole, secret, time.Now().Add(time.Hour))).Code)
}
