package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, roles []string, secret string) string {
	t.Helper()
	claims := Claims{
		UserID: "user-1",
		Email:  "user@example.com",
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(testSecret))
	handlers := append(extra, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString("user_id")})
	})
	router.GET("/protected", handlers...)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	return router
}

func doGet(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	router := newAuthRouter()
	token := signToken(t, []string{"manager"}, testSecret)

	w := doGet(router, "/protected", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	router := newAuthRouter()

	w := doGet(router, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_TOKEN")
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	router := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN_FORMAT")
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	router := newAuthRouter()
	token := signToken(t, []string{"manager"}, "other-secret")

	w := doGet(router, "/protected", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestAuthMiddlewareSkipsHealth(t *testing.T) {
	router := newAuthRouter()

	w := doGet(router, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	router := newAuthRouter(RequireRole("admin"))
	token := signToken(t, []string{"admin"}, testSecret)

	w := doGet(router, "/protected", token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	router := newAuthRouter(RequireRole("admin"))
	token := signToken(t, []string{"manager"}, testSecret)

	w := doGet(router, "/protected", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_PERMISSIONS")
}

func TestRequireRoleSuperAdminBypass(t *testing.T) {
	router := newAuthRouter(RequireRole("admin"))
	token := signToken(t, []string{"super_admin"}, testSecret)

	w := doGet(router, "/protected", token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAnyRole(t *testing.T) {
	router := newAuthRouter(RequireAnyRole("admin", "manager"))

	w := doGet(router, "/protected", signToken(t, []string{"manager"}, testSecret))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doGet(router, "/protected", signToken(t, []string{"viewer"}, testSecret))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
