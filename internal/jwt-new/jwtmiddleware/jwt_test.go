package jwtmiddleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/internal/jwt-new/jwtmiddleware"
)

const testSecret = "test-secret"

func createTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func serveWithMiddleware(t *testing.T, authHeader string) (*httptest.ResponseRecorder, models.Actor, bool) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	var gotActor models.Actor
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor, gotOK = jwtmiddleware.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := jwtmiddleware.NewJWTMiddleware()(next)
	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, gotActor, gotOK
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	rr, _, ok := serveWithMiddleware(t, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, ok)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	rr, _, _ := serveWithMiddleware(t, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_InvalidSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "10",
		"role": "customer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("another-secret"))
	require.NoError(t, err)

	rr, _, _ := serveWithMiddleware(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	signed := createTestToken(t, jwt.MapClaims{
		"sub":   "10",
		"name":  "Jane",
		"email": "jane@example.com",
		"role":  "customer",
	})

	rr, actor, ok := serveWithMiddleware(t, "Bearer "+signed)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, ok)
	assert.Equal(t, int64(10), actor.ID)
	assert.Equal(t, "Jane", actor.Name)
	assert.Equal(t, "jane@example.com", actor.Email)
	assert.Equal(t, models.RoleCustomer, actor.Role)
}

func TestJWTMiddleware_UnknownRole(t *testing.T) {
	signed := createTestToken(t, jwt.MapClaims{
		"sub":  "10",
		"role": "superuser",
	})

	rr, _, _ := serveWithMiddleware(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	signed := createTestToken(t, jwt.MapClaims{
		"sub":  "10",
		"role": "customer",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	rr, _, _ := serveWithMiddleware(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := jwtmiddleware.RequireRole(models.RoleAdmin)(next)

	// без актора в контексте
	req := httptest.NewRequest(http.MethodGet, "/api/admin/summary", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// клиент на административном маршруте
	t.Setenv("JWT_SECRET", testSecret)
	full := jwtmiddleware.NewJWTMiddleware()(handler)
	signed := createTestToken(t, jwt.MapClaims{"sub": "10", "role": "customer"})
	req = httptest.NewRequest(http.MethodGet, "/api/admin/summary", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr = httptest.NewRecorder()
	full.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// администратор проходит
	signed = createTestToken(t, jwt.MapClaims{"sub": "1", "role": "admin"})
	req = httptest.NewRequest(http.MethodGet, "/api/admin/summary", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr = httptest.NewRecorder()
	full.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
