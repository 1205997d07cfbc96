package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "middleware-secret"

func signToken(t *testing.T, role string, method jwt.SigningMethod, key any) string {
	t.Helper()
	claims := Claims{
		UserID: uuid.New(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func protectedEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("claims missing from context")
		}
		w.Write([]byte(claims.Role))
	})
}

func TestAuthenticateAllowsValidToken(t *testing.T) {
	handler := Authenticate(testSecret)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/queue", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, RoleDoctor, jwt.SigningMethodHS256, []byte(testSecret)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != RoleDoctor {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestAuthenticateRejects(t *testing.T) {
	handler := Authenticate(testSecret)(protectedEcho(t))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not.a.token"},
		{"wrong secret", "Bearer " + signToken(t, RoleDoctor, jwt.SigningMethodHS256, []byte("other-secret"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/queue", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	claims := Claims{
		UserID: uuid.New(),
		Role:   RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	handler := Authenticate(testSecret)(protectedEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/queue", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := Authenticate(testSecret)(RequireRole(RoleAdmin)(inner))

	adminReq := httptest.NewRequest(http.MethodGet, "/reports/revenue", nil)
	adminReq.Header.Set("Authorization", "Bearer "+signToken(t, RoleAdmin, jwt.SigningMethodHS256, []byte(testSecret)))
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, adminReq)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}

	deskReq := httptest.NewRequest(http.MethodGet, "/reports/revenue", nil)
	deskReq.Header.Set("Authorization", "Bearer "+signToken(t, RoleReceptionist, jwt.SigningMethodHS256, []byte(testSecret)))
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, deskReq)
	if rec.Code != http.StatusForbidden {
		t.Errorf("receptionist status = %d, want 403", rec.Code)
	}

	// RequireRole without Authenticate in front sees no claims at all.
	bare := RequireRole(RoleAdmin)(inner)
	rec = httptest.NewRecorder()
	bare.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/revenue", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("bare status = %d, want 403", rec.Code)
	}
}
