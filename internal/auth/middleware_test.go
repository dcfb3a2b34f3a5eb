package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/auth"
)

func authedRequest(t *testing.T, userID string) *httptest.ResponseRecorder {
	t.Helper()
	auth.Init(testSecret)

	token, err := auth.GenerateJWT(userID, testRole, time.Minute*5)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	handler := auth.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("UserIDFromContext failed inside handler: %v", err)
		}
		if id.String() != userID {
			t.Errorf("wrong user id in context. Expected: %s, got: %s", userID, id)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("ValidTokenPasses", func(t *testing.T) {
		rec := authedRequest(t, uuid.NewString())
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("NonUUIDUserIDRejected", func(t *testing.T) {
		// A validly signed token whose subject is not a UUID must get a 401,
		// never reach the handler, and never panic.
		auth.Init(testSecret)
		token, err := auth.GenerateJWT("user-123", testRole, time.Minute*5)
		if err != nil {
			t.Fatalf("GenerateJWT failed: %v", err)
		}

		var reached bool
		handler := auth.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if reached {
			t.Error("handler must not run for a non-UUID subject")
		}
	})

	t.Run("MissingHeaderRejected", func(t *testing.T) {
		handler := auth.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestUserIDFromContext(t *testing.T) {
	t.Run("EmptyContext", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if _, err := auth.UserIDFromContext(req.Context()); err == nil {
			t.Fatal("expected an error without claims in context")
		}
	})
}
