package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddlewareAllowsWhenDisabled(t *testing.T) {
	service := NewService(Config{})
	handlerCalled := false
	handler := Middleware(service, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { handlerCalled = true }),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !handlerCalled {
		t.Fatal("expected handler to be called")
	}
}

func TestMiddlewareRejectsMissingCredentials(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := issueTestJWKS(t, key, "key-1")
	defer srv.Close()

	service := NewService(Config{JWKSURL: srv.URL})
	if err := service.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer service.Stop()

	handler := Middleware(service, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := issueTestJWKS(t, key, "key-1")
	defer srv.Close()

	service := NewService(Config{JWKSURL: srv.URL, JWKSRefreshInterval: time.Hour})
	if err := service.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer service.Stop()

	token := signTestToken(t, key, "key-1", "user-1", "", "")
	handlerCalled := false
	handler := Middleware(service, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			user, ok := UserFromContext(r.Context())
			if !ok || user.ID != "user-1" {
				t.Errorf("expected user-1 in context, got %+v (ok=%v)", user, ok)
			}
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !handlerCalled {
		t.Fatal("expected handler to be called")
	}
}

func TestMiddlewareAcceptsAPIKeySentAsBearer(t *testing.T) {
	service := NewService(Config{APIKeys: []APIKeyConfig{{Key: "svc-token", UserID: "system"}}})
	handlerCalled := false
	handler := Middleware(service, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			user, ok := UserFromContext(r.Context())
			if !ok || user.ID != "system" {
				t.Errorf("expected system in context, got %+v (ok=%v)", user, ok)
			}
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer svc-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !handlerCalled {
		t.Fatal("expected handler to be called")
	}
}

func TestMiddlewareAcceptsAPIKey(t *testing.T) {
	service := NewService(Config{APIKeys: []APIKeyConfig{{Key: "k1", UserID: "user-1"}}})
	handlerCalled := false
	handler := Middleware(service, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { handlerCalled = true }),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "k1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !handlerCalled {
		t.Fatal("expected handler to be called")
	}
}
