package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gadgetghar/account-service/internal/core/domain"
	"github.com/gadgetghar/account-service/internal/core/ports"
	"github.com/gadgetghar/account-service/internal/pkg/token"
)

// routerAuthStub drives the router integration tests with canned outcomes
// keyed on the credentials it receives.
type routerAuthStub struct{}

func (routerAuthStub) Signup(ctx context.Context, in ports.SignupInput) error {
	if in.Email == "taken@example.com" {
		return domain.ErrUserExists
	}
	return nil
}

func (routerAuthStub) VerifyEmail(ctx context.Context, tok string) error {
	if tok == "good" {
		return nil
	}
	return domain.ErrInvalidToken
}

func (routerAuthStub) ResendVerification(ctx context.Context, email string) error { return nil }

func (routerAuthStub) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	switch email {
	case "locked@example.com":
		return nil, &domain.LockedError{
			LockUntil: time.Now().Add(15 * time.Minute).UTC(),
			Attempts:  5,
		}
	case "asha@example.com":
		if password == "Str0ng!pass" {
			return &ports.Session{
				Token:     "jwt-abc",
				TTL:       24 * time.Hour,
				Principal: ports.Identity{ID: "u1", Email: email, Role: domain.RoleUser},
			}, nil
		}
		return nil, &domain.FailedLoginError{Attempts: 1}
	}
	return nil, domain.ErrInvalidCredentials
}

func (routerAuthStub) AdminLogin(ctx context.Context, username, password string) (*ports.Session, error) {
	return nil, domain.ErrInvalidCredentials
}

func (routerAuthStub) AdminSignup(ctx context.Context, username, password string) (*ports.Identity, error) {
	return &ports.Identity{ID: "a2", Username: username, Role: domain.RoleAdmin}, nil
}

func (routerAuthStub) RequestPasswordReset(ctx context.Context, email, clientIP string) error {
	return nil
}

func (routerAuthStub) ResetPassword(ctx context.Context, tok, newPassword string) error { return nil }

func (routerAuthStub) Introspect(ctx context.Context, tok string) (*ports.Identity, error) {
	return nil, domain.ErrInvalidToken
}

func (routerAuthStub) Logout(ctx context.Context, tok string) {}

var (
	routerOnce     sync.Once
	routerInstance *echo.Echo
	routerSessions = token.NewIssuer("router-test-secret")
)

// testRouter builds the router once per test binary; the prometheus
// middleware registers collectors globally and cannot be built twice.
func testRouter(t *testing.T) *echo.Echo {
	t.Helper()
	routerOnce.Do(func() {
		routerInstance = NewRouter(Deps{
			Auth:     routerAuthStub{},
			Sessions: routerSessions,
			Logger:   zerolog.Nop(),
		})
	})
	return routerInstance
}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_LoginEnvelopes(t *testing.T) {
	e := testRouter(t)

	t.Run("success sets cookie", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodPost, "/auth/login", `{"email":"asha@example.com","password":"Str0ng!pass"}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Header().Get("Set-Cookie"), "token=jwt-abc") {
			t.Fatalf("session cookie not set: %q", rec.Header().Get("Set-Cookie"))
		}
	})

	t.Run("wrong password returns attempts", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodPost, "/auth/login", `{"email":"asha@example.com","password":"nope"}`, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp["success"] != false || resp["message"] != "Invalid credentials" {
			t.Fatalf("unexpected envelope: %v", resp)
		}
		if resp["loginAttempts"] != float64(1) {
			t.Fatalf("loginAttempts = %v", resp["loginAttempts"])
		}
	})

	t.Run("locked account returns 429 with lockUntil", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodPost, "/auth/login", `{"email":"locked@example.com","password":"whatever"}`, nil)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if _, ok := resp["lockUntil"]; !ok {
			t.Fatalf("lockUntil missing: %v", resp)
		}
		if resp["loginAttempts"] != float64(5) {
			t.Fatalf("loginAttempts = %v", resp["loginAttempts"])
		}
	})

	t.Run("unknown email stays generic", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodPost, "/auth/login", `{"email":"ghost@example.com","password":"whatever"}`, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "ghost") {
			t.Fatalf("response leaks account existence: %s", rec.Body.String())
		}
	})
}

func TestRouter_SignupConflict(t *testing.T) {
	e := testRouter(t)

	body := `{"fullName":"Asha Rai","email":"taken@example.com","password":"Str0ng!pass","phone":"+9779812345678"}`
	rec := doJSON(t, e, http.MethodPost, "/auth/signup", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "User already exists") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_VerifyEmailBadToken(t *testing.T) {
	e := testRouter(t)

	rec := doJSON(t, e, http.MethodGet, "/auth/verify-email?token=bad", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_AdminSignupRequiresAdminSession(t *testing.T) {
	e := testRouter(t)
	body := `{"username":"ops","password":"S3cret!pw"}`

	t.Run("anonymous rejected", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodPost, "/admin/signup", body, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("user role rejected", func(t *testing.T) {
		tok, err := routerSessions.Issue("u1", domain.RoleUser, "", time.Hour)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		rec := doJSON(t, e, http.MethodPost, "/admin/signup", body, func(r *http.Request) {
			r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
		})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin role allowed", func(t *testing.T) {
		tok, err := routerSessions.Issue("a1", domain.RoleAdmin, "root", time.Hour)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		rec := doJSON(t, e, http.MethodPost, "/admin/signup", body, func(r *http.Request) {
			r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	e := testRouter(t)

	rec := doJSON(t, e, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gadgetghar") {
		t.Fatalf("metrics output missing service namespace")
	}
}
