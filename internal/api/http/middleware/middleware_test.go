package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/pkg/authorize"
	pasetotoken "github.com/pawcare/vetclinic_backend/pkg/paseto"
	"github.com/pawcare/vetclinic_backend/pkg/reqctx"
)

type fakeSessions struct {
	revoked map[uuid.UUID]bool
}

func (f fakeSessions) CheckSession(_ context.Context, id uuid.UUID) error {
	if f.revoked[id] {
		return errors.New("session not found")
	}
	return nil
}

func newManager(t *testing.T) *pasetotoken.Manager {
	t.Helper()
	keys := pasetotoken.NewLocalKeys()
	m, err := pasetotoken.New(pasetotoken.Config{
		Mode:      keys.Mode,
		Issuer:    "vetclinic",
		Audience:  "vetclinic-api",
		AccessTTL: time.Minute,
	}, keys)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c fiber.Ctx) error {
		rid, _ := RequestIDFromFiber(c)
		if got := reqctx.RequestIDFromContext(c.Context()); got != rid {
			t.Errorf("context request id = %q, locals = %q", got, rid)
		}
		return c.SendString(rid)
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		resp := do(t, app, req)
		if got := resp.Header.Get(HeaderRequestID); got != "abc-123" {
			t.Errorf("header = %q, want abc-123", got)
		}
	})

	t.Run("generates when missing", func(t *testing.T) {
		resp := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
		if _, err := uuid.Parse(resp.Header.Get(HeaderRequestID)); err != nil {
			t.Errorf("generated id is not a uuid: %v", err)
		}
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, strings.Repeat("x", 200))
		resp := do(t, app, req)
		if got := resp.Header.Get(HeaderRequestID); len(got) > 128 {
			t.Errorf("oversized id was kept (%d chars)", len(got))
		}
	})
}

func TestAuthRequired(t *testing.T) {
	mgr := newManager(t)
	live, revoked := uuid.New(), uuid.New()
	sessions := fakeSessions{revoked: map[uuid.UUID]bool{revoked: true}}

	app := fiber.New()
	app.Get("/me", AuthRequired(mgr, sessions), func(c fiber.Ctx) error {
		claims, ok := pasetotoken.ClaimsFromFiber(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(claims.Role)
	})
	app.Get("/stream", AuthRequiredQuery(mgr, sessions), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	issue := func(sid uuid.UUID) string {
		tok, err := mgr.IssueAccess(uuid.New(), &sid, "staff")
		if err != nil {
			t.Fatalf("IssueAccess: %v", err)
		}
		return tok
	}

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", fiber.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + issue(live), fiber.StatusUnauthorized},
		{"garbage token", "/me", "Bearer not-a-token", fiber.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + issue(live), fiber.StatusOK},
		{"revoked session", "/me", "Bearer " + issue(revoked), fiber.StatusUnauthorized},
		{"query token rejected on bearer route", "/me?token=" + issue(live), "", fiber.StatusUnauthorized},
		{"query token accepted on stream", "/stream?token=" + issue(live), "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp := do(t, app, req)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	mgr := newManager(t)
	auth, err := authorize.New(context.Background(), authorize.Config{EnableAudit: false})
	if err != nil {
		t.Fatalf("authorize.New: %v", err)
	}
	sessions := fakeSessions{}

	app := fiber.New()
	app.Get("/admin/appointments",
		AuthRequired(mgr, sessions),
		RequirePermission(auth, authorize.ResourceAppointmentAdmin, authorize.ActionManage),
		func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
	)

	tests := []struct {
		role string
		want int
	}{
		{"customer", fiber.StatusForbidden},
		{"staff", fiber.StatusOK},
		{"admin", fiber.StatusOK},
		{"intruder", fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			sid := uuid.New()
			tok, err := mgr.IssueAccess(uuid.New(), &sid, tt.role)
			if err != nil {
				t.Fatalf("IssueAccess: %v", err)
			}
			req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			resp := do(t, app, req)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
