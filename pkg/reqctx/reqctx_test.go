package reqctx

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeClaims struct {
	uid     uuid.UUID
	role    string
	expired bool
}

func (c fakeClaims) GetUserID() uuid.UUID     { return c.uid }
func (c fakeClaims) GetSessionID() *uuid.UUID { return nil }
func (c fakeClaims) GetRole() string          { return c.role }
func (c fakeClaims) GetTokenType() string     { return "access" }
func (c fakeClaims) IsExpired() bool          { return c.expired }

func TestClaimsRoundTrip(t *testing.T) {
	ctx := context.Background()
	if IsAuthenticated(ctx) {
		t.Fatal("empty context should not be authenticated")
	}
	if _, ok := RoleFromContext(ctx); ok {
		t.Fatal("empty context should have no role")
	}

	uid := uuid.New()
	ctx = WithClaims(ctx, fakeClaims{uid: uid, role: "staff"})

	if !IsAuthenticated(ctx) {
		t.Error("expected authenticated context")
	}
	if got, ok := UserIDFromContext(ctx); !ok || got != uid {
		t.Errorf("UserIDFromContext = %v, %v", got, ok)
	}
	if got, ok := RoleFromContext(ctx); !ok || got != "staff" {
		t.Errorf("RoleFromContext = %q, %v", got, ok)
	}

	expired := WithClaims(context.Background(), fakeClaims{uid: uid, expired: true})
	if IsAuthenticated(expired) {
		t.Error("expired claims should not authenticate")
	}
}

func TestRequestMeta(t *testing.T) {
	if rid := RequestIDFromContext(context.Background()); rid != "" {
		t.Errorf("RequestIDFromContext = %q, want empty", rid)
	}

	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "abc", RequestedAt: time.Now()})
	if rid := RequestIDFromContext(ctx); rid != "abc" {
		t.Errorf("RequestIDFromContext = %q, want abc", rid)
	}
	if m := MustRequestMeta(ctx); m.RequestID != "abc" {
		t.Errorf("MustRequestMeta = %+v", m)
	}
}

func TestMustClaimsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustClaims(context.Background())
}
