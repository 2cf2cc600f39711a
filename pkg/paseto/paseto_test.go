package pasetotoken

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestManager(t *testing.T, keys Keys, ttl time.Duration) *Manager {
	t.Helper()
	m, err := New(Config{
		Mode:      keys.Mode,
		Issuer:    "vetclinic",
		Audience:  "vetclinic-api",
		AccessTTL: ttl,
	}, keys)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	for _, keys := range []Keys{NewLocalKeys(), NewPublicKeys()} {
		t.Run(string(keys.Mode), func(t *testing.T) {
			m := newTestManager(t, keys, time.Minute)
			uid := uuid.New()
			sid := uuid.New()

			tok, err := m.IssueAccess(uid, &sid, "staff")
			if err != nil {
				t.Fatalf("IssueAccess: %v", err)
			}
			claims, err := m.Verify(tok)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if claims.UserID != uid {
				t.Errorf("UserID = %s, want %s", claims.UserID, uid)
			}
			if claims.SessionID == nil || *claims.SessionID != sid {
				t.Errorf("SessionID = %v, want %s", claims.SessionID, sid)
			}
			if claims.GetRole() != "staff" {
				t.Errorf("Role = %q, want staff", claims.GetRole())
			}
			if claims.GetTokenType() != string(TokenTypeAccess) {
				t.Errorf("Type = %q, want access", claims.GetTokenType())
			}
			if claims.IsExpired() {
				t.Error("fresh token reported as expired")
			}
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	m := newTestManager(t, NewLocalKeys(), time.Minute)
	tok, err := m.IssueAccess(uuid.New(), nil, "customer")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	tampered := tok[:len(tok)-2] + "xx"
	if strings.HasSuffix(tok, "xx") {
		tampered = tok[:len(tok)-2] + "yy"
	}
	_, err = m.Verify(tampered)
	var invalid ErrInvalidToken
	if !errors.As(err, &invalid) {
		t.Errorf("Verify(tampered) error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	issuer := newTestManager(t, NewLocalKeys(), time.Minute)
	other := newTestManager(t, NewLocalKeys(), time.Minute)

	tok, err := issuer.IssueAccess(uuid.New(), nil, "customer")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := other.Verify(tok); err == nil {
		t.Error("expected token from another key to be rejected")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := newTestManager(t, NewLocalKeys(), time.Nanosecond)
	tok, err := m.IssueAccess(uuid.New(), nil, "customer")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := m.Verify(tok); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestVerifyUsesCurrentClock(t *testing.T) {
	// Tokens issued after the manager was built must still verify.
	m := newTestManager(t, NewLocalKeys(), time.Minute)
	time.Sleep(5 * time.Millisecond)
	tok, err := m.IssueAccess(uuid.New(), nil, "admin")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := m.Verify(tok); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		keys Keys
	}{
		{"mode mismatch", Config{Mode: ModePublic, Issuer: "a", Audience: "b"}, NewLocalKeys()},
		{"missing issuer", Config{Mode: ModeLocal, Audience: "b"}, NewLocalKeys()},
		{"missing audience", Config{Mode: ModeLocal, Issuer: "a"}, NewLocalKeys()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, tt.keys)
			var cfgErr ErrConfig
			if !errors.As(err, &cfgErr) {
				t.Errorf("New() error = %v, want ErrConfig", err)
			}
		})
	}
}

func TestLoadKeys(t *testing.T) {
	if _, err := LoadKeys(KeyStrings{Mode: ModeLocal}); err == nil {
		t.Error("expected error for local mode without key")
	}
	if _, err := LoadKeys(KeyStrings{Mode: "bogus"}); err == nil {
		t.Error("expected error for unknown mode")
	}
	k, err := LoadKeys(KeyStrings{Mode: ModeLocal, SymmetricHex: NewLocalKeys().Symmetric.ExportHex()})
	if err != nil {
		t.Fatalf("LoadKeys: %v", err)
	}
	if k.Symmetric == nil {
		t.Error("expected symmetric key")
	}
}
