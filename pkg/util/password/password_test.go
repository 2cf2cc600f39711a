package password

import (
	"errors"
	"strings"
	"testing"
)

// cheap parameters keep the suite fast
var testConfig = Config{
	MemoryKiB:   8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestHasherHash(t *testing.T) {
	h := NewHasher(testConfig)

	hash, err := h.Hash("correcthorsebatterystaple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Errorf("Hash() format invalid, got %s", hash)
	}
	if !strings.Contains(hash, "m=8192,t=1,p=1") {
		t.Errorf("Hash() params not encoded: %s", hash)
	}
	if parts := strings.Split(hash, "$"); len(parts) != 6 {
		t.Errorf("Hash() expected 6 parts, got %d", len(parts))
	}
}

func TestHasherVerify(t *testing.T) {
	h := NewHasher(testConfig)
	password := "mysecretpassword"

	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error
	}{
		{"correct password", hash, password, nil},
		{"wrong password", hash, "wrongpassword", ErrMismatch},
		{"empty password", hash, "", ErrMismatch},
		{"empty hash", "", password, ErrInvalidHash},
		{"random string", "randomgarbage", password, ErrInvalidHash},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g", password, ErrInvalidHash},
		{"malformed params", "$argon2id$v=19$invalid$c29tZXNhbHQ$c29tZWhhc2g", password, ErrInvalidHash},
		{"future version", "$argon2id$v=99$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g", password, ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Verify(tt.hash, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHasherUsesEncodedParams(t *testing.T) {
	old := NewHasher(testConfig)
	hash, err := old.Hash("samepassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	stronger := testConfig
	stronger.Iterations = 2
	h := NewHasher(stronger)

	if err := h.Verify(hash, "samepassword"); err != nil {
		t.Errorf("Verify() with newer params failed: %v", err)
	}
	if !h.NeedsRehash(hash) {
		t.Error("NeedsRehash() should be true for weaker params")
	}
	if old.NeedsRehash(hash) {
		t.Error("NeedsRehash() should be false for own params")
	}
	if !h.NeedsRehash("garbage") {
		t.Error("NeedsRehash() should be true for unparseable hash")
	}
}

func TestHashUniqueness(t *testing.T) {
	h := NewHasher(testConfig)
	hash1, _ := h.Hash("samepassword")
	hash2, _ := h.Hash("samepassword")

	if hash1 == hash2 {
		t.Error("Hash() should produce unique hashes for same password (different salts)")
	}
}

func TestConfigToParams(t *testing.T) {
	p := Config{}.ToParams()
	def := DefaultParams()
	if *p != *def {
		t.Errorf("zero Config should fall back to defaults, got %+v", *p)
	}

	low := DefaultConfig()
	low.LowMemoryMode = true
	if got := low.ToParams().Memory; got != 32*1024 {
		t.Errorf("LowMemoryMode memory = %d, want %d", got, 32*1024)
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"default length (0)", 0, 16},
		{"custom length 8", 8, 8},
		{"custom length 32", 32, 32},
		{"negative length", -5, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.length)
			if len(got) != tt.want {
				t.Errorf("Generate(%d) length = %d, want %d", tt.length, len(got), tt.want)
			}
		})
	}
}
