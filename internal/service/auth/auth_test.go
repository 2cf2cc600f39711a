package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawcare/vetclinic_backend/config"
	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/repo/memory"
	pasetotoken "github.com/pawcare/vetclinic_backend/pkg/paseto"
	"github.com/pawcare/vetclinic_backend/pkg/util/password"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

type fixture struct {
	svc    Service
	store  *memory.Store
	mr     *miniredis.Miniredis
	tokens *pasetotoken.Manager
}

func setup(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	keys := pasetotoken.NewLocalKeys()
	tokens, err := pasetotoken.New(pasetotoken.Config{
		Mode:      pasetotoken.ModeLocal,
		Issuer:    "vetclinic",
		Audience:  "vetclinic-api",
		AccessTTL: 15 * time.Minute,
	}, keys)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Clinic.DefaultRegion = "PH"
	cfg.Authentication.SessionTTLMinutes = 60
	cfg.Authentication.MinPasswordLength = 8

	hasher := password.NewHasher(password.Config{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1})
	store := memory.New()

	return &fixture{
		svc:    New(store, rdb, tokens, hasher, cfg),
		store:  store,
		mr:     mr,
		tokens: tokens,
	}
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Phone:     "0917 123 4567",
		Password:  "s3cret-pass",
		FirstName: " Ana ",
		LastName:  "Reyes",
	}
}

func TestRegisterCreatesCustomer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	assert.Equal(t, repo.RoleCustomer, u.Role)
	assert.Equal(t, "+639171234567", u.Phone)
	assert.Equal(t, "Ana", u.FirstName)
	require.NotNil(t, u.PasswordHash)
	assert.NotEqual(t, "s3cret-pass", *u.PasswordHash)

	stored, err := f.store.GetUserByPhone(ctx, "+639171234567")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
}

func TestRegisterRejectsDuplicatePhone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Phone = "+63 917 123 4567"
	_, err = f.svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrPhoneAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		field  string
	}{
		{"missing first name", func(r *RegisterRequest) { r.FirstName = "  " }, "first_name"},
		{"bad phone", func(r *RegisterRequest) { r.Phone = "12" }, "phone"},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }, "password"},
		{"bad email", func(r *RegisterRequest) { e := "nope"; r.Email = &e }, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerRequest()
			tt.mutate(&req)
			_, err := f.svc.Register(ctx, req)
			ve, ok := validate.As(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Contains(t, ve, tt.field)
		})
	}
}

func TestLoginIssuesSessionToken(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	tokens, err := f.svc.Login(ctx, LoginRequest{Phone: "09171234567", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, int64(15*60), tokens.ExpiresIn)
	assert.Equal(t, u.ID, tokens.User.ID)

	claims, err := f.tokens.Verify(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "customer", claims.Role)
	require.NotNil(t, claims.SessionID)

	key := "session:" + claims.SessionID.String()
	assert.True(t, f.mr.Exists(key))
	assert.Equal(t, time.Hour, f.mr.TTL(key))
	require.NoError(t, f.svc.CheckSession(ctx, *claims.SessionID))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginRequest{Phone: "09171234567", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginRequest{Phone: "09170000000", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsWalkInWithoutPassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.store.CreateUser(ctx, &repo.User{
		Role:      repo.RoleCustomer,
		FirstName: "Walk",
		LastName:  "In",
		Phone:     "+639171112222",
	}))

	_, err := f.svc.Login(ctx, LoginRequest{Phone: "+639171112222", Password: "anything"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := f.svc.Login(ctx, LoginRequest{Phone: "09171234567", Password: "wrong-pass"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = f.svc.Login(ctx, LoginRequest{Phone: "09171234567", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrAccountLocked)

	f.mr.FastForward(accountLockMins * time.Minute)
	_, err = f.svc.Login(ctx, LoginRequest{Phone: "09171234567", Password: "s3cret-pass"})
	assert.NoError(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	tokens, err := f.svc.Login(ctx, LoginRequest{Phone: "09171234567", Password: "s3cret-pass"})
	require.NoError(t, err)
	claims, err := f.tokens.Verify(tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, *claims.SessionID))
	assert.ErrorIs(t, f.svc.CheckSession(ctx, *claims.SessionID), ErrSessionNotFound)

	// second logout is a no-op
	assert.NoError(t, f.svc.Logout(ctx, *claims.SessionID))
	assert.ErrorIs(t, f.svc.CheckSession(ctx, uuid.New()), ErrSessionNotFound)
}

func TestCreateStaff(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u, err := f.svc.CreateStaff(ctx, StaffRequest{RegisterRequest: registerRequest(), Role: repo.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, repo.RoleAdmin, u.Role)

	tokens, err := f.svc.Login(ctx, LoginRequest{Phone: "09171234567", Password: "s3cret-pass"})
	require.NoError(t, err)
	claims, err := f.tokens.Verify(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)

	_, err = f.svc.CreateStaff(ctx, StaffRequest{RegisterRequest: registerRequest(), Role: repo.RoleCustomer})
	assert.ErrorIs(t, err, ErrInvalidRole)
}
