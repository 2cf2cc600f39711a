package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pawcare/vetclinic_backend/config"
	"github.com/pawcare/vetclinic_backend/internal/repo"
	pasetotoken "github.com/pawcare/vetclinic_backend/pkg/paseto"
	"github.com/pawcare/vetclinic_backend/pkg/util/password"
	"github.com/pawcare/vetclinic_backend/pkg/util/phone"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

const (
	maxLoginAttempts  = 5
	accountLockMins   = 15
	defaultSessionTTL = 24 * time.Hour
	defaultMinPassLen = 8
)

// redisKeySession returns the Redis key for a session.
func redisKeySession(sessionID string) string { return "session:" + sessionID }

// redisKeyLoginFailures counts failed logins for a number within the lock window.
func redisKeyLoginFailures(number string) string { return "login:failures:" + number }

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RegisterRequest struct {
	Phone     string  `json:"phone" validate:"required"`
	Password  string  `json:"password" validate:"required"`
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StaffRequest creates a staff or admin account.
type StaffRequest struct {
	RegisterRequest
	Role repo.Role `json:"role"`
}

type AuthTokens struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int64      `json:"expires_in"` // seconds until the token expires
	User        *repo.User `json:"user"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*repo.User, error)
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	// CheckSession returns ErrSessionNotFound once a session was logged out
	// or has expired.
	CheckSession(ctx context.Context, sessionID uuid.UUID) error
	CreateStaff(ctx context.Context, req StaffRequest) (*repo.User, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	store      repo.Store
	rdb        *redis.Client
	paseto     *pasetotoken.Manager
	hasher     *password.Hasher
	region     string
	sessionTTL time.Duration
	minPassLen int
}

func New(
	store repo.Store,
	rdb *redis.Client,
	paseto *pasetotoken.Manager,
	hasher *password.Hasher,
	cfg *config.Config,
) Service {
	ttl := time.Duration(cfg.Authentication.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	minLen := cfg.Authentication.MinPasswordLength
	if minLen <= 0 {
		minLen = defaultMinPassLen
	}
	return &authService{
		store:      store,
		rdb:        rdb,
		paseto:     paseto,
		hasher:     hasher,
		region:     cfg.Clinic.DefaultRegion,
		sessionTTL: ttl,
		minPassLen: minLen,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*repo.User, error) {
	return s.createAccount(ctx, req, repo.RoleCustomer)
}

func (s *authService) CreateStaff(ctx context.Context, req StaffRequest) (*repo.User, error) {
	if !req.Role.IsStaff() {
		return nil, ErrInvalidRole
	}
	return s.createAccount(ctx, req.RegisterRequest, req.Role)
}

func (s *authService) createAccount(ctx context.Context, req RegisterRequest, role repo.Role) (*repo.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	errs := validate.Errors{}
	normalized, err := phone.Normalize(req.Phone, s.region)
	if err != nil {
		errs.Add("phone", "must be a valid phone number")
	}
	if len(req.Password) < s.minPassLen {
		errs.Add("password", fmt.Sprintf("must be at least %d characters", s.minPassLen))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	switch _, err := s.store.GetUserByPhone(ctx, normalized); {
	case err == nil:
		return nil, ErrPhoneAlreadyExists
	case !repo.IsNotFound(err):
		return nil, fmt.Errorf("check phone: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &repo.User{
		Role:         role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        normalized,
		Email:        req.Email,
		PasswordHash: &hash,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrPhoneAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	normalized, err := phone.Normalize(req.Phone, s.region)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	failures, err := s.rdb.Get(ctx, redisKeyLoginFailures(normalized)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get login failures: %w", err)
	}
	if failures >= maxLoginAttempts {
		return nil, ErrAccountLocked
	}

	u, err := s.store.GetUserByPhone(ctx, normalized)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	// Walk-in customers have no password until they register themselves.
	if u.PasswordHash == nil || *u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Verify(*u.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			slog.WarnContext(ctx, "stored password hash unreadable", "user_id", u.ID, "error", err)
		}
		s.recordFailedLogin(ctx, normalized)
		return nil, ErrInvalidCredentials
	}

	s.rdb.Del(ctx, redisKeyLoginFailures(normalized))
	return s.createSession(ctx, u)
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.rdb.Del(ctx, redisKeySession(sessionID.String())).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		// already expired; not an error from the client's perspective
		slog.DebugContext(ctx, "logout: session not found in Redis", "session_id", sessionID)
	}
	return nil
}

func (s *authService) CheckSession(ctx context.Context, sessionID uuid.UUID) error {
	n, err := s.rdb.Exists(ctx, redisKeySession(sessionID.String())).Result()
	if err != nil {
		return fmt.Errorf("redis exists session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) createSession(ctx context.Context, u *repo.User) (*AuthTokens, error) {
	sessionID := uuid.Must(uuid.NewV7())

	if err := s.rdb.Set(ctx, redisKeySession(sessionID.String()), u.ID.String(), s.sessionTTL).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	access, err := s.paseto.IssueAccess(u.ID, &sessionID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthTokens{
		AccessToken: access,
		ExpiresIn:   int64(s.paseto.AccessTTL().Seconds()),
		User:        u,
	}, nil
}

func (s *authService) recordFailedLogin(ctx context.Context, number string) {
	key := redisKeyLoginFailures(number)
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, accountLockMins*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.WarnContext(ctx, "failed to record login failure", "error", err)
	}
}
