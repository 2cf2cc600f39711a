package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/pkg/observability"
)

const (
	EventAppointmentCreated       = "appointment.created"
	EventAppointmentCancelled     = "appointment.cancelled"
	EventAppointmentRescheduled   = "appointment.rescheduled"
	EventAppointmentStatusChanged = "appointment.status_changed"
	EventAppointmentCompleted     = "appointment.completed"
	EventAppointmentDeleted       = "appointment.deleted"
)

const streamField = "event"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Event is one relay entry. ID is the Redis stream entry id
// ("<unix_ms>-<seq>") and doubles as the subscriber cursor.
type Event struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Message       string         `json:"message"`
	AppointmentID *uuid.UUID     `json:"appointment_id,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

type Config struct {
	BufferSize int64
	TTL        time.Duration
	KeyPrefix  string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Publish appends evt to the stream of every role given (staff and admin
	// when none are). Each stream keeps only the newest BufferSize entries.
	Publish(ctx context.Context, evt Event, roles ...repo.Role) error

	// Since returns events strictly newer than since, oldest first.
	Since(ctx context.Context, role repo.Role, since time.Time) ([]Event, error)

	// Next returns events after cursor, waiting up to wait for one to
	// arrive. An empty cursor starts from the oldest buffered event. It
	// returns no events and no error when wait elapses, and
	// ErrInvalidCursor when cursor is not a stream entry id.
	Next(ctx context.Context, role repo.Role, cursor string, wait time.Duration) ([]Event, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type notificationService struct {
	rdb *redis.Client
	cfg Config
	now func() time.Time
}

func New(rdb *redis.Client, cfg Config) Service {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 50
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "notifications"
	}
	return &notificationService{rdb: rdb, cfg: cfg, now: time.Now}
}

func (s *notificationService) key(role repo.Role) (string, error) {
	if !role.IsStaff() {
		return "", ErrNoChannel
	}
	return s.cfg.KeyPrefix + ":" + string(role), nil
}

func (s *notificationService) Publish(ctx context.Context, evt Event, roles ...repo.Role) error {
	if len(roles) == 0 {
		roles = []repo.Role{repo.RoleStaff, repo.RoleAdmin}
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = s.now().UTC()
	}
	evt.ID = ""

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, role := range roles {
			key, err := s.key(role)
			if err != nil {
				return err
			}
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: key,
				MaxLen: s.cfg.BufferSize,
				Values: map[string]any{streamField: string(payload)},
			})
			pipe.Expire(ctx, key, s.cfg.TTL)
		}
		return nil
	})
	if err != nil {
		observability.NotificationPublishFailures.Inc()
		return fmt.Errorf("publish event: %w", err)
	}

	observability.NotificationsPublished.WithLabelValues(evt.Type).Inc()
	return nil
}

func (s *notificationService) Since(ctx context.Context, role repo.Role, since time.Time) ([]Event, error) {
	key, err := s.key(role)
	if err != nil {
		return nil, err
	}

	start := "-"
	if !since.IsZero() {
		start = strconv.FormatInt(since.UnixMilli()+1, 10)
	}

	msgs, err := s.rdb.XRange(ctx, key, start, "+").Result()
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return decode(msgs)
}

func (s *notificationService) Next(ctx context.Context, role repo.Role, cursor string, wait time.Duration) ([]Event, error) {
	key, err := s.key(role)
	if err != nil {
		return nil, err
	}
	if cursor == "" {
		cursor = "0"
	} else if !ValidCursor(cursor) {
		return nil, ErrInvalidCursor
	}

	// go-redis sends BLOCK for any non-negative value and BLOCK 0 waits
	// forever, so a zero wait becomes a plain read.
	block := wait
	if block <= 0 {
		block = -1
	}

	streams, err := s.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{key, cursor},
		Count:   s.cfg.BufferSize,
		Block:   block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read events: %w", err)
	}

	var out []Event
	for _, st := range streams {
		evts, err := decode(st.Messages)
		if err != nil {
			return nil, err
		}
		out = append(out, evts...)
	}
	return out, nil
}

// ValidCursor reports whether s is a stream entry id: "<ms>" or "<ms>-<seq>".
func ValidCursor(s string) bool {
	ms, seq, hasSeq := strings.Cut(s, "-")
	if _, err := strconv.ParseUint(ms, 10, 64); err != nil {
		return false
	}
	if hasSeq {
		if _, err := strconv.ParseUint(seq, 10, 64); err != nil {
			return false
		}
	}
	return true
}

func decode(msgs []redis.XMessage) ([]Event, error) {
	out := make([]Event, 0, len(msgs))
	for _, m := range msgs {
		raw, ok := m.Values[streamField].(string)
		if !ok {
			return nil, fmt.Errorf("%w: entry %s", ErrInvalidEvent, m.ID)
		}
		var evt Event
		if err := json.Unmarshal([]byte(raw), &evt); err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrInvalidEvent, m.ID, err)
		}
		evt.ID = m.ID
		out = append(out, evt)
	}
	return out, nil
}
