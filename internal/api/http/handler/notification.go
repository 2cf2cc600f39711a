package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/internal/service/notification"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

const (
	defaultKeepalive = 15 * time.Second
	sseRetryMillis   = 3000
)

type StreamConfig struct {
	// Keepalive bounds each blocking read; an idle read emits a comment line.
	Keepalive time.Duration
	// MaxDuration ends a stream after this long when positive.
	MaxDuration time.Duration
}

type NotificationHandler struct {
	svc  notification.Service
	cfg  StreamConfig
	stop chan struct{}
	once sync.Once
}

func NewNotificationHandler(svc notification.Service, cfg StreamConfig) *NotificationHandler {
	if cfg.Keepalive <= 0 {
		cfg.Keepalive = defaultKeepalive
	}
	return &NotificationHandler{svc: svc, cfg: cfg, stop: make(chan struct{})}
}

// Close ends every open stream. Called on server shutdown.
func (h *NotificationHandler) Close() {
	h.once.Do(func() { close(h.stop) })
}

func mapNotificationError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, notification.ErrNoChannel):
		return forbidden(c, err.Error())
	case errors.Is(err, notification.ErrInvalidCursor):
		return validationFailed(c, validate.Errors{"last_event_id": {err.Error()}})
	default:
		return internalError(c, err)
	}
}

// GET /notifications?since=<unix_ms>
func (h *NotificationHandler) Poll(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < 0 {
			return validationFailed(c, validate.Errors{"since": {"must be a unix timestamp in milliseconds"}})
		}
		since = time.UnixMilli(ms)
	}

	evts, err := h.svc.Since(c.Context(), actor.Role, since)
	if err != nil {
		return mapNotificationError(c, err)
	}
	if evts == nil {
		evts = []notification.Event{}
	}

	return c.JSON(fiber.Map{
		"status":        true,
		"notifications": evts,
		"server_time":   time.Now().UnixMilli(),
	})
}

// GET /notifications/stream
//
// Server-Sent Events. Each connection reads from its own cursor, taken from
// Last-Event-ID on reconnect, so buffered events are replayed before live
// ones.
func (h *NotificationHandler) Stream(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	if !actor.Role.IsStaff() {
		return mapNotificationError(c, notification.ErrNoChannel)
	}

	cursor := c.Get("Last-Event-ID")
	if cursor == "" {
		cursor = c.Query("last_event_id")
	}
	if cursor != "" && !notification.ValidCursor(cursor) {
		return validationFailed(c, validate.Errors{"last_event_id": {notification.ErrInvalidCursor.Error()}})
	}

	// The writer runs after this handler returns, so nothing below may touch c.
	base := context.WithoutCancel(c.Context())
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if h.cfg.MaxDuration > 0 {
		ctx, cancel = context.WithTimeout(base, h.cfg.MaxDuration)
	} else {
		ctx, cancel = context.WithCancel(base)
	}
	go func() {
		select {
		case <-h.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	role := actor.Role
	log := slog.With("user_id", actor.UserID, "role", role)
	log.InfoContext(ctx, "notification stream opened", "cursor", cursor)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer log.InfoContext(ctx, "notification stream closed")

		fmt.Fprintf(w, "retry: %d\n\n", sseRetryMillis)
		if err := w.Flush(); err != nil {
			return
		}

		for ctx.Err() == nil {
			evts, err := h.svc.Next(ctx, role, cursor, h.cfg.Keepalive)
			if err != nil {
				if ctx.Err() == nil {
					log.ErrorContext(ctx, "notification stream read failed", "error", err)
				}
				return
			}

			if len(evts) == 0 {
				fmt.Fprint(w, ": keepalive\n\n")
			}
			for _, evt := range evts {
				if err := writeEvent(w, evt); err != nil {
					log.ErrorContext(ctx, "encode notification", "event_id", evt.ID, "error", err)
					return
				}
				cursor = evt.ID
			}

			// A failed flush means the client went away.
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
}

func writeEvent(w *bufio.Writer, evt notification.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", evt.ID, evt.Type, data)
	return err
}
