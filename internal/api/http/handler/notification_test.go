package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/notification"
	pasetotoken "github.com/pawcare/vetclinic_backend/pkg/paseto"
)

func newRelay(t *testing.T) notification.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return notification.New(rdb, notification.Config{BufferSize: 50, TTL: time.Hour})
}

func streamApp(h *NotificationHandler, role repo.Role) *fiber.App {
	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		c.Locals(pasetotoken.CtxKeyClaims, &pasetotoken.Claims{
			Type:   pasetotoken.TokenTypeAccess,
			UserID: uuid.New(),
			Role:   string(role),
		})
		return c.Next()
	})
	app.Get("/notifications/stream", h.Stream)
	return app
}

// openStream runs one stream request to completion and returns its body.
func openStream(t *testing.T, app *fiber.App, lastEventID string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/notifications/stream", nil)
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func publishN(t *testing.T, svc notification.Service, n int) []notification.Event {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		require.NoError(t, svc.Publish(ctx, notification.Event{
			Type:    notification.EventAppointmentCreated,
			Message: "booking " + string(rune('A'+i)),
		}, repo.RoleStaff))
	}
	evts, err := svc.Since(ctx, repo.RoleStaff, time.Time{})
	require.NoError(t, err)
	require.Len(t, evts, n)
	return evts
}

func TestStreamReplaysBufferWithFraming(t *testing.T) {
	svc := newRelay(t)
	evts := publishN(t, svc, 2)

	h := NewNotificationHandler(svc, StreamConfig{Keepalive: 20 * time.Millisecond, MaxDuration: 200 * time.Millisecond})
	status, body := openStream(t, streamApp(h, repo.RoleStaff), "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, strings.HasPrefix(body, "retry: 3000\n\n"), body)
	for _, evt := range evts {
		assert.Contains(t, body, "id: "+evt.ID+"\nevent: appointment.created\ndata: {")
	}
	assert.Less(t, strings.Index(body, "booking A"), strings.Index(body, "booking B"))
	assert.Contains(t, body, ": keepalive\n\n")
}

func TestStreamResumesAfterLastEventID(t *testing.T) {
	svc := newRelay(t)
	evts := publishN(t, svc, 3)

	h := NewNotificationHandler(svc, StreamConfig{Keepalive: 20 * time.Millisecond, MaxDuration: 200 * time.Millisecond})
	_, body := openStream(t, streamApp(h, repo.RoleStaff), evts[0].ID)

	assert.NotContains(t, body, "id: "+evts[0].ID+"\n")
	assert.Contains(t, body, "id: "+evts[1].ID+"\n")
	assert.Contains(t, body, "id: "+evts[2].ID+"\n")
}

func TestStreamRejectsMalformedLastEventID(t *testing.T) {
	h := NewNotificationHandler(newRelay(t), StreamConfig{})
	status, body := openStream(t, streamApp(h, repo.RoleStaff), "not-an-id")

	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "last_event_id")
	assert.NotContains(t, body, "retry:")
}

func TestStreamForbiddenForCustomers(t *testing.T) {
	h := NewNotificationHandler(newRelay(t), StreamConfig{})
	status, _ := openStream(t, streamApp(h, repo.RoleCustomer), "")
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestStreamEndsOnClose(t *testing.T) {
	h := NewNotificationHandler(newRelay(t), StreamConfig{Keepalive: 20 * time.Millisecond})
	timer := time.AfterFunc(150*time.Millisecond, h.Close)
	defer timer.Stop()

	start := time.Now()
	status, body := openStream(t, streamApp(h, repo.RoleStaff), "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, strings.HasPrefix(body, "retry: 3000\n\n"), body)
	assert.Less(t, time.Since(start), 5*time.Second)
}
