package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

// testDate is far enough out that it never collides with real bookings.
const testDate = "2099-03-02"

// newTestStore connects to VETCLINIC_TEST_DSN, migrates it and returns a
// store. The test is skipped when the variable is unset.
func newTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("VETCLINIC_TEST_DSN")
	if dsn == "" {
		t.Skip("VETCLINIC_TEST_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return New(pool), pool
}

func clearSlot(t *testing.T, pool *pgxpool.Pool, date string) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `DELETE FROM slot_counters WHERE slot_date = $1::date`, date)
	require.NoError(t, err)
}

func TestReserveSlotConcurrentCallers(t *testing.T) {
	store, pool := newTestStore(t)
	ctx := context.Background()
	clearSlot(t, pool, testDate)
	t.Cleanup(func() { clearSlot(t, pool, testDate) })

	const (
		callers  = 12
		capacity = 3
	)

	var (
		wg             sync.WaitGroup
		mu             sync.Mutex
		reserved, full int
		other          []error
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithTx(ctx, func(q repo.Queries) error {
				_, err := q.ReserveSlot(ctx, testDate, "9:00 AM", capacity)
				return err
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				reserved++
			case errors.Is(err, repo.ErrSlotFull):
				full++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, capacity, reserved)
	assert.Equal(t, callers-capacity, full)

	counts, err := store.SlotCounts(ctx, testDate)
	require.NoError(t, err)
	assert.Equal(t, capacity, counts["9:00 AM"])
}

func TestReserveSlotRolledBackWithTx(t *testing.T) {
	store, pool := newTestStore(t)
	ctx := context.Background()
	clearSlot(t, pool, testDate)
	t.Cleanup(func() { clearSlot(t, pool, testDate) })

	boom := errors.New("later step failed")
	err := store.WithTx(ctx, func(q repo.Queries) error {
		if _, err := q.ReserveSlot(ctx, testDate, "10:00 AM", 3); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	counts, err := store.SlotCounts(ctx, testDate)
	require.NoError(t, err)
	assert.Zero(t, counts["10:00 AM"])
}

func TestTransitionAppointmentSingleWinner(t *testing.T) {
	store, pool := newTestStore(t)
	ctx := context.Background()

	owner := &repo.User{
		Role:      repo.RoleCustomer,
		FirstName: "Ana",
		Phone:     fmt.Sprintf("+6391%08d", rand.IntN(100_000_000)),
	}
	require.NoError(t, store.CreateUser(ctx, owner))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, owner.ID)
	})

	a := &repo.Appointment{
		CustomerID: owner.ID,
		Date:       testDate,
		Time:       "9:00 AM",
		Status:     repo.StatusPending,
	}
	require.NoError(t, store.CreateAppointment(ctx, a))

	const callers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		won, stale int
		unexpected []error
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.TransitionAppointment(ctx, a.ID,
				[]repo.AppointmentStatus{repo.StatusPending}, repo.StatusCancelled)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, repo.ErrStaleState):
				stale++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, unexpected)
	assert.Equal(t, 1, won)
	assert.Equal(t, callers-1, stale)

	got, err := store.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.StatusCancelled, got.Status)

	err = store.TransitionAppointment(ctx, uuid.New(),
		[]repo.AppointmentStatus{repo.StatusPending}, repo.StatusCancelled)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
