package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(q repo.Queries) error {
		require.NoError(t, q.CreateUser(ctx, &repo.User{Role: repo.RoleCustomer, Phone: "+639171234567"}))
		_, err := q.ReserveSlot(ctx, "2030-01-07", "9:00 AM", 3)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetUserByPhone(ctx, "+639171234567")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	counts, err := s.SlotCounts(ctx, "2030-01-07")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.WithTx(ctx, func(q repo.Queries) error {
		return q.CreateUser(ctx, &repo.User{Role: repo.RoleCustomer, Phone: "+639171234567"})
	})
	require.NoError(t, err)

	u, err := s.GetUserByPhone(ctx, "+639171234567")
	require.NoError(t, err)
	assert.Equal(t, repo.RoleCustomer, u.Role)
}

func TestReserveSlotCapacityUnderContention(t *testing.T) {
	ctx := context.Background()
	s := New()

	var ok, full atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ReserveSlot(ctx, "2030-01-07", "9:00 AM", 3)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, repo.ErrSlotFull):
				full.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 3, ok.Load())
	assert.EqualValues(t, 17, full.Load())

	counts, err := s.SlotCounts(ctx, "2030-01-07")
	require.NoError(t, err)
	assert.Equal(t, 3, counts["9:00 AM"])

	require.NoError(t, s.ReleaseSlot(ctx, "2030-01-07", "9:00 AM"))
	n, err := s.ReserveSlot(ctx, "2030-01-07", "9:00 AM", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestTransitionGuard(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &repo.User{Role: repo.RoleCustomer, Phone: "+639171234567"}
	require.NoError(t, s.CreateUser(ctx, u))
	a := &repo.Appointment{CustomerID: u.ID, Date: "2030-01-07", Time: "9:00 AM", Status: repo.StatusPending}
	require.NoError(t, s.CreateAppointment(ctx, a))

	err := s.TransitionAppointment(ctx, a.ID, []repo.AppointmentStatus{repo.StatusConfirmed}, repo.StatusCompleted)
	assert.ErrorIs(t, err, repo.ErrStaleState)

	err = s.TransitionAppointment(ctx, a.ID, []repo.AppointmentStatus{repo.StatusPending}, repo.StatusConfirmed)
	require.NoError(t, err)

	got, err := s.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.StatusConfirmed, got.Status)
}

func TestConsumeProductStock(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.SetStock(1, 1)

	u := &repo.User{Role: repo.RoleCustomer, Phone: "+639171234567"}
	require.NoError(t, s.CreateUser(ctx, u))
	pet := &repo.Pet{OwnerID: u.ID, Type: repo.PetDog, Name: "Rex"}
	require.NoError(t, s.CreatePet(ctx, pet))
	a := &repo.Appointment{CustomerID: u.ID, Date: "2030-01-07", Time: "9:00 AM", Status: repo.StatusConfirmed}
	require.NoError(t, s.CreateAppointment(ctx, a))

	require.NoError(t, s.ConsumeProduct(ctx, &repo.InventoryUsage{AppointmentID: a.ID, PetID: pet.ID, ProductID: 1, Quantity: 1}))
	err := s.ConsumeProduct(ctx, &repo.InventoryUsage{AppointmentID: a.ID, PetID: pet.ID, ProductID: 1, Quantity: 1})
	assert.ErrorIs(t, err, repo.ErrInsufficientStock)

	// Not completed yet, so nothing counts as administered.
	vax, err := s.ListVaccinations(ctx, pet.ID)
	require.NoError(t, err)
	assert.Empty(t, vax)

	require.NoError(t, s.TransitionAppointment(ctx, a.ID, []repo.AppointmentStatus{repo.StatusConfirmed}, repo.StatusCompleted))
	vax, err = s.ListVaccinations(ctx, pet.ID)
	require.NoError(t, err)
	require.Len(t, vax, 1)
	assert.Equal(t, "Anti-Rabies Vaccine", vax[0].Vaccine)
}
