package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/repo/memory"
	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
)

func TestAppointmentsWorkbook(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	u := &repo.User{Role: repo.RoleCustomer, FirstName: "Ana", LastName: "Reyes", Phone: "+639171234567"}
	require.NoError(t, store.CreateUser(ctx, u))
	pet := &repo.Pet{OwnerID: u.ID, Type: repo.PetDog, Name: "Rex"}
	require.NoError(t, store.CreatePet(ctx, pet))
	require.NoError(t, store.CreateAppointment(ctx, &repo.Appointment{
		CustomerID: u.ID,
		Date:       "2030-01-03",
		Time:       "9:00 AM",
		Status:     repo.StatusPending,
		Notes:      "first visit",
		Pets:       []repo.AppointmentPet{{Pet: *pet}},
		Services:   []repo.Service{{ID: 2}, {ID: 6}},
	}))

	staff := appointment.Actor{UserID: uuid.New(), Role: repo.RoleStaff}
	data, err := New(store).Appointments(ctx, staff, Request{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, []string{
		"2030-01-03", "9:00 AM", "pending", "Ana Reyes", "+639171234567",
		"Rex (dog)", "Vaccination, Consultation", "first visit",
	}, rows[1])
}

func TestAppointmentsRequiresStaff(t *testing.T) {
	customer := appointment.Actor{UserID: uuid.New(), Role: repo.RoleCustomer}
	_, err := New(memory.New()).Appointments(context.Background(), customer, Request{})
	assert.ErrorIs(t, err, appointment.ErrForbidden)
}

func TestAppointmentsEmpty(t *testing.T) {
	admin := appointment.Actor{UserID: uuid.New(), Role: repo.RoleAdmin}
	data, err := New(memory.New()).Appointments(context.Background(), admin, Request{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
