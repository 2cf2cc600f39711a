package medical

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/repo/memory"
	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
	"github.com/pawcare/vetclinic_backend/internal/service/notification"
	"github.com/pawcare/vetclinic_backend/internal/service/scheduling"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

var fixedNow = time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Publish(_ context.Context, evt notification.Event, _ ...repo.Role) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return nil
}

type fixture struct {
	store    *memory.Store
	appts    appointment.Service
	svc      Service
	notifier *recordingNotifier
	staff    appointment.Actor
	owner    appointment.Actor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewWithClock(func() time.Time { return fixedNow })
	sched, err := scheduling.New(scheduling.Config{
		Opening:     "08:00",
		LastBooking: "16:30",
		SlotMinutes: 30,
		Capacity:    3,
		Now:         func() time.Time { return fixedNow },
	}, store)
	require.NoError(t, err)

	staff := &repo.User{Role: repo.RoleStaff, FirstName: "Vet", Phone: "+639170000001"}
	require.NoError(t, store.CreateUser(ctx, staff))
	owner := &repo.User{Role: repo.RoleCustomer, FirstName: "Ana", LastName: "Reyes", Phone: "+639171234567"}
	require.NoError(t, store.CreateUser(ctx, owner))

	n := &recordingNotifier{}
	return &fixture{
		store:    store,
		appts:    appointment.New(store, sched, n, "PH"),
		svc:      New(store, n),
		notifier: n,
		staff:    appointment.Actor{UserID: staff.ID, Role: repo.RoleStaff},
		owner:    appointment.Actor{UserID: owner.ID, Role: repo.RoleCustomer},
	}
}

// confirmed books the given pets for next Monday and confirms the visit.
func (f *fixture) confirmed(t *testing.T, pets ...appointment.PetInput) *repo.Appointment {
	t.Helper()
	ctx := context.Background()

	a, err := f.appts.Create(ctx, f.owner, appointment.CreateRequest{
		Date:     "2030-01-07",
		Time:     "9:00 AM",
		Services: []string{"Health Checkups"},
		Pets:     pets,
	})
	require.NoError(t, err)
	a, err = f.appts.SetStatus(ctx, f.staff, a.ID, repo.StatusConfirmed)
	require.NoError(t, err)
	return a
}

func TestCompleteRexWithoutTests(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.confirmed(t, appointment.PetInput{Type: repo.PetDog, Breed: "Poodle", Name: "Rex"})
	rex := a.Pets[0].ID

	res, err := f.svc.Complete(ctx, f.staff, CompleteRequest{
		AppointmentID: a.ID,
		Records: []PetRecordInput{{
			PetID:     rex,
			Weight:    "5.2",
			Symptoms:  "lethargy",
			Diagnosis: "mild infection",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, repo.StatusCompleted, res.Appointment.Status)
	require.Len(t, res.Records, 1)
	assert.True(t, res.Records[0].TestCost.IsZero())
	assert.True(t, res.TotalTestCost.IsZero())
	assert.Equal(t, "5.2", res.Records[0].Weight.String())

	records, err := f.svc.ListByAppointment(ctx, f.owner, a.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "mild infection", records[0].Diagnosis)

	last := f.notifier.events[len(f.notifier.events)-1]
	assert.Equal(t, notification.EventAppointmentCompleted, last.Type)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	a, err := f.appts.Create(ctx, f.owner, appointment.CreateRequest{
		Date:     "2030-01-07",
		Time:     "9:00 AM",
		Services: []string{"Consultation"},
		Pets:     []appointment.PetInput{{Type: repo.PetCat, Name: "Mochi"}},
	})
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, f.staff, CompleteRequest{AppointmentID: a.ID})
	assert.ErrorIs(t, err, appointment.ErrInvalidTransition)

	_, err = f.svc.Complete(ctx, f.owner, CompleteRequest{AppointmentID: a.ID})
	assert.ErrorIs(t, err, appointment.ErrForbidden)

	_, err = f.svc.Complete(ctx, f.staff, CompleteRequest{AppointmentID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompletePartialRecordIsRejected(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.confirmed(t,
		appointment.PetInput{Type: repo.PetDog, Name: "Rex"},
		appointment.PetInput{Type: repo.PetCat, Name: "Mochi"},
	)

	_, err := f.svc.Complete(ctx, f.staff, CompleteRequest{
		AppointmentID: a.ID,
		Records: []PetRecordInput{
			{PetID: a.Pets[0].ID, Weight: "5.2", Symptoms: "cough", Diagnosis: "kennel cough"},
			{PetID: a.Pets[1].ID, Treatment: "rest"},
		},
	})
	ve, ok := validate.As(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	assert.Contains(t, ve, "records.1.weight")
	assert.Contains(t, ve, "records.1.symptoms")
	assert.Contains(t, ve, "records.1.diagnosis")
	assert.NotContains(t, ve, "records.0.weight")

	got, err := f.appts.Get(ctx, f.staff, a.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.StatusConfirmed, got.Status, "nothing is written when a record is invalid")
}

func TestCompleteSkipsBlankRecords(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.confirmed(t,
		appointment.PetInput{Type: repo.PetDog, Name: "Rex"},
		appointment.PetInput{Type: repo.PetCat, Name: "Mochi"},
	)

	res, err := f.svc.Complete(ctx, f.staff, CompleteRequest{
		AppointmentID: a.ID,
		Records: []PetRecordInput{
			{PetID: a.Pets[0].ID, Weight: "4", Symptoms: "itching", Diagnosis: "fleas"},
			{PetID: a.Pets[1].ID},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, a.Pets[0].ID, res.Records[0].PetID)
}

func TestCompletePricesTestsFromCatalog(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.confirmed(t,
		appointment.PetInput{Type: repo.PetDog, Name: "Rex"},
		appointment.PetInput{Type: repo.PetCat, Name: "Mochi"},
	)

	res, err := f.svc.Complete(ctx, f.staff, CompleteRequest{
		AppointmentID: a.ID,
		Records: []PetRecordInput{
			{PetID: a.Pets[0].ID, Weight: "12.5", Symptoms: "vomiting", Diagnosis: "parvo", LabTestIDs: []int64{1, 6}},
			{PetID: a.Pets[1].ID, Weight: "3.1", Symptoms: "none", Diagnosis: "healthy", LabTestIDs: []int64{4}},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	byPet := map[uuid.UUID]repo.MedicalRecord{}
	for _, r := range res.Records {
		byPet[r.PetID] = r
	}
	assert.True(t, decimal.RequireFromString("1550").Equal(byPet[a.Pets[0].ID].TestCost))
	assert.True(t, decimal.RequireFromString("250").Equal(byPet[a.Pets[1].ID].TestCost))
	assert.True(t, decimal.RequireFromString("1800").Equal(res.TotalTestCost))
	assert.Equal(t, "Parvo Test Kit", byPet[a.Pets[0].ID].Tests[1].Name)
}

func TestCompleteChargesRepeatedLabTestOnce(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.confirmed(t, appointment.PetInput{Type: repo.PetDog, Breed: "Poodle", Name: "Rex"})

	res, err := f.svc.Complete(ctx, f.staff, CompleteRequest{
		AppointmentID: a.ID,
		Records: []PetRecordInput{{
			PetID:      a.Pets[0].ID,
			Weight:     "5.2",
			Symptoms:   "lethargy",
			Diagnosis:  "anemia",
			LabTestIDs: []int64{1, 1, 1},
		}},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	require.Len(t, rec.Tests, 1)
	assert.Equal(t, "Complete Blood Count", rec.Tests[0].Name)
	assert.True(t, decimal.RequireFromString("650").Equal(rec.TestCost), "test_cost = %s", rec.TestCost)
	assert.True(t, decimal.RequireFromString("650").Equal(res.TotalTestCost))
}

func TestUniqueIDs(t *testing.T) {
	tests := []struct {
		in   []int64
		want []int64
	}{
		{nil, nil},
		{[]int64{4}, []int64{4}},
		{[]int64{1, 1, 1}, []int64{1}},
		{[]int64{6, 1, 6, 4, 1}, []int64{6, 1, 4}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, uniqueIDs(tt.in), "uniqueIDs(%v)", tt.in)
	}
}

func TestCompleteRejectsUnknownReferences(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.confirmed(t, appointment.PetInput{Type: repo.PetDog, Name: "Rex"})

	_, err := f.svc.Complete(ctx, f.staff, CompleteRequest{
		AppointmentID: a.ID,
		Records: []PetRecordInput{
			{PetID: uuid.New(), Weight: "1", Symptoms: "x", Diagnosis: "y", LabTestIDs: []int64{99}},
			{PetID: a.Pets[0].ID, Weight: "1", Symptoms: "x", Diagnosis: "y", Products: []ProductUse{{ProductID: 42, Quantity: 1}}},
		},
	})
	ve, ok := validate.As(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	assert.Contains(t, ve, "records.0.pet_id")
	assert.Equal(t, []string{"unknown lab test 99"}, ve["records.0.lab_test_ids"])
	assert.Contains(t, ve, "records.1.products.0.product_id")
}

func TestCompleteConsumesStockAndBills(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.confirmed(t, appointment.PetInput{Type: repo.PetDog, Name: "Rex"})
	rex := a.Pets[0].ID

	_, err := f.svc.Complete(ctx, f.staff, CompleteRequest{
		AppointmentID: a.ID,
		Records: []PetRecordInput{{
			PetID:      rex,
			Weight:     "8",
			Symptoms:   "annual visit",
			Diagnosis:  "healthy",
			LabTestIDs: []int64{3},
			Products: []ProductUse{
				{ProductID: 1, Quantity: 1},
				{ProductID: 4, Quantity: 10},
			},
		}},
	})
	require.NoError(t, err)

	kind := repo.KindMedicine
	meds, err := f.store.ListProducts(ctx, &kind)
	require.NoError(t, err)
	for _, p := range meds {
		if p.ID == 4 {
			assert.Equal(t, 490, p.Stock)
		}
	}

	bill, err := f.svc.Bill(ctx, f.staff, a.ID)
	require.NoError(t, err)
	require.Len(t, bill.Lines, 3)
	assert.True(t, decimal.RequireFromString("350").Equal(bill.LabTestTotal))
	assert.True(t, decimal.RequireFromString("600").Equal(bill.ProductTotal), bill.ProductTotal.String())
	assert.True(t, decimal.RequireFromString("950").Equal(bill.Total))

	_, err = f.svc.Bill(ctx, f.owner, a.ID)
	assert.ErrorIs(t, err, appointment.ErrForbidden)

	vaccines, err := f.svc.VaccinationHistory(ctx, f.owner, rex)
	require.NoError(t, err)
	require.Len(t, vaccines, 1, "medicines are not vaccinations")
	assert.Equal(t, "Anti-Rabies Vaccine", vaccines[0].Vaccine)
	assert.Equal(t, "2030-01-07", vaccines[0].AppointmentDate)
}

func TestCompleteInsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.store.SetStock(6, 1)
	a := f.confirmed(t, appointment.PetInput{Type: repo.PetDog, Name: "Rex"})

	_, err := f.svc.Complete(ctx, f.staff, CompleteRequest{
		AppointmentID: a.ID,
		Records: []PetRecordInput{{
			PetID:     a.Pets[0].ID,
			Weight:    "8",
			Symptoms:  "hot spot",
			Diagnosis: "dermatitis",
			Products:  []ProductUse{{ProductID: 6, Quantity: 2}},
		}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	got, err := f.appts.Get(ctx, f.staff, a.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.StatusConfirmed, got.Status)
	records, err := f.svc.ListByAppointment(ctx, f.staff, a.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPetRecordAccess(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.confirmed(t, appointment.PetInput{Type: repo.PetDog, Name: "Rex"})
	rex := a.Pets[0].ID

	stranger := &repo.User{Role: repo.RoleCustomer, Phone: "+639179999999"}
	require.NoError(t, f.store.CreateUser(ctx, stranger))
	other := appointment.Actor{UserID: stranger.ID, Role: repo.RoleCustomer}

	_, err := f.svc.ListByPet(ctx, other, rex)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.VaccinationHistory(ctx, other, rex)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ListByAppointment(ctx, other, a.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ListByPet(ctx, f.staff, uuid.New())
	assert.ErrorIs(t, err, ErrPetNotFound)

	records, err := f.svc.ListByPet(ctx, f.owner, rex)
	require.NoError(t, err)
	assert.Empty(t, records)
}
