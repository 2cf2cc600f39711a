// Package repo defines the clinic's persistent model and the storage contract
// implemented by the postgres and memory stores.
package repo

import (
	"context"

	"github.com/google/uuid"
)

// Queries is the set of storage operations. Implementations run each call
// either standalone or inside the transaction handed out by Store.WithTx.
type Queries interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)

	CreatePet(ctx context.Context, p *Pet) error
	GetPet(ctx context.Context, id uuid.UUID) (*Pet, error)
	ListPetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]Pet, error)

	ListServices(ctx context.Context) ([]Service, error)
	GetServicesByName(ctx context.Context, names []string) ([]Service, error)

	// ReserveSlot takes one seat in (date, time) if fewer than capacity are
	// taken and returns the new count. It returns ErrSlotFull otherwise.
	ReserveSlot(ctx context.Context, date, time string, capacity int) (int, error)
	ReleaseSlot(ctx context.Context, date, time string) error
	// SlotCounts returns booked seats per time label for date.
	SlotCounts(ctx context.Context, date string) (map[string]int, error)

	// CreateAppointment persists the appointment row with its pet and
	// service links.
	CreateAppointment(ctx context.Context, a *Appointment) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error)
	// TransitionAppointment sets status to `to` only while the current status
	// is one of from. It returns ErrStaleState when the guard fails.
	TransitionAppointment(ctx context.Context, id uuid.UUID, from []AppointmentStatus, to AppointmentStatus) error
	RescheduleAppointment(ctx context.Context, id uuid.UUID, from []AppointmentStatus, date, time string) error
	DeleteAppointment(ctx context.Context, id uuid.UUID, from []AppointmentStatus) error

	ListLabTests(ctx context.Context) ([]LabTest, error)
	GetLabTests(ctx context.Context, ids []int64) ([]LabTest, error)
	ListProducts(ctx context.Context, kind *ProductKind) ([]Product, error)
	GetProducts(ctx context.Context, ids []int64) ([]Product, error)

	CreateMedicalRecord(ctx context.Context, r *MedicalRecord) error
	ListMedicalRecords(ctx context.Context, f MedicalRecordFilter) ([]MedicalRecord, error)

	// ConsumeProduct decrements stock and records the usage. It returns
	// ErrInsufficientStock when stock would go negative.
	ConsumeProduct(ctx context.Context, u *InventoryUsage) error
	ListInventoryUsage(ctx context.Context, appointmentID uuid.UUID) ([]InventoryUsage, error)
	ListVaccinations(ctx context.Context, petID uuid.UUID) ([]Vaccination, error)
}

type Store interface {
	Queries

	// WithTx runs fn in one transaction. Any error from fn rolls back every
	// write made through the Queries it was given.
	WithTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
}
