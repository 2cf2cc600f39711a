package repo

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// IsStaff reports whether the role may act on appointments it does not own.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// HoldsSeat reports whether an appointment in this status occupies slot capacity.
func (s AppointmentStatus) HoldsSeat() bool {
	return s != StatusCancelled
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PetType string

const (
	PetDog PetType = "dog"
	PetCat PetType = "cat"
)

type ProductKind string

const (
	KindVaccine  ProductKind = "vaccine"
	KindMedicine ProductKind = "medicine"
	KindSupply   ProductKind = "supply"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Role         Role      `json:"role"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Pet has a stable identity owned by one customer and is referenced by
// appointments rather than copied into them.
type Pet struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Type      PetType   `json:"type"`
	Breed     string    `json:"breed"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceDetails maps a service category to the service lines chosen for it,
// e.g. {"Bath": ["Shampoo", "Blow dry"]}.
type ServiceDetails map[string][]string

// AppointmentPet is a pet as booked into one visit.
type AppointmentPet struct {
	Pet
	GroomingDetails ServiceDetails `json:"grooming_details,omitempty"`
	DentalDetails   ServiceDetails `json:"dental_details,omitempty"`
}

type Service struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Appointment struct {
	ID         uuid.UUID         `json:"id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	Date       string            `json:"appointment_date"`
	Time       string            `json:"appointment_time"`
	Status     AppointmentStatus `json:"status"`
	Notes      string            `json:"notes"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	Customer *User            `json:"customer,omitempty"`
	Pets     []AppointmentPet `json:"pets"`
	Services []Service        `json:"services"`
}

// HasPet reports whether petID is booked into the appointment.
func (a *Appointment) HasPet(petID uuid.UUID) bool {
	for _, p := range a.Pets {
		if p.ID == petID {
			return true
		}
	}
	return false
}

type AppointmentFilter struct {
	CustomerID *uuid.UUID
	Status     *AppointmentStatus
	DateFrom   string
	DateTo     string
	Limit      int
	Offset     int
}

type LabTest struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID           int64           `json:"id"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Name         string          `json:"name"`
	Kind         ProductKind     `json:"kind"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
}

// TestLine is a lab test as priced when the record was written.
type TestLine struct {
	LabTestID int64           `json:"lab_test_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

type MedicalRecord struct {
	ID            uuid.UUID       `json:"id"`
	AppointmentID uuid.UUID       `json:"appointment_id"`
	PetID         uuid.UUID       `json:"pet_id"`
	Weight        decimal.Decimal `json:"weight"`
	Symptoms      string          `json:"symptoms"`
	Diagnosis     string          `json:"diagnosis"`
	Treatment     string          `json:"treatment"`
	Tests         []TestLine      `json:"tests"`
	TestCost      decimal.Decimal `json:"test_cost"`
	CreatedAt     time.Time       `json:"created_at"`
}

type MedicalRecordFilter struct {
	AppointmentID *uuid.UUID
	PetID         *uuid.UUID
}

type InventoryUsage struct {
	ID            uuid.UUID       `json:"id"`
	AppointmentID uuid.UUID       `json:"appointment_id"`
	PetID         uuid.UUID       `json:"pet_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Vaccination is a vaccine-kind product consumed for a pet during a completed visit.
type Vaccination struct {
	AppointmentID   uuid.UUID `json:"appointment_id"`
	AppointmentDate string    `json:"appointment_date"`
	PetID           uuid.UUID `json:"pet_id"`
	ProductID       int64     `json:"product_id"`
	Vaccine         string    `json:"vaccine"`
	Quantity        int       `json:"quantity"`
	AdministeredAt  time.Time `json:"administered_at"`
}
