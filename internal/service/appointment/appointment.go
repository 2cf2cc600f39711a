package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/notification"
	"github.com/pawcare/vetclinic_backend/internal/service/scheduling"
	"github.com/pawcare/vetclinic_backend/pkg/observability"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   repo.Role
}

// PetInput books either an existing pet (PetID) or a new one (Type, Name).
type PetInput struct {
	PetID           *uuid.UUID          `json:"pet_id"`
	Type            repo.PetType        `json:"type" validate:"omitempty,oneof=dog cat"`
	Breed           string              `json:"breed" validate:"max=100"`
	Name            string              `json:"name" validate:"max=100"`
	GroomingDetails repo.ServiceDetails `json:"grooming_details"`
	DentalDetails   repo.ServiceDetails `json:"dental_details"`
}

type CreateRequest struct {
	Date     string     `json:"appointment_date" validate:"required"`
	Time     string     `json:"appointment_time" validate:"required"`
	Notes    string     `json:"notes" validate:"max=1000"`
	Services []string   `json:"services" validate:"min=1,dive,required"`
	Pets     []PetInput `json:"pets" validate:"min=1,max=10,dive"`
}

type CustomerInput struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Phone     string  `json:"phone" validate:"required"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

// WalkInRequest identifies the customer by CustomerID or by Customer
// details; an unknown phone number registers a new customer.
type WalkInRequest struct {
	CustomerID *uuid.UUID     `json:"customer_id"`
	Customer   *CustomerInput `json:"customer"`
	Date       string         `json:"appointment_date" validate:"required"`
	Time       string         `json:"appointment_time" validate:"required"`
	Notes      string         `json:"notes" validate:"max=1000"`
	Services   []string       `json:"services" validate:"min=1,dive,required"`
	Pets       []PetInput     `json:"pets" validate:"min=1,max=10,dive"`
}

func (r WalkInRequest) booking() CreateRequest {
	return CreateRequest{
		Date:     r.Date,
		Time:     r.Time,
		Notes:    r.Notes,
		Services: r.Services,
		Pets:     r.Pets,
	}
}

type RescheduleRequest struct {
	Date string `json:"appointment_date" validate:"required"`
	Time string `json:"appointment_time" validate:"required"`
}

type ListRequest struct {
	CustomerID *uuid.UUID
	Status     *repo.AppointmentStatus
	DateFrom   string
	DateTo     string
	Page       int
	PerPage    int
}

// Notifier receives lifecycle events after commit.
type Notifier interface {
	Publish(ctx context.Context, evt notification.Event, roles ...repo.Role) error
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, actor Actor, req CreateRequest) (*repo.Appointment, error)
	WalkIn(ctx context.Context, actor Actor, req WalkInRequest) (*repo.Appointment, error)

	Get(ctx context.Context, actor Actor, id uuid.UUID) (*repo.Appointment, error)
	ListOwn(ctx context.Context, actor Actor, req ListRequest) ([]repo.Appointment, error)
	ListAll(ctx context.Context, actor Actor, req ListRequest) ([]repo.Appointment, error)
	ListPets(ctx context.Context, actor Actor) ([]repo.Pet, error)

	RescheduleOwn(ctx context.Context, actor Actor, id uuid.UUID, req RescheduleRequest) (*repo.Appointment, error)
	Reschedule(ctx context.Context, actor Actor, id uuid.UUID, req RescheduleRequest) (*repo.Appointment, error)
	CancelOwn(ctx context.Context, actor Actor, id uuid.UUID) (*repo.Appointment, error)
	SetStatus(ctx context.Context, actor Actor, id uuid.UUID, status repo.AppointmentStatus) (*repo.Appointment, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error

	Availability(ctx context.Context, date string) ([]scheduling.SlotAvailability, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	store    repo.Store
	schedule scheduling.Service
	notifier Notifier
	region   string
}

// New wires the lifecycle manager. region is the default phone region for
// walk-in customers.
func New(store repo.Store, schedule scheduling.Service, notifier Notifier, region string) Service {
	return &appointmentService{
		store:    store,
		schedule: schedule,
		notifier: notifier,
		region:   region,
	}
}

// ---------------------------------------------------------------------------
// Booking
// ---------------------------------------------------------------------------

func (s *appointmentService) Create(ctx context.Context, actor Actor, req CreateRequest) (*repo.Appointment, error) {
	if actor.Role != repo.RoleCustomer {
		return nil, ErrForbidden
	}

	errs, err := structErrors(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkBooking(errs, req, false); err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.store.WithTx(ctx, func(q repo.Queries) error {
		a, err := s.book(ctx, q, actor.UserID, req, repo.StatusPending)
		if err != nil {
			return err
		}
		id = a.ID
		return nil
	})
	if err != nil {
		return nil, s.bookingError(ctx, err, req.Date, req.Time)
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	observability.AppointmentsBooked.WithLabelValues("online").Inc()
	s.publish(ctx, notification.EventAppointmentCreated, appt,
		fmt.Sprintf("New appointment from %s on %s at %s", customerName(appt), appt.Date, appt.Time))
	return appt, nil
}

func (s *appointmentService) WalkIn(ctx context.Context, actor Actor, req WalkInRequest) (*repo.Appointment, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}

	errs, err := structErrors(req)
	if err != nil {
		return nil, err
	}
	var phone string
	switch {
	case req.CustomerID != nil:
	case req.Customer == nil:
		errs.Add("customer", "is required")
	default:
		phone, err = normalizePhone(req.Customer.Phone, s.region)
		if err != nil && len(errs["customer.phone"]) == 0 {
			errs.Add("customer.phone", "must be a valid phone number")
		}
	}
	booking := req.booking()
	if err := s.checkBooking(errs, booking, true); err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.store.WithTx(ctx, func(q repo.Queries) error {
		customerID, err := s.resolveCustomer(ctx, q, req, phone)
		if err != nil {
			return err
		}
		a, err := s.book(ctx, q, customerID, booking, repo.StatusConfirmed)
		if err != nil {
			return err
		}
		id = a.ID
		return nil
	})
	if err != nil {
		return nil, s.bookingError(ctx, err, req.Date, req.Time)
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	observability.AppointmentsBooked.WithLabelValues("walk_in").Inc()
	s.publish(ctx, notification.EventAppointmentCreated, appt,
		fmt.Sprintf("Walk-in appointment for %s on %s at %s", customerName(appt), appt.Date, appt.Time))
	return appt, nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (s *appointmentService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*repo.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, appt) {
		return nil, ErrForbidden
	}
	return appt, nil
}

func (s *appointmentService) ListOwn(ctx context.Context, actor Actor, req ListRequest) ([]repo.Appointment, error) {
	req.CustomerID = &actor.UserID
	return s.list(ctx, req)
}

func (s *appointmentService) ListAll(ctx context.Context, actor Actor, req ListRequest) ([]repo.Appointment, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	return s.list(ctx, req)
}

func (s *appointmentService) list(ctx context.Context, req ListRequest) ([]repo.Appointment, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}

	appts, err := s.store.ListAppointments(ctx, repo.AppointmentFilter{
		CustomerID: req.CustomerID,
		Status:     req.Status,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Limit:      req.PerPage,
		Offset:     (req.Page - 1) * req.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *appointmentService) ListPets(ctx context.Context, actor Actor) ([]repo.Pet, error) {
	pets, err := s.store.ListPetsByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	return pets, nil
}

func (s *appointmentService) Availability(ctx context.Context, date string) ([]scheduling.SlotAvailability, error) {
	return s.schedule.Availability(ctx, date)
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (s *appointmentService) RescheduleOwn(ctx context.Context, actor Actor, id uuid.UUID, req RescheduleRequest) (*repo.Appointment, error) {
	if actor.Role != repo.RoleCustomer {
		return nil, ErrForbidden
	}
	return s.reschedule(ctx, actor, id, req, false)
}

func (s *appointmentService) Reschedule(ctx context.Context, actor Actor, id uuid.UUID, req RescheduleRequest) (*repo.Appointment, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	return s.reschedule(ctx, actor, id, req, true)
}

// reschedule takes a seat in the new slot before giving up the old one, in
// one transaction, so a full target slot leaves the booking untouched.
func (s *appointmentService) reschedule(ctx context.Context, actor Actor, id uuid.UUID, req RescheduleRequest, sameDay bool) (*repo.Appointment, error) {
	errs, err := structErrors(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkSlot(errs, req.Date, req.Time, sameDay); err != nil {
		return nil, err
	}

	var before *repo.Appointment
	err = s.store.WithTx(ctx, func(q repo.Queries) error {
		a, err := s.guarded(ctx, q, actor, id, ActionReschedule)
		if err != nil {
			return err
		}
		before = a
		if a.Date == req.Date && a.Time == req.Time {
			return nil
		}

		if _, err := q.ReserveSlot(ctx, req.Date, req.Time, s.schedule.Capacity()); err != nil {
			return err
		}
		if err := q.RescheduleAppointment(ctx, id, []repo.AppointmentStatus{a.Status}, req.Date, req.Time); err != nil {
			return stateError(err)
		}
		return q.ReleaseSlot(ctx, a.Date, a.Time)
	})
	if err != nil {
		return nil, s.bookingError(ctx, err, req.Date, req.Time)
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.Date != appt.Date || before.Time != appt.Time {
		observability.AppointmentTransitions.WithLabelValues(string(ActionReschedule)).Inc()
		s.publish(ctx, notification.EventAppointmentRescheduled, appt,
			fmt.Sprintf("Appointment for %s moved from %s %s to %s %s",
				customerName(appt), before.Date, before.Time, appt.Date, appt.Time))
	}
	return appt, nil
}

func (s *appointmentService) CancelOwn(ctx context.Context, actor Actor, id uuid.UUID) (*repo.Appointment, error) {
	if actor.Role != repo.RoleCustomer {
		return nil, ErrForbidden
	}
	return s.transition(ctx, actor, id, ActionCancel)
}

func (s *appointmentService) SetStatus(ctx context.Context, actor Actor, id uuid.UUID, status repo.AppointmentStatus) (*repo.Appointment, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	action, err := ActionFor(status)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, action)
}

func (s *appointmentService) transition(ctx context.Context, actor Actor, id uuid.UUID, action Action) (*repo.Appointment, error) {
	to, _ := Target(action)

	var from repo.AppointmentStatus
	err := s.store.WithTx(ctx, func(q repo.Queries) error {
		a, err := s.guarded(ctx, q, actor, id, action)
		if err != nil {
			return err
		}
		from = a.Status

		if err := q.TransitionAppointment(ctx, id, []repo.AppointmentStatus{a.Status}, to); err != nil {
			return stateError(err)
		}
		if a.Status.HoldsSeat() && !to.HoldsSeat() {
			return q.ReleaseSlot(ctx, a.Date, a.Time)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	observability.AppointmentTransitions.WithLabelValues(string(action)).Inc()
	evtType := notification.EventAppointmentStatusChanged
	msg := fmt.Sprintf("Appointment for %s on %s at %s is now %s", customerName(appt), appt.Date, appt.Time, to)
	if to == repo.StatusCancelled {
		evtType = notification.EventAppointmentCancelled
		msg = fmt.Sprintf("Appointment for %s on %s at %s was cancelled", customerName(appt), appt.Date, appt.Time)
	}
	s.publish(ctx, evtType, appt, msg, "from", string(from))
	return appt, nil
}

func (s *appointmentService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.Role.IsStaff() {
		return ErrForbidden
	}

	var deleted *repo.Appointment
	err := s.store.WithTx(ctx, func(q repo.Queries) error {
		a, err := s.guarded(ctx, q, actor, id, ActionDelete)
		if err != nil {
			return err
		}
		if err := q.DeleteAppointment(ctx, id, []repo.AppointmentStatus{a.Status}); err != nil {
			return stateError(err)
		}
		deleted = a
		if a.Status.HoldsSeat() {
			return q.ReleaseSlot(ctx, a.Date, a.Time)
		}
		return nil
	})
	if err != nil {
		return err
	}

	observability.AppointmentTransitions.WithLabelValues(string(ActionDelete)).Inc()
	s.publish(ctx, notification.EventAppointmentDeleted, deleted,
		fmt.Sprintf("Appointment for %s on %s at %s was deleted", customerName(deleted), deleted.Date, deleted.Time))
	return nil
}

// guarded loads id inside q and checks that actor may apply action to it.
func (s *appointmentService) guarded(ctx context.Context, q repo.Queries, actor Actor, id uuid.UUID, action Action) (*repo.Appointment, error) {
	a, err := q.GetAppointment(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if !canView(actor, a) {
		return nil, ErrForbidden
	}
	if err := CheckTransition(action, actor.Role, a.Status); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *appointmentService) load(ctx context.Context, id uuid.UUID) (*repo.Appointment, error) {
	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func canView(actor Actor, a *repo.Appointment) bool {
	return actor.Role.IsStaff() || a.CustomerID == actor.UserID
}

// stateError maps a failed compare-and-set to the lifecycle error.
func stateError(err error) error {
	switch {
	case errors.Is(err, repo.ErrStaleState):
		return fmt.Errorf("%w: appointment changed concurrently", ErrInvalidTransition)
	case repo.IsNotFound(err):
		return ErrNotFound
	}
	return err
}
