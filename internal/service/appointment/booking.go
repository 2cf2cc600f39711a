package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/notification"
	"github.com/pawcare/vetclinic_backend/internal/service/scheduling"
	"github.com/pawcare/vetclinic_backend/pkg/observability"
	"github.com/pawcare/vetclinic_backend/pkg/util/phone"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

const publishTimeout = 2 * time.Second

func structErrors(v any) (validate.Errors, error) {
	err := validate.Struct(v)
	if err == nil {
		return validate.Errors{}, nil
	}
	if ve, ok := validate.As(err); ok {
		return ve, nil
	}
	return nil, err
}

func normalizePhone(raw, region string) (string, error) {
	return phone.Normalize(raw, region)
}

// checkBooking adds pet and slot problems to errs. Shape problems come back
// as validate.Errors; a well-formed request for a closed or past date comes
// back as the scheduling error.
func (s *appointmentService) checkBooking(errs validate.Errors, req CreateRequest, sameDay bool) error {
	seen := map[uuid.UUID]bool{}
	for i, p := range req.Pets {
		prefix := fmt.Sprintf("pets.%d.", i)
		if p.PetID != nil {
			if seen[*p.PetID] {
				errs.Add(prefix+"pet_id", "is listed more than once")
			}
			seen[*p.PetID] = true
			continue
		}
		if p.Type == "" {
			errs.Add(prefix+"type", "is required")
		}
		if strings.TrimSpace(p.Name) == "" {
			errs.Add(prefix+"name", "is required")
		}
	}
	return s.checkSlot(errs, req.Date, req.Time, sameDay)
}

func (s *appointmentService) checkSlot(errs validate.Errors, date, label string, sameDay bool) error {
	var conflict error
	if date != "" && len(errs["appointment_date"]) == 0 {
		if err := s.schedule.ValidateDate(date, sameDay); err != nil {
			if errors.Is(err, scheduling.ErrInvalidDate) {
				errs.Add("appointment_date", "must be formatted YYYY-MM-DD")
			} else {
				conflict = err
			}
		}
	}
	if label != "" && len(errs["appointment_time"]) == 0 {
		if err := s.schedule.ValidateTime(label); err != nil {
			errs.Add("appointment_time", "is not a bookable slot")
		}
	}

	if err := errs.Err(); err != nil {
		return err
	}
	if conflict != nil {
		observability.BookingRejections.WithLabelValues(rejectionReason(conflict)).Inc()
		return conflict
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, scheduling.ErrClosedDay):
		return "closed_day"
	case errors.Is(err, scheduling.ErrDateNotInFuture), errors.Is(err, scheduling.ErrDateInPast):
		return "past_date"
	case errors.Is(err, repo.ErrSlotFull):
		return "slot_full"
	}
	return "other"
}

// book writes the appointment graph inside q: the seat first, then pets and
// links. Any error leaves the caller's transaction to roll everything back.
func (s *appointmentService) book(ctx context.Context, q repo.Queries, customerID uuid.UUID, req CreateRequest, status repo.AppointmentStatus) (*repo.Appointment, error) {
	if _, err := q.ReserveSlot(ctx, req.Date, req.Time, s.schedule.Capacity()); err != nil {
		if errors.Is(err, repo.ErrSlotFull) {
			return nil, err
		}
		return nil, fmt.Errorf("reserve slot: %w", err)
	}

	services, err := resolveServices(ctx, q, req.Services)
	if err != nil {
		return nil, err
	}
	pets, err := resolvePets(ctx, q, customerID, req.Pets)
	if err != nil {
		return nil, err
	}

	a := &repo.Appointment{
		CustomerID: customerID,
		Date:       req.Date,
		Time:       req.Time,
		Status:     status,
		Notes:      strings.TrimSpace(req.Notes),
		Pets:       pets,
		Services:   services,
	}
	if err := q.CreateAppointment(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return a, nil
}

func resolveServices(ctx context.Context, q repo.Queries, requested []string) ([]repo.Service, error) {
	var names []string
	seen := map[string]bool{}
	for _, n := range requested {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}

	found, err := q.GetServicesByName(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("get services: %w", err)
	}
	if len(found) == len(names) {
		return found, nil
	}

	have := map[string]bool{}
	for _, svc := range found {
		have[svc.Name] = true
	}
	errs := validate.Errors{}
	for _, n := range names {
		if !have[n] {
			errs.Add("services", fmt.Sprintf("unknown service %q", n))
		}
	}
	return nil, errs
}

func resolvePets(ctx context.Context, q repo.Queries, ownerID uuid.UUID, inputs []PetInput) ([]repo.AppointmentPet, error) {
	errs := validate.Errors{}
	out := make([]repo.AppointmentPet, 0, len(inputs))

	for i, in := range inputs {
		if in.PetID != nil {
			pet, err := q.GetPet(ctx, *in.PetID)
			if err != nil && !repo.IsNotFound(err) {
				return nil, fmt.Errorf("get pet: %w", err)
			}
			if err != nil || pet.OwnerID != ownerID {
				errs.Add(fmt.Sprintf("pets.%d.pet_id", i), "unknown pet")
				continue
			}
			out = append(out, repo.AppointmentPet{
				Pet:             *pet,
				GroomingDetails: in.GroomingDetails,
				DentalDetails:   in.DentalDetails,
			})
			continue
		}

		pet := &repo.Pet{
			OwnerID: ownerID,
			Type:    in.Type,
			Breed:   strings.TrimSpace(in.Breed),
			Name:    strings.TrimSpace(in.Name),
		}
		if err := q.CreatePet(ctx, pet); err != nil {
			return nil, fmt.Errorf("create pet: %w", err)
		}
		out = append(out, repo.AppointmentPet{
			Pet:             *pet,
			GroomingDetails: in.GroomingDetails,
			DentalDetails:   in.DentalDetails,
		})
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveCustomer finds the walk-in customer by id or normalized phone,
// registering a password-less customer when the phone is new.
func (s *appointmentService) resolveCustomer(ctx context.Context, q repo.Queries, req WalkInRequest, normalized string) (uuid.UUID, error) {
	if req.CustomerID != nil {
		u, err := q.GetUser(ctx, *req.CustomerID)
		if err != nil {
			if repo.IsNotFound(err) {
				return uuid.Nil, ErrCustomerNotFound
			}
			return uuid.Nil, fmt.Errorf("get customer: %w", err)
		}
		if u.Role != repo.RoleCustomer {
			return uuid.Nil, ErrCustomerNotFound
		}
		return u.ID, nil
	}

	u, err := q.GetUserByPhone(ctx, normalized)
	switch {
	case err == nil:
		if u.Role != repo.RoleCustomer {
			return uuid.Nil, validate.Errors{"customer.phone": {"belongs to a staff account"}}
		}
		return u.ID, nil
	case !repo.IsNotFound(err):
		return uuid.Nil, fmt.Errorf("get customer by phone: %w", err)
	}

	c := req.Customer
	nu := &repo.User{
		Role:      repo.RoleCustomer,
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Phone:     normalized,
		Email:     c.Email,
	}
	if err := q.CreateUser(ctx, nu); err != nil {
		return uuid.Nil, fmt.Errorf("create customer: %w", err)
	}
	return nu.ID, nil
}

// bookingError turns a full slot into a SlotFullError built from the
// committed counts.
func (s *appointmentService) bookingError(ctx context.Context, err error, date, label string) error {
	if !errors.Is(err, repo.ErrSlotFull) {
		return err
	}
	observability.BookingRejections.WithLabelValues(rejectionReason(err)).Inc()
	return s.schedule.SlotFull(ctx, date, label)
}

// publish relays a lifecycle event. Failures are logged and never reach
// the caller; the write has already committed.
func (s *appointmentService) publish(ctx context.Context, typ string, a *repo.Appointment, msg string, kv ...string) {
	if s.notifier == nil || a == nil {
		return
	}

	data := map[string]any{
		"appointment_date": a.Date,
		"appointment_time": a.Time,
		"status":           string(a.Status),
		"customer":         customerName(a),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		data[kv[i]] = kv[i+1]
	}

	id := a.ID
	evt := notification.Event{
		Type:          typ,
		Message:       msg,
		AppointmentID: &id,
		Data:          data,
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.notifier.Publish(pctx, evt); err != nil {
		slog.WarnContext(ctx, "failed to publish appointment event",
			"type", typ,
			"appointment_id", a.ID,
			"error", err,
		)
	}
}

func customerName(a *repo.Appointment) string {
	if a.Customer == nil {
		return "a customer"
	}
	if name := a.Customer.FullName(); name != "" {
		return name
	}
	return a.Customer.Phone
}
