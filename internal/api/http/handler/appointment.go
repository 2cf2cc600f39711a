package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	if resp, handled := mapCommonError(c, err); handled {
		return resp
	}
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrCustomerNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrForbidden):
		return forbidden(c, err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition),
		errors.Is(err, appointment.ErrCompletionViaVisit):
		return conflict(c, err.Error())
	case errors.Is(err, appointment.ErrUnknownStatus):
		return validationFailed(c, validate.Errors{"status": {"must be confirmed or cancelled"}})
	default:
		return internalError(c, err)
	}
}

type listQuery struct {
	CustomerID string `query:"customer_id"`
	Status     string `query:"status"`
	DateFrom   string `query:"date_from"`
	DateTo     string `query:"date_to"`
	Page       int    `query:"page"`
	PerPage    int    `query:"per_page"`
}

// filter converts the query string into a list request. Field problems come
// back as validate.Errors.
func (q listQuery) filter() (appointment.ListRequest, error) {
	req := appointment.ListRequest{
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Page:     q.Page,
		PerPage:  q.PerPage,
	}
	errs := validate.Errors{}
	if q.CustomerID != "" {
		id, err := uuid.Parse(q.CustomerID)
		if err != nil {
			errs.Add("customer_id", "must be a valid UUID")
		} else {
			req.CustomerID = &id
		}
	}
	if q.Status != "" {
		st := repo.AppointmentStatus(q.Status)
		if !st.Valid() {
			errs.Add("status", "must be pending, confirmed, completed or cancelled")
		} else {
			req.Status = &st
		}
	}
	from, fromOK := parseDateParam(errs, "date_from", q.DateFrom)
	to, toOK := parseDateParam(errs, "date_to", q.DateTo)
	if fromOK && toOK && to.Before(from) {
		errs.Add("date_to", "must not be before date_from")
	}
	return req, errs.Err()
}

// parseDateParam reports whether raw is a set, well-formed date.
func parseDateParam(errs validate.Errors, field, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(repo.DateLayout, raw)
	if err != nil {
		errs.Add(field, "must be formatted YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// GET /pets
func (h *AppointmentHandler) ListPets(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}

	pets, err := h.svc.ListPets(c.Context(), actor)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, "pets", pets)
}

// POST /appointments
func (h *AppointmentHandler) Create(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}

	var body appointment.CreateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.Create(c.Context(), actor, body)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, "appointment booked", "appointment", appt)
}

// GET /appointments
func (h *AppointmentHandler) ListOwn(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}

	var q listQuery
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}
	req, err := q.filter()
	if err != nil {
		return mapAppointmentError(c, err)
	}

	appts, err := h.svc.ListOwn(c.Context(), actor, req)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, "appointments", appts)
}

// GET /appointments/:id
func (h *AppointmentHandler) Get(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.Get(c.Context(), actor, id)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, "appointment", appt)
}

// PUT /appointments/:id
func (h *AppointmentHandler) RescheduleOwn(c fiber.Ctx) error {
	return h.reschedule(c, h.svc.RescheduleOwn)
}

// PUT /admin/appointments/:id/reschedule
func (h *AppointmentHandler) Reschedule(c fiber.Ctx) error {
	return h.reschedule(c, h.svc.Reschedule)
}

type rescheduleFunc = func(ctx context.Context, actor appointment.Actor, id uuid.UUID, req appointment.RescheduleRequest) (*repo.Appointment, error)

func (h *AppointmentHandler) reschedule(c fiber.Ctx, fn rescheduleFunc) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid appointment id")
	}

	var body appointment.RescheduleRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := fn(c.Context(), actor, id, body)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return okMessage(c, "appointment rescheduled", "appointment", appt)
}

// PUT /appointments/:id/cancel
func (h *AppointmentHandler) CancelOwn(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.CancelOwn(c.Context(), actor, id)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return okMessage(c, "appointment cancelled", "appointment", appt)
}

// GET /admin/appointments
func (h *AppointmentHandler) ListAll(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}

	var q listQuery
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}
	req, err := q.filter()
	if err != nil {
		return mapAppointmentError(c, err)
	}

	appts, err := h.svc.ListAll(c.Context(), actor, req)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, "appointments", appts)
}

// PUT /admin/appointments/:id/status
func (h *AppointmentHandler) SetStatus(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Status repo.AppointmentStatus `json:"status"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Status == "" {
		return validationFailed(c, validate.Errors{"status": {"is required"}})
	}

	appt, err := h.svc.SetStatus(c.Context(), actor, id, body.Status)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return okMessage(c, "appointment status updated", "appointment", appt)
}

// DELETE /admin/appointments/:id
func (h *AppointmentHandler) Delete(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid appointment id")
	}

	if err := h.svc.Delete(c.Context(), actor, id); err != nil {
		return mapAppointmentError(c, err)
	}
	return okMessage(c, "appointment deleted", "", nil)
}

// POST /admin/appointments/walk-in
func (h *AppointmentHandler) WalkIn(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}

	var body appointment.WalkInRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.WalkIn(c.Context(), actor, body)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, "walk-in appointment booked", "appointment", appt)
}
