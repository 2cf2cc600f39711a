package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
	"github.com/pawcare/vetclinic_backend/internal/service/medical"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

type MedicalHandler struct {
	svc medical.Service
}

func NewMedicalHandler(svc medical.Service) *MedicalHandler {
	return &MedicalHandler{svc: svc}
}

func mapMedicalError(c fiber.Ctx, err error) error {
	if resp, handled := mapCommonError(c, err); handled {
		return resp
	}
	switch {
	case errors.Is(err, medical.ErrNotFound), errors.Is(err, medical.ErrPetNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, medical.ErrForbidden), errors.Is(err, appointment.ErrForbidden):
		return forbidden(c, err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition), errors.Is(err, medical.ErrInsufficientStock):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /medical-records
func (h *MedicalHandler) Submit(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}

	var body medical.CompleteRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.svc.Complete(c.Context(), actor, body)
	if err != nil {
		return mapMedicalError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":          true,
		"message":         "appointment completed",
		"appointment":     res.Appointment,
		"records":         res.Records,
		"inventory_usage": res.Usage,
		"total_test_cost": res.TotalTestCost,
	})
}

// GET /medical-records?appointment_id=
func (h *MedicalHandler) ByAppointment(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Query("appointment_id"))
	if err != nil {
		return validationFailed(c, validate.Errors{"appointment_id": {"must be a valid UUID"}})
	}

	records, err := h.svc.ListByAppointment(c.Context(), actor, id)
	if err != nil {
		return mapMedicalError(c, err)
	}
	return ok(c, "records", records)
}

// GET /pets/:id/medical-records
func (h *MedicalHandler) ByPet(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid pet id")
	}

	records, err := h.svc.ListByPet(c.Context(), actor, id)
	if err != nil {
		return mapMedicalError(c, err)
	}
	return ok(c, "records", records)
}

// GET /pets/:id/vaccinations
func (h *MedicalHandler) Vaccinations(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid pet id")
	}

	vs, err := h.svc.VaccinationHistory(c.Context(), actor, id)
	if err != nil {
		return mapMedicalError(c, err)
	}
	return ok(c, "vaccinations", vs)
}
