package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
	"github.com/pawcare/vetclinic_backend/internal/service/export"
	"github.com/pawcare/vetclinic_backend/internal/service/medical"
	"github.com/pawcare/vetclinic_backend/internal/service/reminder"
	"github.com/pawcare/vetclinic_backend/pkg/reqctx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the front-desk tools that sit beside the appointment
// lifecycle: spreadsheet export, reminders and billing.
type AdminHandler struct {
	export   export.Service
	reminder reminder.Service
	medical  medical.Service
}

func NewAdminHandler(exp export.Service, rem reminder.Service, med medical.Service) *AdminHandler {
	return &AdminHandler{export: exp, reminder: rem, medical: med}
}

// GET /admin/appointments/export
func (h *AdminHandler) Export(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}

	var q listQuery
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}
	filter, err := q.filter()
	if err != nil {
		return mapAppointmentError(c, err)
	}

	data, err := h.export.Appointments(c.Context(), actor, export.Request{
		CustomerID: filter.CustomerID,
		Status:     filter.Status,
		DateFrom:   filter.DateFrom,
		DateTo:     filter.DateTo,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	c.Attachment(fmt.Sprintf("appointments-%s.xlsx", time.Now().Format("20060102")))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(data)
}

// POST /admin/appointments/:id/remind
func (h *AdminHandler) Remind(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid appointment id")
	}

	res, err := h.reminder.SendAppointmentReminder(c.Context(), actor, id)
	if err != nil {
		switch {
		case errors.Is(err, reminder.ErrNotFound):
			return notFound(c, err.Error())
		case errors.Is(err, appointment.ErrForbidden):
			return forbidden(c, err.Error())
		case errors.Is(err, reminder.ErrNotRemindable), errors.Is(err, reminder.ErrNoChannel):
			return conflict(c, err.Error())
		case errors.Is(err, reminder.ErrDelivery):
			slog.ErrorContext(c.Context(), "reminder delivery failed", "appointment_id", id, "error", err)
			sent := []string{}
			if res != nil {
				sent = res.Channels
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":     false,
				"message":    reminder.ErrDelivery.Error(),
				"channels":   sent,
				"request_id": reqctx.RequestIDFromContext(c.Context()),
			})
		default:
			return internalError(c, err)
		}
	}
	return okMessage(c, "reminder sent", "reminder", res)
}

// GET /admin/appointments/:id/bill
func (h *AdminHandler) Bill(c fiber.Ctx) error {
	actor, valid := actorFrom(c)
	if !valid {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid appointment id")
	}

	bill, err := h.medical.Bill(c.Context(), actor, id)
	if err != nil {
		return mapMedicalError(c, err)
	}
	return ok(c, "bill", bill)
}
