package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/internal/service/scheduling"
	"github.com/pawcare/vetclinic_backend/pkg/reqctx"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

// Every response is {"status": bool, "message"?, <payload key>?, "errors"?}.

func ok(c fiber.Ctx, key string, data any) error {
	return c.JSON(fiber.Map{"status": true, key: data})
}

func okMessage(c fiber.Ctx, msg string, key string, data any) error {
	body := fiber.Map{"status": true, "message": msg}
	if key != "" {
		body[key] = data
	}
	return c.JSON(body)
}

func created(c fiber.Ctx, msg string, key string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": true, "message": msg, key: data})
}

func fail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"status": false, "message": msg})
}

func badRequest(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusBadRequest, msg)
}

func unauthorized(c fiber.Ctx) error {
	return fail(c, fiber.StatusUnauthorized, "unauthorized")
}

func forbidden(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusForbidden, msg)
}

func notFound(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusNotFound, msg)
}

func conflict(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusConflict, msg)
}

func tooManyRequests(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusTooManyRequests, msg)
}

func validationFailed(c fiber.Ctx, errs validate.Errors) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"status":  false,
		"message": "validation failed",
		"errors":  errs,
	})
}

func slotFull(c fiber.Ctx, e *scheduling.SlotFullError) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"status":    false,
		"message":   e.Error(),
		"booked":    e.Booked,
		"max":       e.Max,
		"remaining": e.Remaining,
	})
}

// internalError logs err and answers with a generic message; the cause is
// never sent to the client.
func internalError(c fiber.Ctx, err error) error {
	rid := reqctx.RequestIDFromContext(c.Context())
	slog.ErrorContext(c.Context(), "request failed",
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":     false,
		"message":    "internal server error",
		"request_id": rid,
	})
}

// mapCommonError answers validation and booking-window failures shared by
// several services. It reports false when err is none of them.
func mapCommonError(c fiber.Ctx, err error) (error, bool) {
	if ve, isVE := validate.As(err); isVE {
		return validationFailed(c, ve), true
	}

	var full *scheduling.SlotFullError
	switch {
	case errors.As(err, &full):
		return slotFull(c, full), true
	case errors.Is(err, scheduling.ErrClosedDay),
		errors.Is(err, scheduling.ErrDateInPast),
		errors.Is(err, scheduling.ErrDateNotInFuture):
		return conflict(c, err.Error()), true
	case errors.Is(err, scheduling.ErrInvalidDate):
		return validationFailed(c, validate.Errors{"appointment_date": {err.Error()}}), true
	case errors.Is(err, scheduling.ErrInvalidTimeSlot):
		return validationFailed(c, validate.Errors{"appointment_time": {err.Error()}}), true
	}
	return nil, false
}
