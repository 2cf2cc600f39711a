package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
	"github.com/pawcare/vetclinic_backend/internal/service/catalog"
	"github.com/pawcare/vetclinic_backend/internal/service/scheduling"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

type CatalogHandler struct {
	svc          catalog.Service
	appointments appointment.Service
}

func NewCatalogHandler(svc catalog.Service, appointments appointment.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc, appointments: appointments}
}

// GET /services
func (h *CatalogHandler) Services(c fiber.Ctx) error {
	services, err := h.svc.ListServices(c.Context())
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, "services", services)
}

// GET /lab-tests
func (h *CatalogHandler) LabTests(c fiber.Ctx) error {
	tests, err := h.svc.ListLabTests(c.Context())
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, "lab_tests", tests)
}

// GET /products?kind=vaccine
func (h *CatalogHandler) Products(c fiber.Ctx) error {
	products, err := h.svc.ListProducts(c.Context(), c.Query("kind"))
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownKind) {
			return validationFailed(c, validate.Errors{"kind": {"must be vaccine, medicine or supply"}})
		}
		return internalError(c, err)
	}
	return ok(c, "products", products)
}

// GET /slots?date=YYYY-MM-DD
func (h *CatalogHandler) Slots(c fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		return validationFailed(c, validate.Errors{"date": {"is required"}})
	}

	slots, err := h.appointments.Availability(c.Context(), date)
	if err != nil {
		if errors.Is(err, scheduling.ErrInvalidDate) {
			return validationFailed(c, validate.Errors{"date": {err.Error()}})
		}
		if resp, handled := mapCommonError(c, err); handled {
			return resp
		}
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"status": true, "date": date, "slots": slots})
}
