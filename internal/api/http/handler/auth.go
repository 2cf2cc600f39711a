package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/internal/service/auth"
	pasetotoken "github.com/pawcare/vetclinic_backend/pkg/paseto"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func mapAuthError(c fiber.Ctx, err error) error {
	if resp, handled := mapCommonError(c, err); handled {
		return resp
	}
	switch {
	case errors.Is(err, auth.ErrPhoneAlreadyExists):
		return validationFailed(c, validate.Errors{"phone": {err.Error()}})
	case errors.Is(err, auth.ErrInvalidRole):
		return validationFailed(c, validate.Errors{"role": {err.Error()}})
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrSessionNotFound):
		return unauthorized(c)
	case errors.Is(err, auth.ErrAccountLocked):
		return tooManyRequests(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var body auth.RegisterRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	u, err := h.svc.Register(c.Context(), body)
	if err != nil {
		return mapAuthError(c, err)
	}

	return created(c, "registration successful", "user", u)
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body auth.LoginRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	tokens, err := h.svc.Login(c.Context(), body)
	if err != nil {
		return mapAuthError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":     true,
		"message":    "login successful",
		"token":      tokens.AccessToken,
		"expires_in": tokens.ExpiresIn,
		"user":       tokens.User,
	})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	if claims.SessionID != nil {
		if err := h.svc.Logout(c.Context(), *claims.SessionID); err != nil {
			return mapAuthError(c, err)
		}
	}

	return okMessage(c, "logged out", "", nil)
}
