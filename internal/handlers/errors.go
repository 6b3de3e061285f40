package handlers

import (
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/scdri/backend/internal/authctx"
	"github.com/scdri/backend/internal/dto"
	"github.com/scdri/backend/internal/services"
)

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidArgument),
		errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidTransition):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrAlreadyMarked), errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as a JSON error body. Server errors are logged and
// reported, and their details never reach the client.
func respondError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	message := services.Message(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError || message == "" {
		slog.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("path", c.Path())
				hub.CaptureException(err)
			})
		}
		code = fiber.StatusInternalServerError
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
}

// actorOrAbort resolves the caller; ok is false when a response was already written.
func actorOrAbort(c *fiber.Ctx) (services.Actor, bool) {
	a, err := authctx.GetActor(c)
	if err != nil {
		_ = unauthorized(c)
		return services.Actor{}, false
	}
	return a, true
}

// idParam parses the :id path parameter.
func idParam(c *fiber.Ctx) (uuid.UUID, error) {
	return services.ParseID(c.Params("id"))
}
