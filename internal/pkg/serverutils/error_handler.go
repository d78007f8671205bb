package serverutils

import (
	"errors"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// NewErrorHandler maps domain errors to HTTP statuses. Typed errors
// carry structured payloads so clients can react (show violations,
// offer migration, flag pending sync) instead of parsing messages.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var validationErr *apperr.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"success":     false,
				"code":        fiber.StatusUnprocessableEntity,
				"message":     "Section failed validation",
				"section_key": validationErr.SectionKey,
				"violations":  validationErr.Violations,
			})
		}

		var staleErr *apperr.StaleTemplateError
		if errors.As(err, &staleErr) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success":         false,
				"code":            fiber.StatusConflict,
				"message":         "Response is bound to an outdated template version",
				"template_id":     staleErr.TemplateId,
				"bound_version":   staleErr.BoundVersion,
				"current_version": staleErr.CurrentVersion,
			})
		}

		var syncErr *apperr.SyncError
		if errors.As(err, &syncErr) {
			// Local save succeeded; the remote one will be retried.
			return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"success":      false,
				"code":         fiber.StatusBadGateway,
				"message":      "Saved locally, remote sync pending",
				"document_id":  syncErr.DocumentId,
				"pending_sync": true,
			})
		}

		switch {
		case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrUnknownSection):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, err.Error()))
		case errors.Is(err, apperr.ErrUnauthenticated):
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		case errors.Is(err, apperr.ErrImmutable):
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(fiber.StatusConflict, err.Error()))
		case errors.Is(err, apperr.ErrIncomplete):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(fiber.StatusUnprocessableEntity, err.Error()))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		log.Error("HTTP", "Unhandled error", map[string]interface{}{
			"path":  ctx.Path(),
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}
