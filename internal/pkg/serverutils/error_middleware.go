package serverutils

import (
	"errors"

	"notesync/internal/errs"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps the error taxonomy onto HTTP status codes so
// controllers can just return errors.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, verr.Error()))
		}

		var aerr *errs.AuthError
		if errors.As(err, &aerr) {
			code := fiber.StatusUnauthorized
			switch aerr.Kind {
			case errs.AuthInvalidEmail, errs.AuthWeakPassword:
				code = fiber.StatusBadRequest
			case errs.AuthEmailInUse:
				code = fiber.StatusConflict
			}
			return ctx.Status(code).JSON(ErrorResponse(code, aerr.Error()))
		}

		if errors.Is(err, errs.ErrNotAuthenticated) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}

		if errors.Is(err, errs.ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, err.Error()))
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Code, ferr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
