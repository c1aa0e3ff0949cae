package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

/* =========================== Error Formatting =========================== */

// httpCodeToString converts an HTTP status code to a short, stable string.
func httpCodeToString(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case fiber.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler returns the global Fiber error handler. Internal and
// dependency errors are logged with their cause; clients only get the
// public message.
func ErrorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			code := StatusOf(ae.Kind)
			switch ae.Kind {
			case apperr.KindValidation:
				if len(ae.Fields) > 0 {
					return c.Status(code).JSON(models.ValidationErrorResponse{
						Message: ae.Message,
						Errors:  ae.Fields,
					})
				}
			case apperr.KindInternal, apperr.KindUnavailable:
				log.Errorw("request failed",
					"method", c.Method(),
					"path", c.Path(),
					"kind", ae.Kind.String(),
					"error", err,
				)
			}
			msg := ae.Message
			if ae.Kind == apperr.KindUnauthorized {
				msg = apperr.GenericCredentialsMessage
			}
			return c.Status(code).JSON(models.ErrorResponse{
				Code:    httpCodeToString(code),
				Error:   true,
				Message: msg,
			})
		}

		code := fiber.StatusInternalServerError
		msg := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			if strings.TrimSpace(fe.Message) != "" {
				msg = fe.Message
			}
		} else {
			log.Errorw("unhandled error",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}

		return c.Status(code).JSON(models.ErrorResponse{
			Code:    httpCodeToString(code),
			Error:   true,
			Message: msg,
		})
	}
}
