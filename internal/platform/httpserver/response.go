// Package httpserver holds the fiber response/error helpers shared by the
// control surface.
package httpserver

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yurivin/ilp-iroha-settlement/internal/platform/httpserver/apperr"
)

// Created writes a 201 response with a JSON body.
func Created(c *fiber.Ctx, body any) error {
	return c.Status(fiber.StatusCreated).JSON(body)
}

// NoContent writes a 204 response with an empty body.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// OK writes a 200 response with a JSON body.
func OK(c *fiber.Ctx, body any) error {
	return c.Status(fiber.StatusOK).JSON(body)
}

// Bytes writes a response with the given status and raw body, used for the
// octet-stream peer-message endpoint (spec §6).
func Bytes(c *fiber.Ctx, status int, body []byte) error {
	c.Status(status)
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)

	return c.Send(body)
}

// responseError is the JSON shape returned for any failed request.
type responseError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// WithError dispatches a typed apperr to the HTTP status spec §7 requires.
// Every status the spec names for this service is 500, except idempotent
// replay (no error at all) and the endpoints that don't exist in apperr
// terms (201/204 success paths). This function exists for completeness
// and so a future error kind has exactly one place to be wired in.
func WithError(c *fiber.Ctx, err error) error {
	switch e := err.(type) {
	case apperr.NotFoundError:
		return jsonError(c, fiber.StatusInternalServerError, "not_found", e.Error())
	case apperr.ConflictError:
		return jsonError(c, fiber.StatusInternalServerError, "conflict", e.Error())
	case apperr.ValidationError:
		return jsonError(c, fiber.StatusInternalServerError, "validation_error", e.Error())
	case apperr.InternalError:
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", e.Error())
	default:
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", err.Error())
	}
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(responseError{Code: code, Message: message})
}
