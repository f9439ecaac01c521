package response

import (
	"errors"
	"log"

	"korfarm-api/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

// ErrorBody carries the taxonomy code and a safe message
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response represents the standard API envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// Success sends a success response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Data:    data,
	})
}

// Fail sends an error response with an explicit code
func Fail(c *fiber.Ctx, statusCode int, code, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}

// FromError maps a service error to the envelope. Tagged *domain.Error values
// keep their code and status; anything else is logged and returned as a
// generic INTERNAL_ERROR so internals never leak to the caller.
func FromError(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return Fail(c, de.Status, de.Code, de.Message)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Fail(c, fe.Code, "INVALID_REQUEST", fe.Message)
	}

	log.Printf("❌ Unhandled error [%s %s]: %v", c.Method(), c.Path(), err)
	return Fail(c, fiber.StatusInternalServerError, domain.ErrInternal.Code, domain.ErrInternal.Message)
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusForbidden, "FORBIDDEN", message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusNotFound, "NOT_FOUND", message)
}
