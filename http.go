package users

import (
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Response is the uniform success envelope.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorResponse is the uniform failure envelope: the HTTP status is
// duplicated in the body next to the message.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func respond(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Response{Message: message, Data: data})
}

// NewHTTPErrorHandler builds the app-level fiber error handler. Rich errors
// keep their status and message; fiber routing errors keep their status;
// everything else becomes a generic 500.
func NewHTTPErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if goerrors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{
				Status:  fiberErr.Code,
				Message: fiberErr.Message,
			})
		}

		rich := EnsureRichError(err)

		logger.Info(
			"request error",
			"error", rich.Message,
			"category", rich.Category,
			"text_code", rich.TextCode,
			"path", c.Path(),
		)

		return c.Status(rich.Code).JSON(ErrorResponse{
			Status:  rich.Code,
			Message: rich.Message,
		})
	}
}

// RequestLogger tags every request with an id and logs the outcome.
func RequestLogger(logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.New().String()
		c.Locals("request_id", requestID)
		c.Set("X-Request-ID", requestID)

		err := c.Next()

		logger.Info(
			"request completed",
			"request_id", requestID,
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).String(),
		)

		return err
	}
}
