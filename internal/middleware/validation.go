package middleware

import (
	"quizforge/internal/dto"
	"quizforge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const generateRequestKey = "validated_generate_request"

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateGenerateRequest parses and validates the body of POST /api/generate
// and stores it for the handler.
func (vm *ValidationMiddleware) ValidateGenerateRequest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.GenerateQuizRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if errors := vm.validator.ValidateGenerateRequest(&req); len(errors) > 0 {
			return errors
		}

		c.Locals(generateRequestKey, &req)
		return c.Next()
	}
}

// GenerateRequest returns the request stored by ValidateGenerateRequest.
func GenerateRequest(c *fiber.Ctx) (*dto.GenerateQuizRequest, bool) {
	req, ok := c.Locals(generateRequestKey).(*dto.GenerateQuizRequest)
	return req, ok
}
