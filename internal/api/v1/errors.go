package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FoodFox/internal/pkg/apperror"
	"github.com/ManuelReschke/FoodFox/internal/pkg/validation"
)

// statusOf maps an error kind to its HTTP status
func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	case apperror.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as an ErrorResponse
func writeError(c *fiber.Ctx, err error) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(err)
	}
	if appErr.Kind == apperror.KindInternal {
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
	}

	resp := ErrorResponse{
		Error:     string(appErr.Kind),
		Message:   appErr.Message,
		Field:     appErr.Field,
		ProductID: appErr.ProductID,
	}
	if appErr.IsInsufficientStock() {
		available := appErr.Available
		resp.Requested = appErr.Requested
		resp.Available = &available
		resp.Shortfall = appErr.Shortfall
	}
	return c.Status(statusOf(appErr.Kind)).JSON(resp)
}

// bind decodes and validates the request body into req
func bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return apperror.Validation("body", "invalid request body: %v", err)
	}
	if err := validate.Struct(req); err != nil {
		return validation.Error(err)
	}
	return nil
}

// idParam parses a positive numeric route parameter
func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperror.Validation(name, "must be a positive integer")
	}
	return uint(id), nil
}
