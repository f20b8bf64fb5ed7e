package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/foodexpress/internal/middleware"
	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/services"
	"github.com/example/foodexpress/internal/utils"
)

// ErrorHandler renders every error as the standard envelope with
// success=false. Unclassified errors are logged and reported as 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"success": false, "message": "internal server error"}

	var se *services.Error
	var fe *fiber.Error
	switch {
	case errors.As(err, &se):
		status = services.StatusCode(err)
		body["message"] = se.Message
		if se.Field != "" {
			body["field"] = se.Field
		}
	case errors.As(err, &fe):
		status = fe.Code
		body["message"] = fe.Message
	default:
		log.Printf("[Error] %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(body)
}

func sendData(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func sendMessage(c *fiber.Ctx, message string, data any) error {
	body := fiber.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(body)
}

func sendCreated(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": message, "data": data})
}

func sendPage(c *fiber.Ctx, data any, pg utils.Pagination, total int64) error {
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       data,
		"pagination": pg.Meta(total),
	})
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &services.Error{Kind: services.ErrValidation, Message: "invalid request body"}
	}
	return nil
}

func mustUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, &services.Error{Kind: services.ErrUnauthenticated, Message: "missing authorization token"}
	}
	return user, nil
}
