package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ValidatePageQuery checks the request's "page" query parameter.
// Returns 400 Bad Request when the value is not a positive integer.
func ValidatePageQuery(c *fiber.Ctx) error {
	pageStr := c.Query("page", "1")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "page must be a positive integer",
		})
	}
	return c.Next()
}
