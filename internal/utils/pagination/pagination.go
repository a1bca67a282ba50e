package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Params are the page/limit query values with sane bounds applied.
type Params struct {
	Page  int
	Limit int
}

// ParseFromRequest reads pagination parameters from the query string.
func ParseFromRequest(c *fiber.Ctx) Params {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return Params{Page: page, Limit: limit}
}
