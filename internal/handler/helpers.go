package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/maxhub/max-backend/internal/middleware"
	"github.com/maxhub/max-backend/internal/service"
)

func getClaims(c *gin.Context) *service.Claims {
	return middleware.GetClaims(c)
}

// idParam parses the :id path segment.
func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// optionalIntQuery parses an optional integer query parameter, nil when
// absent or malformed.
func optionalIntQuery(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
