package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id left in context by the JWT middleware
// and converts it to uint64. Claims decoded from JSON arrive as
// float64; locally minted tokens carry uint64.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter, rejecting zero.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
