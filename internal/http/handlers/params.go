package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func queryLimit(c *gin.Context, def int) int {
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
