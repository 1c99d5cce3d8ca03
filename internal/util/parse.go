package util

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// Pagination reads ?limit= and ?offset= from the query string.
// Bounds are applied by the services.
func Pagination(c *gin.Context) (limit, offset int) {
	return ParseInt(c.Query("limit"), 0), ParseInt(c.Query("offset"), 0)
}

// ParseList splits a comma-separated form value, dropping blanks.
func ParseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
