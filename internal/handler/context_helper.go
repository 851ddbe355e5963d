package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/issue-tracker-api/internal/middleware"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

func actorFromContext(c *gin.Context) *string {
	return middleware.ActorID(c)
}

// queryExpectedVersion reads the optimistic-lock predicate from the query
// string, for mutations without a body (DELETE, label detach).
func queryExpectedVersion(c *gin.Context) (int64, error) {
	raw := c.Query("expected_version")
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "expected_version query parameter is required")
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "expected_version must be a positive integer")
	}
	return version, nil
}

func queryPagination(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

func queryBool(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(c.Query(key))
	return err == nil && value
}
