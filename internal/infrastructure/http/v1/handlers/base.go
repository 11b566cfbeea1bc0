// Package handlers contains the HTTP handlers for the v1 API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
)

// handleError records the error for the error middleware and stops the chain.
func handleError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindJSON binds the request body, converting binding failures into
// validation errors.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		handleError(c, apperror.NewValidation("invalid request body").
			WithDetail("error", err.Error()))
		return false
	}
	return true
}

// bindQuery binds query parameters.
func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		handleError(c, apperror.NewValidation("invalid query parameters").
			WithDetail("error", err.Error()))
		return false
	}
	return true
}

// pathID parses a path parameter as an id.
func pathID(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		handleError(c, apperror.NewValidation("invalid identifier").
			WithDetail("param", name).
			WithDetail("value", c.Param(name)))
		return id.Nil(), false
	}
	return parsed, true
}
