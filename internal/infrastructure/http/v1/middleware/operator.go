package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "gestoc/internal/core/context"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderCompanyID = "X-Company-ID"
)

// Operator reads the acting user and company from gateway-supplied headers
// and puts them on the request context for audit records and logging.
// Authentication itself happens upstream.
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		companyID := c.GetHeader(HeaderCompanyID)

		if userID != "" || companyID != "" {
			ctx := appctx.WithOperator(c.Request.Context(), &appctx.Operator{
				UserID:    userID,
				CompanyID: companyID,
			})
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}
