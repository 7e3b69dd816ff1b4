package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit covers every storefront payload (cart lines, checkout
// form, token request) with room to spare.
const DefaultBodyLimit int64 = 16 * 1024

// BodyLimit rejects bodies larger than n bytes with 413. Declared lengths are
// checked up front; chunked bodies fail on the first read past n.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request_too_large"})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
