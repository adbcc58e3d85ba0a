package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MultipartOverhead is added to the file limit to leave room for multipart boundaries
// and part headers
const MultipartOverhead int64 = 16 << 10

// BodyLimit caps the request body at maxFileBytes plus MultipartOverhead. Reads past the
// cap fail with *http.MaxBytesError, which upload handlers report as an invalid size.
func BodyLimit(maxFileBytes int64) gin.HandlerFunc {
	limit := maxFileBytes + MultipartOverhead

	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
