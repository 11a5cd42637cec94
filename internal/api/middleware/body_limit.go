package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"availability-hub/pkg/response"
)

// BodyLimit 请求体大小限制
// 先按 Content-Length 快速拒绝，再用 MaxBytesReader 兜底分块传输的请求
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
