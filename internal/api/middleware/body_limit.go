package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"edusync/backend/pkg/response"
)

const codeBodyTooLarge = 10005

// BodyLimit 请求体大小限制
// 声明长度已超限的请求直接拒绝；未声明长度的请求在读取时截断
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.IsAborted() || c.Writer.Written() {
			return
		}
		var tooLarge *http.MaxBytesError
		for _, e := range c.Errors {
			if errors.As(e.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "请求体过大")
				return
			}
		}
	}
}
