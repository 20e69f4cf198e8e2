package middlewares

import "github.com/gin-gonic/gin"

const (
	CtxRequestID   = "request_id"
	CtxBearerToken = "auth.bearer_token"
)

// abort writes the shared error envelope and stops the chain.
func abort(c *gin.Context, status int, code, message string) {
	reqID, _ := c.Get(CtxRequestID)
	id, _ := reqID.(string)

	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": id,
		},
	})
}
