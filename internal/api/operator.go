package api

import (
	"strings"

	"HubAdmin/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	HeaderOperatorID   = "X-Operator-ID"
	HeaderOperatorRole = "X-Operator-Role"

	operatorKey = "operator"
)

// OperatorMiddleware 把上游鉴权代理写入的操作人信息放进请求上下文。
// 这里不做拦截，写操作由 service 自行拒绝空的 operator id。
func OperatorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(operatorKey, service.OperatorContext{
			ID:   strings.TrimSpace(c.GetHeader(HeaderOperatorID)),
			Role: strings.TrimSpace(c.GetHeader(HeaderOperatorRole)),
		})
		c.Next()
	}
}

func operatorFrom(c *gin.Context) service.OperatorContext {
	if v, ok := c.Get(operatorKey); ok {
		if op, ok := v.(service.OperatorContext); ok {
			return op
		}
	}
	return service.OperatorContext{}
}
