package api

import (
	"net/http"

	"HubAdmin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusFor 把 service 层错误类型映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case service.IsValidation(err):
		return http.StatusBadRequest
	case service.IsNotFound(err):
		return http.StatusNotFound
	case service.IsConstraint(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, logger *logrus.Logger, action string, err error) {
	status := statusFor(err)
	entry := logger.WithError(err).WithField("path", c.FullPath())
	if status >= http.StatusInternalServerError {
		entry.Error(action + " failed")
	} else {
		entry.Warn(action + " rejected")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
