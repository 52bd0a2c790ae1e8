package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/internal/application"
	"github.com/oksasatya/party-lifecycle/pkg/response"
)

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrInvalidTransition):
		return http.StatusConflict, "invalid transition"
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, application.ErrStoreConflict):
		return http.StatusConflict, "concurrent update, refresh and retry"
	default:
		return http.StatusServiceUnavailable, "service unavailable"
	}
}

func writeErr(c *gin.Context, logger *logrus.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).WithError(err).Error("request failed")
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Error[any](c, status, msg, err.Error())
}
