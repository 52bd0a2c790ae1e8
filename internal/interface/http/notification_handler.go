package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/internal/application"
	"github.com/oksasatya/party-lifecycle/internal/interface/middleware"
	"github.com/oksasatya/party-lifecycle/pkg/response"
	"github.com/oksasatya/party-lifecycle/pkg/validation"
)

type NotificationHandler struct {
	Svc    *application.NotificationService
	Logger *logrus.Logger
}

func NewNotificationHandler(svc *application.NotificationService, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{Svc: svc, Logger: logger}
}

type inboxQuery struct {
	Open  bool `form:"open"`
	Limit int  `form:"limit" binding:"omitempty,min=1,max=200"`
}

func (h *NotificationHandler) Inbox(c *gin.Context) {
	var q inboxQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	items, err := h.Svc.Inbox(c.Request.Context(), middleware.ActorFrom(c), q.Open, q.Limit)
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, notificationView(&items[i]))
	}
	response.Success(c, http.StatusOK, out, "notifications", gin.H{"count": len(out)})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	n, err := h.Svc.MarkRead(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, notificationView(n), "notification read", nil)
}
