package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/party-lifecycle/internal/interface/http"
)

// NotificationModule exposes the caller's inbox.
type NotificationModule struct {
	Handler *handlers.NotificationHandler
	Guard   []gin.HandlerFunc
}

func NewNotificationModule(h *handlers.NotificationHandler, guard ...gin.HandlerFunc) *NotificationModule {
	return &NotificationModule{Handler: h, Guard: guard}
}

func (m *NotificationModule) Name() string { return "notifications" }

func (m *NotificationModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/notifications", m.Guard...)
	g.GET("", m.Handler.Inbox)
	g.POST("/:id/read", m.Handler.MarkRead)
}
