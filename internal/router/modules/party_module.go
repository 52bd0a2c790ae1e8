package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/party-lifecycle/internal/interface/http"
)

// PartyModule wires back-office party routes. Every route is protected by the
// group handlers passed in (auth, rate limit, idempotency).
// GET  /parties, /parties/search, /parties/:id, /parties/:id/onboarding
// POST /parties/reindex
// POST /parties/:id/onboarding/{submit,analysis/approve,analysis/reject,registration/approve,registration/reject}
// POST /parties/:id/password
// POST /parties/:id/archive, /parties/:id/archive/resolve, /parties/:id/restore
type PartyModule struct {
	Handler *handlers.PartyHandler
	Guard   []gin.HandlerFunc
}

func NewPartyModule(h *handlers.PartyHandler, guard ...gin.HandlerFunc) *PartyModule {
	return &PartyModule{Handler: h, Guard: guard}
}

func (m *PartyModule) Name() string { return "parties" }

func (m *PartyModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/parties", m.Guard...)
	{
		g.GET("", m.Handler.List)
		g.GET("/search", m.Handler.Search)
		g.POST("/reindex", m.Handler.Reindex)
		g.GET("/:id", m.Handler.Get)
		g.GET("/:id/onboarding", m.Handler.OnboardingState)

		g.POST("/:id/onboarding/submit", m.Handler.Submit)
		g.POST("/:id/onboarding/analysis/approve", m.Handler.ApproveAnalysis)
		g.POST("/:id/onboarding/analysis/reject", m.Handler.RejectAnalysis)
		g.POST("/:id/onboarding/registration/approve", m.Handler.ApproveRegistration)
		g.POST("/:id/onboarding/registration/reject", m.Handler.RejectRegistration)
		g.POST("/:id/password", m.Handler.SetPassword)

		g.POST("/:id/archive", m.Handler.RequestArchive)
		g.POST("/:id/archive/resolve", m.Handler.ResolveArchive)
		g.POST("/:id/restore", m.Handler.Restore)
	}
}
