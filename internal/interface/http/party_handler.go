package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/internal/application"
	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/interface/middleware"
	"github.com/oksasatya/party-lifecycle/pkg/response"
	"github.com/oksasatya/party-lifecycle/pkg/validation"
)

type PartyHandler struct {
	Parties    *application.PartyService
	Onboarding *application.OnboardingService
	Archive    *application.ArchiveService
	Logger     *logrus.Logger
}

func NewPartyHandler(parties *application.PartyService, onboarding *application.OnboardingService, archive *application.ArchiveService, logger *logrus.Logger) *PartyHandler {
	return &PartyHandler{Parties: parties, Onboarding: onboarding, Archive: archive, Logger: logger}
}

type listPartiesQuery struct {
	Kind   string `form:"kind" binding:"omitempty,partykind"`
	Status string `form:"status" binding:"omitempty,accountstatus"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

type searchQuery struct {
	Q    string `form:"q" binding:"required,notblank"`
	Size int    `form:"size" binding:"omitempty,min=1,max=100"`
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"required,notblank,max=500"`
}

type passwordRequest struct {
	Password string `json:"password" binding:"required,pwd"`
}

type resolveRequest struct {
	Decision string `json:"decision" binding:"required,decision"`
}

func (h *PartyHandler) List(c *gin.Context) {
	var q listPartiesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	items, err := h.Parties.List(c.Request.Context(), entity.PartyFilter{
		Kind:   entity.PartyKind(q.Kind),
		Status: entity.AccountStatus(q.Status),
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, partyView(&items[i]))
	}
	response.Success(c, http.StatusOK, out, "parties", gin.H{"count": len(out), "limit": q.Limit, "offset": q.Offset})
}

func (h *PartyHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	hits, err := h.Parties.Search(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

// Reindex pushes the filtered parties to the search index. Top approver only.
func (h *PartyHandler) Reindex(c *gin.Context) {
	if !middleware.ActorFrom(c).IsTopApprover() {
		response.Error[any](c, http.StatusForbidden, "forbidden", nil)
		return
	}
	var q listPartiesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	n, err := h.Parties.Reindex(c.Request.Context(), entity.PartyFilter{
		Kind:   entity.PartyKind(q.Kind),
		Status: entity.AccountStatus(q.Status),
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"indexed": n}, "reindexed", nil)
}

func (h *PartyHandler) Get(c *gin.Context) {
	p, err := h.Parties.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, partyView(p), "party", nil)
}

func (h *PartyHandler) OnboardingState(c *gin.Context) {
	st, err := h.Onboarding.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, st, "onboarding state", nil)
}

func (h *PartyHandler) respondState(c *gin.Context, st entity.OnboardingState, err error, msg string) {
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, st, msg, nil)
}

func (h *PartyHandler) Submit(c *gin.Context) {
	st, err := h.Onboarding.Submit(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c))
	h.respondState(c, st, err, "submitted for analysis")
}

func (h *PartyHandler) ApproveAnalysis(c *gin.Context) {
	st, err := h.Onboarding.ApproveAnalysis(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c))
	h.respondState(c, st, err, "analysis approved")
}

func (h *PartyHandler) RejectAnalysis(c *gin.Context) {
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	st, err := h.Onboarding.RejectAnalysis(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c), req.Reason)
	h.respondState(c, st, err, "analysis rejected")
}

func (h *PartyHandler) SetPassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	st, err := h.Onboarding.SetPassword(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c), req.Password)
	h.respondState(c, st, err, "password set")
}

func (h *PartyHandler) ApproveRegistration(c *gin.Context) {
	st, err := h.Onboarding.ApproveRegistration(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c))
	h.respondState(c, st, err, "registration approved")
}

func (h *PartyHandler) RejectRegistration(c *gin.Context) {
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	st, err := h.Onboarding.RejectRegistration(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c), req.Reason)
	h.respondState(c, st, err, "registration rejected")
}

func (h *PartyHandler) RequestArchive(c *gin.Context) {
	p, err := h.Archive.RequestArchive(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	msg := "archive requested"
	if p.AccountStatus == entity.StatusArchived {
		msg = "party archived"
	}
	response.Success(c, http.StatusOK, partyView(p), msg, nil)
}

func (h *PartyHandler) ResolveArchive(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Archive.ResolveArchive(c.Request.Context(), c.Param("id"), application.ArchiveDecision(req.Decision), middleware.ActorFrom(c))
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, partyView(p), "archive request "+req.Decision, nil)
}

func (h *PartyHandler) Restore(c *gin.Context) {
	p, err := h.Archive.Restore(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		writeErr(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, partyView(p), "party restored", nil)
}
