package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/kasuganosora/hikiquest/server/middleware"
	"github.com/kasuganosora/hikiquest/server/quest"
)

func metaOf(c *gin.Context) quest.Meta {
	return quest.Meta{TraceID: mw.GetTraceID(c), IP: c.ClientIP()}
}

// ProfileHandler serves the authenticated account's profile.
type ProfileHandler struct {
	svc *quest.Service
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(svc *quest.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.svc.Profile(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// Put handles PUT /api/profile with a whole profile document.
func (h *ProfileHandler) Put(c *gin.Context) {
	var p quest.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := p.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.svc.SaveProfile(c.Request.Context(), mw.GetAccountID(c), p, metaOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Stage handles GET /api/profile/stage.
func (h *ProfileHandler) Stage(c *gin.Context) {
	a, err := h.svc.Assess(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
