package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/kasuganosora/hikiquest/server/middleware"
	"github.com/kasuganosora/hikiquest/server/quest"
)

// QuestHandler handles quest generation and progress endpoints.
type QuestHandler struct {
	svc *quest.Service
}

// NewQuestHandler creates a QuestHandler.
func NewQuestHandler(svc *quest.Service) *QuestHandler {
	return &QuestHandler{svc: svc}
}

// Generate handles POST /api/quests/generate.
func (h *QuestHandler) Generate(c *gin.Context) {
	gen, err := h.svc.Generate(c.Request.Context(), mw.GetAccountID(c), metaOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gen)
}

// Latest handles GET /api/quests/latest.
func (h *QuestHandler) Latest(c *gin.Context) {
	set, err := h.svc.Latest(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest_set": set, "stage_label": set.Stage.Label()})
}

// Status handles GET /api/quests/status.
func (h *QuestHandler) Status(c *gin.Context) {
	st, err := h.svc.Status(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// History handles GET /api/quests/history.
func (h *QuestHandler) History(c *gin.Context) {
	hist, err := h.svc.History(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

// Complete handles POST /api/quests/:quest_id/complete.
func (h *QuestHandler) Complete(c *gin.Context) {
	res, err := h.svc.Complete(c.Request.Context(), mw.GetAccountID(c), c.Param("quest_id"), metaOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
