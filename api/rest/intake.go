package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/hikiquest/server/intake"
	mw "github.com/kasuganosora/hikiquest/server/middleware"
)

// IntakeHandler exposes the guided questionnaire.
type IntakeHandler struct {
	svc *intake.Service
}

// NewIntakeHandler creates an IntakeHandler.
func NewIntakeHandler(svc *intake.Service) *IntakeHandler {
	return &IntakeHandler{svc: svc}
}

// Questions handles GET /api/intake/questions.
func (h *IntakeHandler) Questions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": intake.Questions(), "total": intake.Total()})
}

// Start handles POST /api/intake/start.
func (h *IntakeHandler) Start(c *gin.Context) {
	step, err := h.svc.Start(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

// Current handles GET /api/intake.
func (h *IntakeHandler) Current(c *gin.Context) {
	s, err := h.svc.Current(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"index": s.Index, "total": intake.Total(), "done": s.Done()}
	if !s.Done() {
		resp["question"] = intake.Questions()[s.Index]
	}
	c.JSON(http.StatusOK, resp)
}

type answerRequest struct {
	Answer string `json:"answer" binding:"required,max=2000"`
}

// Answer handles POST /api/intake/answer.
func (h *IntakeHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	step, err := h.svc.Answer(c.Request.Context(), mw.GetAccountID(c), req.Answer, metaOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}
