package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/hikiquest/server/intake"
	"github.com/kasuganosora/hikiquest/server/quest"
	"github.com/kasuganosora/hikiquest/server/store"
)

// respondError maps service errors to JSON error responses. Unknown errors
// are attached to the context for the access log and reported as 500.
func respondError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, store.ErrAlreadyCompleted):
		status, msg = http.StatusConflict, "quest already completed"
	case errors.Is(err, store.ErrCompletionReversal):
		status, msg = http.StatusConflict, "quest completion cannot be reversed"
	case errors.Is(err, quest.ErrBusy):
		status, msg = http.StatusTooManyRequests, "quest generation already in progress"
	case errors.Is(err, intake.ErrNoSession):
		status, msg = http.StatusNotFound, "no intake in progress"
	case errors.Is(err, intake.ErrFinished):
		status, msg = http.StatusConflict, "intake already finished"
	default:
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}
