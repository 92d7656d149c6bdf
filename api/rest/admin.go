package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/hikiquest/server/api/sse"
	"github.com/kasuganosora/hikiquest/server/audit"
	"github.com/kasuganosora/hikiquest/server/cache"
	mw "github.com/kasuganosora/hikiquest/server/middleware"
	"github.com/kasuganosora/hikiquest/server/model"
	"github.com/kasuganosora/hikiquest/server/scheduler"
	"github.com/kasuganosora/hikiquest/server/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthReporter reports whether an optional collaborator is usable.
type HealthReporter interface {
	Healthy() bool
}

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by middleware.AdminAuth.
type AdminHandler struct {
	db       *gorm.DB
	profiles *store.ProfileStore
	sets     *store.QuestSetStore
	narrator HealthReporter
	sched    *scheduler.Scheduler
	cache    cache.Cache
	audit    *audit.Service
	logger   *zap.Logger
}

// AdminDeps groups the collaborators of AdminHandler. Narrator may be nil.
type AdminDeps struct {
	DB        *gorm.DB
	Profiles  *store.ProfileStore
	Sets      *store.QuestSetStore
	Narrator  HealthReporter
	Scheduler *scheduler.Scheduler
	Cache     cache.Cache
	Audit     *audit.Service
	Logger    *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(d AdminDeps) *AdminHandler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &AdminHandler{
		db:       d.DB,
		profiles: d.Profiles,
		sets:     d.Sets,
		narrator: d.Narrator,
		sched:    d.Scheduler,
		cache:    d.Cache,
		audit:    d.Audit,
		logger:   d.Logger,
	}
}

// Metrics returns service counters.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.sets.Stats(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	stages, err := h.profiles.CountByStage(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	var accounts int64
	if err := h.db.WithContext(ctx).Model(&model.Account{}).Count(&accounts).Error; err != nil {
		respondError(c, err)
		return
	}
	online, err := h.cache.SCard(ctx, sse.OnlineKey)
	if err != nil {
		h.logger.Warn("count sse clients failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"accounts":          accounts,
		"quest_sets":        stats.Sets,
		"completed_quests":  stats.CompletedQuests,
		"profiles_by_stage": stages,
		"narrative_healthy": h.narrator != nil && h.narrator.Healthy(),
		"sse_clients":       online,
		"scheduler_tasks":   h.sched.ListTickers(),
	})
}

// BanAccount bans or unbans an account.
// POST /api/admin/accounts/:id/ban
func (h *AdminHandler) BanAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Ban bool `json:"ban"`
	}
	_ = c.ShouldBindJSON(&req)

	status := model.AccountActive
	if req.Ban {
		status = model.AccountBanned
	}
	result := h.db.Model(&model.Account{}).Where("id = ?", accountID).Update("status", status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	// Outstanding tokens are rejected by Auth while the marker exists.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if req.Ban {
		err = h.cache.Set(ctx, mw.BanKey(accountID), "1", 0)
	} else {
		err = h.cache.Del(ctx, mw.BanKey(accountID))
	}
	if err != nil {
		h.logger.Warn("update ban marker failed", zap.Int64("account_id", accountID), zap.Error(err))
	}

	h.audit.Log(audit.AuditEntry{
		TraceID:  mw.GetTraceID(c),
		Action:   audit.ActionAccountBan,
		Target:   strconv.FormatInt(accountID, 10),
		Request:  req,
		Response: map[string]int{"status": status},
		IP:       c.ClientIP(),
	})
	h.logger.Info("admin changed account status", zap.Int64("account_id", accountID), zap.Bool("ban", req.Ban))
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// AccountAudit returns the newest audit records of an account.
// GET /api/admin/accounts/:id/audit?limit=N
func (h *AdminHandler) AccountAudit(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.audit.Recent(c.Request.Context(), accountID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// ListSchedulerTasks returns all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers()})
}
