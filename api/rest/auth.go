package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/hikiquest/server/audit"
	"github.com/kasuganosora/hikiquest/server/cache"
	"github.com/kasuganosora/hikiquest/server/config"
	mw "github.com/kasuganosora/hikiquest/server/middleware"
	"github.com/kasuganosora/hikiquest/server/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	bcryptCost = 12

	maxLoginFailures = 5
	loginFailWindow  = 15 * time.Minute
)

func loginFailKey(username string) string { return "login_fail:" + strings.ToLower(username) }

// AuthHandler handles authentication REST endpoints.
type AuthHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	sec    config.SecurityConfig
	audit  *audit.Service
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. audit may be nil.
func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig, auditSvc *audit.Service, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{db: db, cache: c, sec: sec, audit: auditSvc, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// recordFailure counts a wrong password. The window starts at the first failure.
func (h *AuthHandler) recordFailure(ctx context.Context, username string) {
	key := loginFailKey(username)
	n, err := h.cache.Incr(ctx, key)
	if err != nil {
		h.logger.Warn("count login failure failed", zap.Error(err))
		return
	}
	if n == 1 {
		if err := h.cache.Expire(ctx, key, loginFailWindow); err != nil {
			h.logger.Warn("expire login failures failed", zap.Error(err))
		}
	}
}

// Login handles POST /api/auth/login.
// Auto-registers on first login if the username does not exist.
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if n, err := h.cache.Get(ctx, loginFailKey(req.Username)); err == nil {
		if fails, _ := strconv.Atoi(n); fails >= maxLoginFailures {
			c.Header("Retry-After", strconv.Itoa(int(loginFailWindow.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many failed logins"})
			return
		}
	}

	var acc model.Account
	created := false
	err := h.db.Where("username = ?", req.Username).First(&acc).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		acc = model.Account{
			Username:     req.Username,
			PasswordHash: string(hash),
			Status:       model.AccountActive,
		}
		if createErr := h.db.Create(&acc).Error; createErr != nil {
			// Another request registered the same name first.
			if isUniqueViolation(createErr) {
				c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
			}
			return
		}
		created = true
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	default:
		if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
			h.recordFailure(ctx, req.Username)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if acc.Status == model.AccountBanned {
			c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
			return
		}
	}

	if !created {
		_ = h.cache.Del(ctx, loginFailKey(req.Username))
	}
	token, err := h.issue(ctx, acc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	now := time.Now()
	ip := c.ClientIP()
	if err := h.db.Model(&acc).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": ip,
	}).Error; err != nil {
		h.logger.Warn("update last login failed", zap.Int64("account_id", acc.ID), zap.Error(err))
	}
	h.audit.Log(audit.AuditEntry{
		TraceID:    mw.GetTraceID(c),
		AccountID:  &acc.ID,
		Action:     audit.ActionLogin,
		Target:     acc.Username,
		Response:   map[string]bool{"registered": created},
		IP:         ip,
		DurationMs: int(time.Since(start).Milliseconds()),
	})

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"account_id": acc.ID,
		"registered": created,
	})
}

// issue signs a token and records its session in the cache.
func (h *AuthHandler) issue(ctx context.Context, accountID int64) (string, error) {
	token, err := mw.GenerateToken(accountID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		return "", err
	}
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.cache.Set(cctx, mw.SessionKey(token), strconv.FormatInt(accountID, 10), h.sec.JWTTTLH); err != nil {
		return "", err
	}
	return token, nil
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(mw.GetToken(c)))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh. Banned accounts cannot refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var acc model.Account
	if err := h.db.Select("id", "status").First(&acc, accountID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if acc.Status == model.AccountBanned {
		c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(mw.GetToken(c)))

	newToken, err := h.issue(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": newToken})
}

// isUniqueViolation detects duplicate-key errors from SQLite and MySQL.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
