// Package sse streams quest events to connected clients.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/hikiquest/server/cache"
	mw "github.com/kasuganosora/hikiquest/server/middleware"
	"go.uber.org/zap"
)

const (
	announceChannel = "announce"
	// OnlineKey is the cache set of account IDs with an open stream.
	OnlineKey = "sse:online"

	keepaliveEvery = 30 * time.Second
)

// Channel is the pub/sub channel carrying one account's quest events.
func Channel(accountID int64) string {
	return "quest:" + strconv.FormatInt(accountID, 10)
}

// Handler handles the SSE endpoint.
type Handler struct {
	pubsub    cache.PubSub
	c         cache.Cache
	keepalive time.Duration
	logger    *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, c cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, c: c, keepalive: keepaliveEvery, logger: logger}
}

// ServeSSE handles GET /sse?token=<jwt>. It must run behind middleware.Auth.
// Events published to the account's quest channel and to the announcement
// channel are forwarded until the client disconnects.
func (h *Handler) ServeSSE(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	member := strconv.FormatInt(accountID, 10)

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, Channel(accountID), announceChannel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}
	defer unsub()

	if err := h.c.SAdd(subCtx, OnlineKey, member); err != nil {
		h.logger.Warn("sse presence add failed", zap.Error(err))
	}
	defer func() {
		if err := h.c.SRem(context.WithoutCancel(subCtx), OnlineKey, member); err != nil {
			h.logger.Warn("sse presence remove failed", zap.Error(err))
		}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"account_id\":%d}\n\n", accountID)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", eventName(msg), msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

// eventName picks the SSE event type: "announce" for broadcasts, otherwise
// the "event" field of the JSON payload.
func eventName(msg *cache.Message) string {
	if msg.Channel == announceChannel {
		return "announce"
	}
	var head struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal([]byte(msg.Payload), &head); err != nil || head.Event == "" {
		return "message"
	}
	return head.Event
}

// Announce publishes an announcement to every connected client.
func (h *Handler) Announce(ctx context.Context, message string) error {
	data, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return err
	}
	return h.pubsub.Publish(ctx, announceChannel, string(data))
}

type announceRequest struct {
	Message string `json:"message" binding:"required,max=500"`
}

// AnnounceHandler handles POST /api/admin/announce.
func (h *Handler) AnnounceHandler(c *gin.Context) {
	var req announceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Announce(c.Request.Context(), req.Message); err != nil {
		h.logger.Error("announce failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "publish failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
