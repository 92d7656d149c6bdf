package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/hikiquest/server/cache"
	"github.com/kasuganosora/hikiquest/server/config"
)

const (
	AccountIDKey = "account_id"
	TokenKey     = "token"
)

// SessionKey is the cache key marking a token as logged in.
func SessionKey(token string) string { return "session:" + token }

// BanKey is the cache key marking an account as banned. Its presence rejects
// tokens issued before the ban.
func BanKey(accountID int64) string { return "banned:" + strconv.FormatInt(accountID, 10) }

// TokenFromRequest returns the Bearer token, or the token query parameter for
// clients such as EventSource that cannot set headers.
func TokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// Auth validates the JWT and checks that its session is still in the cache.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenStr := TokenFromRequest(ctx)
		if tokenStr == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		exists, err := c.Exists(cacheCtx, SessionKey(tokenStr))
		if err != nil || !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		if banned, err := c.Exists(cacheCtx, BanKey(claims.AccountID)); err == nil && banned {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account banned"})
			return
		}

		ctx.Set(AccountIDKey, claims.AccountID)
		ctx.Set(TokenKey, tokenStr)
		ctx.Next()
	}
}

// GetAccountID retrieves the authenticated account ID from the Gin context.
func GetAccountID(c *gin.Context) int64 {
	if v, exists := c.Get(AccountIDKey); exists {
		return v.(int64)
	}
	return 0
}

// GetToken returns the token that authenticated the request.
func GetToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}
