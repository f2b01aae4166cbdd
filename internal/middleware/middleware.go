package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"flightsim/internal/cache"
	"flightsim/internal/logger"
	"flightsim/internal/metrics"
	"flightsim/internal/service"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// ContextWithUserID stores the authenticated user id on the request
// context.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// CORS handles cross-origin requests.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

// Logger logs every request and feeds the request counter.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.HTTPRequests.WithLabelValues(
			c.Request.Method, c.FullPath(), strconv.Itoa(status)).Inc()

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		if status >= 400 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			logger.Get().Error("request completed with error", logFields...)
		} else {
			logger.Get().Debug("request completed", logFields...)
		}
	}
}

// Recovery converts panics into 500 responses with a detailed log line.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Get().Error("panic recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
	})
}

// BasicAuth authenticates requests with HTTP Basic Auth, checking the
// Redis auth cache before falling back to the database. The cache may
// be nil.
func BasicAuth(users service.UserStore, authCache *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", "Basic realm=\"Restricted\"")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		ctx := c.Request.Context()

		hash := sha256.Sum256([]byte(password))
		passwordHash := fmt.Sprintf("%x", hash)

		if authCache != nil {
			if cached, ok := authCache.GetAuthHash(ctx, username); ok && cached == passwordHash {
				c.Set("user_email", username)
				c.Next()
				return
			}
		}

		user, err := users.GetByEmail(ctx, username)
		if err != nil || !user.IsActive || user.PasswordHash != passwordHash {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if authCache != nil {
			authCache.SetAuthHash(ctx, username, passwordHash)
		}

		c.Set("user_id", user.UserID)
		c.Set("user_email", user.Email)
		c.Set("is_admin", user.IsAdmin)
		c.Request = c.Request.WithContext(ContextWithUserID(ctx, user.UserID))

		c.Next()
	}
}

// AdminOnly gates admin routes. It must run after BasicAuth.
func AdminOnly(users service.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString("user_email")
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		// The auth cache path skips the user load, so fetch the account
		// here to check the flag.
		if isAdmin, exists := c.Get("is_admin"); exists {
			if admin, ok := isAdmin.(bool); ok && admin {
				c.Next()
				return
			}
		}

		user, err := users.GetByEmail(c.Request.Context(), email)
		if err != nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}
