package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/core/services"
	"github.com/jakechorley/volunteer-hours/pkg/db"
)

const adminKey = "admin"

// requestLogger logs each request except those to skipPaths
func requestLogger(logger *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if slices.Contains(skipPaths, c.Request.URL.Path) {
			return
		}
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// adminAuth checks HTTP basic credentials against admin accounts
func adminAuth(admins db.AdminStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="volunteer-hours"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		admin, err := admins.FindAdminByUsername(c.Request.Context(), username)
		if err != nil {
			logger.Error("Failed to look up admin", zap.String("username", username), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if admin == nil || !services.CheckAdminPassword(admin, password) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		c.Set(adminKey, admin)
		c.Next()
	}
}

// currentAdmin returns the authenticated admin
func currentAdmin(c *gin.Context) *model.Admin {
	return c.MustGet(adminKey).(*model.Admin)
}

// session stamps writes with the authenticated admin's username
func session(c *gin.Context) model.Session {
	return model.Session{ActorID: currentAdmin(c).Username}
}
