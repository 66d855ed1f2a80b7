package main

import (
	"net/http"
	"strings"

	"money-matters-dashboard/internal/logger"
	"money-matters-dashboard/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	userIDHeader = "X-User-ID"
	sessionKey   = "session"
)

// Role is admin for the configured admin user and user for everyone else.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Session identifies the caller of an /api request.
type Session struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// Scope is every user's data for admins and the caller's own otherwise.
func (s Session) Scope() store.Scope {
	if s.IsAdmin() {
		return store.Scope{All: true}
	}
	return store.Scope{UserID: s.UserID}
}

// requireSession reads the caller's user id and aborts with 401 when absent.
func requireSession(adminUserID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": userIDHeader + " header required"})
			return
		}
		role := RoleUser
		if userID == adminUserID {
			role = RoleAdmin
		}
		c.Set(sessionKey, Session{UserID: userID, Role: role})
		c.Request = c.Request.WithContext(logger.WithSession(c.Request.Context(), userID, string(role)))
		c.Next()
	}
}

func sessionFrom(c *gin.Context) Session {
	s, _ := c.MustGet(sessionKey).(Session)
	return s
}
