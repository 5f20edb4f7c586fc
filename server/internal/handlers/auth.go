package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"testons-go/server/internal/config"
)

// Roles carried by an authenticated session.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"

	// SessionRoleKey is the cookie session key holding the role.
	SessionRoleKey = "role"
)

// AuthHandler checks the shared passwords. There are no user accounts: the
// password alone decides the role.
type AuthHandler struct {
	log   *zap.Logger
	creds func() config.AuthConfig
}

// NewAuthHandler reads the hashes through creds on every attempt so a
// reloaded configuration applies without restart.
func NewAuthHandler(log *zap.Logger, creds func() config.AuthConfig) *AuthHandler {
	return &AuthHandler{log: log, creds: creds}
}

type loginRequest struct {
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	role := h.roleFor(req.Password)
	if role == "" {
		h.log.Warn("Rejected login attempt", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password."})
		return
	}

	session := sessions.Default(c)
	session.Set(SessionRoleKey, role)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save session on login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}
	h.log.Info("User logged in", zap.String("role", role))
	c.JSON(http.StatusOK, gin.H{"role": role})
}

func (h *AuthHandler) roleFor(password string) string {
	creds := h.creds()
	candidates := []struct {
		role string
		hash string
	}{
		{RoleAdmin, creds.AdminPasswordHash},
		{RoleViewer, creds.ViewerPasswordHash},
	}
	for _, cand := range candidates {
		if cand.hash == "" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(cand.hash), []byte(password)) == nil {
			return cand.role
		}
	}
	return ""
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Me reports the role of the current session.
func (h *AuthHandler) Me(c *gin.Context) {
	role, _ := sessions.Default(c).Get(SessionRoleKey).(string)
	if role == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}
