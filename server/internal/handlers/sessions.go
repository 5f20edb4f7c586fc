package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"testons-go/server/internal/migration"
	"testons-go/server/internal/models"
	"testons-go/server/internal/repository"
	"testons-go/server/internal/services"
	"testons-go/server/internal/utils"
)

type SessionHandler struct {
	log     *zap.Logger
	store   repository.Store
	results *services.ResultsService
}

func NewSessionHandler(log *zap.Logger, store repository.Store, results *services.ResultsService) *SessionHandler {
	return &SessionHandler{log: log, store: store, results: results}
}

// List returns every session, normalized.
func (h *SessionHandler) List(c *gin.Context) {
	sessions, _, err := h.results.Sessions(c.Request.Context())
	if err != nil {
		storeFailure(c, h.log, "Failed to list sessions", err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *SessionHandler) Get(c *gin.Context) {
	id := c.Param("id")
	session, err := h.store.GetSession(c.Request.Context(), id)
	if err != nil {
		storeFailure(c, h.log, "Failed to load session", err, zap.String("sessionID", id))
		return
	}
	protocol, err := h.results.Protocol(c.Request.Context())
	if err != nil {
		storeFailure(c, h.log, "Failed to load protocol", err)
		return
	}
	res := migration.Normalize([]models.TestSession{session}, protocol.Tasks)
	c.JSON(http.StatusOK, res.Sessions[0])
}

func (h *SessionHandler) Create(c *gin.Context) {
	session, ok := h.bindSession(c)
	if !ok {
		return
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	} else {
		_, err := h.store.GetSession(c.Request.Context(), session.ID)
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "A session with this id already exists"})
			return
		}
		if !errors.Is(err, repository.ErrNotFound) {
			storeFailure(c, h.log, "Failed to check session id", err, zap.String("sessionID", session.ID))
			return
		}
	}
	if session.Date.IsZero() {
		session.Date = time.Now().UTC()
	}
	if err := h.store.SaveSession(c.Request.Context(), session); err != nil {
		storeFailure(c, h.log, "Failed to save session", err, zap.String("sessionID", session.ID))
		return
	}
	h.log.Info("Session created", zap.String("sessionID", session.ID), zap.Int("tasks", len(session.Tasks)))
	c.JSON(http.StatusCreated, session)
}

// Update replaces a session. The date and recording link are kept from the
// stored copy when the payload leaves them out.
func (h *SessionHandler) Update(c *gin.Context) {
	session, ok := h.bindSession(c)
	if !ok {
		return
	}
	session.ID = c.Param("id")
	current, err := h.store.GetSession(c.Request.Context(), session.ID)
	if err != nil {
		storeFailure(c, h.log, "Failed to load session", err, zap.String("sessionID", session.ID))
		return
	}
	if session.Date.IsZero() {
		session.Date = current.Date
	}
	if session.RecordingURL == "" {
		session.RecordingURL = current.RecordingURL
	}
	if err := h.store.UpdateSession(c.Request.Context(), session); err != nil {
		storeFailure(c, h.log, "Failed to update session", err, zap.String("sessionID", session.ID))
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteSession(c.Request.Context(), id); err != nil {
		storeFailure(c, h.log, "Failed to delete session", err, zap.String("sessionID", id))
		return
	}
	h.log.Info("Session deleted", zap.String("sessionID", id))
	c.Status(http.StatusNoContent)
}

type recordingRequest struct {
	URL         string `json:"url" binding:"required,url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size" binding:"gte=0"`
}

func (h *SessionHandler) PutRecording(c *gin.Context) {
	var req recordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid recording url is required"})
		return
	}
	ref := models.RecordingRef{
		SessionID:   c.Param("id"),
		URL:         req.URL,
		ContentType: req.ContentType,
		Size:        req.Size,
	}
	if err := h.store.UploadRecording(c.Request.Context(), ref); err != nil {
		storeFailure(c, h.log, "Failed to save recording", err, zap.String("sessionID", ref.SessionID))
		return
	}
	stored, err := h.store.GetRecording(c.Request.Context(), ref.SessionID)
	if err != nil {
		storeFailure(c, h.log, "Failed to load recording", err, zap.String("sessionID", ref.SessionID))
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (h *SessionHandler) DeleteRecording(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteRecording(c.Request.Context(), id); err != nil {
		storeFailure(c, h.log, "Failed to delete recording", err, zap.String("sessionID", id))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) bindSession(c *gin.Context) (models.TestSession, bool) {
	var session models.TestSession
	if err := c.ShouldBindJSON(&session); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session payload"})
		return session, false
	}
	if session.DroppedTasks > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session payload", "droppedTasks": session.DroppedTasks})
		return session, false
	}
	if problems := utils.ValidateSession(session); len(problems) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid session", "problems": problems})
		return session, false
	}
	return session, true
}
