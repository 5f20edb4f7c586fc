package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"testons-go/server/internal/models"
	"testons-go/server/internal/repository"
	"testons-go/server/internal/services"
)

type ProtocolHandler struct {
	log     *zap.Logger
	store   repository.Store
	results *services.ResultsService
}

func NewProtocolHandler(log *zap.Logger, store repository.Store, results *services.ResultsService) *ProtocolHandler {
	return &ProtocolHandler{log: log, store: store, results: results}
}

func (h *ProtocolHandler) Get(c *gin.Context) {
	protocol, err := h.results.Protocol(c.Request.Context())
	if err != nil {
		storeFailure(c, h.log, "Failed to load protocol", err)
		return
	}
	c.JSON(http.StatusOK, protocol)
}

func (h *ProtocolHandler) PutTasks(c *gin.Context) {
	var tasks []models.TaskDefinition
	if err := c.ShouldBindJSON(&tasks); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task list"})
		return
	}
	if err := validateTasks(tasks); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SetProtocolTasks(c.Request.Context(), tasks); err != nil {
		storeFailure(c, h.log, "Failed to save protocol tasks", err)
		return
	}
	h.log.Info("Protocol tasks updated", zap.Int("tasks", len(tasks)))
	c.JSON(http.StatusOK, tasks)
}

func (h *ProtocolHandler) PutSections(c *gin.Context) {
	var sections []models.ProtocolSection
	if err := c.ShouldBindJSON(&sections); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid section list"})
		return
	}
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		if s.ID == "" || seen[s.ID] {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("section id %q is empty or duplicated", s.ID)})
			return
		}
		seen[s.ID] = true
	}
	if err := h.store.SetProtocolSections(c.Request.Context(), sections); err != nil {
		storeFailure(c, h.log, "Failed to save protocol sections", err)
		return
	}
	c.JSON(http.StatusOK, sections)
}

func (h *ProtocolHandler) Timestamp(c *gin.Context) {
	ts, err := h.store.GetProtocolTimestamp(c.Request.Context())
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"updatedAt": nil})
		return
	}
	if err != nil {
		storeFailure(c, h.log, "Failed to load protocol timestamp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updatedAt": ts})
}

func validateTasks(tasks []models.TaskDefinition) error {
	seen := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		if t.ID <= 0 {
			return fmt.Errorf("task id must be positive, got %d", t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate task id %d", t.ID)
		}
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("task %d has no title", t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}
