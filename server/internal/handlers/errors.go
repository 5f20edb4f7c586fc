package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"testons-go/server/internal/repository"
)

// storeFailure answers a persistence error: 404 for a missing document,
// 500 otherwise.
func storeFailure(c *gin.Context, log *zap.Logger, msg string, err error, fields ...zap.Field) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	log.Error(msg, append(fields, zap.Error(err))...)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
