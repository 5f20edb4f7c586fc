package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"testons-go/server/internal/export"
	"testons-go/server/internal/metrics"
	"testons-go/server/internal/sentiment"
	"testons-go/server/internal/services"
)

// Summarizer produces a written synthesis of the results.
type Summarizer interface {
	Summarize(ctx context.Context, report metrics.Report, verbatims sentiment.Verbatims) (string, error)
}

type ResultsHandler struct {
	log        *zap.Logger
	results    *services.ResultsService
	summarizer Summarizer
}

// NewResultsHandler builds the handler. summarizer may be nil when no LLM key
// is configured.
func NewResultsHandler(log *zap.Logger, results *services.ResultsService, summarizer Summarizer) *ResultsHandler {
	return &ResultsHandler{log: log, results: results, summarizer: summarizer}
}

func (h *ResultsHandler) Statistics(c *gin.Context) {
	report, err := h.results.Statistics(c.Request.Context())
	if err != nil {
		storeFailure(c, h.log, "Failed to compute statistics", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ResultsHandler) Verbatims(c *gin.Context) {
	v, err := h.results.Verbatims(c.Request.Context())
	if err != nil {
		storeFailure(c, h.log, "Failed to collect verbatims", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *ResultsHandler) Charts(c *gin.Context) {
	report, err := h.results.Statistics(c.Request.Context())
	if err != nil {
		storeFailure(c, h.log, "Failed to compute statistics", err)
		return
	}
	c.JSON(http.StatusOK, buildCharts(report))
}

func (h *ResultsHandler) ExportCSV(c *gin.Context) {
	sessions, protocol, err := h.results.Sessions(c.Request.Context())
	if err != nil {
		storeFailure(c, h.log, "Failed to load sessions", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, sessions, protocol.Tasks); err != nil {
		h.log.Error("Failed to write CSV export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export"})
		return
	}
	c.Header("Content-Disposition", attachment("csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *ResultsHandler) ExportXLSX(c *gin.Context) {
	ctx := c.Request.Context()
	sessions, protocol, err := h.results.Sessions(ctx)
	if err != nil {
		storeFailure(c, h.log, "Failed to load sessions", err)
		return
	}
	report := metrics.ComputeStatistics(sessions, protocol.Tasks)
	verbatims := sentiment.CollectVerbatims(sessions, protocol.Tasks)

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, report, sessions, protocol.Tasks, verbatims); err != nil {
		h.log.Error("Failed to write XLSX export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export"})
		return
	}
	c.Header("Content-Disposition", attachment("xlsx"))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ResultsHandler) Summary(c *gin.Context) {
	if h.summarizer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": services.ErrSummaryDisabled.Error()})
		return
	}
	ctx := c.Request.Context()
	sessions, protocol, err := h.results.Sessions(ctx)
	if err != nil {
		storeFailure(c, h.log, "Failed to load sessions", err)
		return
	}
	report := metrics.ComputeStatistics(sessions, protocol.Tasks)
	verbatims := sentiment.CollectVerbatims(sessions, protocol.Tasks)

	text, err := h.summarizer.Summarize(ctx, report, verbatims)
	if err != nil {
		if errors.Is(err, services.ErrSummaryDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("Failed to generate summary", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate summary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": text})
}

func attachment(ext string) string {
	return fmt.Sprintf(`attachment; filename="testons-resultats-%s.%s"`, time.Now().Format("2006-01-02"), ext)
}
