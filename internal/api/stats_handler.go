package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/core"
)

// StatsHandler serves derived views and the template catalog.
type StatsHandler struct {
	statsService    core.StatsService
	templateService core.TemplateService
	logger          *zap.Logger
}

func NewStatsHandler(ss core.StatsService, ts core.TemplateService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{statsService: ss, templateService: ts, logger: logger}
}

// Heatmap handles GET /stats/heatmap.
func (h *StatsHandler) Heatmap(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	heatmap, err := h.statsService.Heatmap(c.Request.Context(), userID)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, heatmap)
}

// Progress handles GET /stats/progress. Premium and above.
func (h *StatsHandler) Progress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	report, err := h.statsService.Progress(c.Request.Context(), userID)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, report)
}

// ListTemplates handles GET /templates.
func (h *StatsHandler) ListTemplates(c *gin.Context) {
	respond(c, http.StatusOK, h.templateService.List())
}

// Recommendations handles GET /templates/:id/recommendations?duration=.
func (h *StatsHandler) Recommendations(c *gin.Context) {
	duration := 0
	if raw := c.Query("duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid duration", err.Error())
			return
		}
		duration = n
	}
	rec, err := h.templateService.Recommendations(c.Param("id"), duration)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, rec)
}
