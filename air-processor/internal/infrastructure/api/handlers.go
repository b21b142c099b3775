package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/application"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/entities"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/ports"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/models"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
)

type APIHandler struct {
	mergeService       MergeService
	observationService ObservationService
	components         map[string]HealthChecker
	logger             logger.Logger
}

func NewAPIHandler(mergeService MergeService, observationService ObservationService, components map[string]HealthChecker) *APIHandler {
	return &APIHandler{
		mergeService:       mergeService,
		observationService: observationService,
		components:         components,
		logger:             logger.New("info", "development").WithField("component", "api_handler"),
	}
}

func (h *APIHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	healthStatus := HealthResponse{
		Status:  "healthy",
		Version: "1.0.0",
		Time:    time.Now(),
		Services: map[string]string{
			"api": "healthy",
		},
	}

	if err := h.observationService.HealthCheck(ctx); err != nil {
		healthStatus.Status = "degraded"
		healthStatus.Services["postgres"] = fmt.Sprintf("unhealthy: %v", err)
	} else {
		healthStatus.Services["postgres"] = "healthy"
	}

	if err := h.mergeService.HealthCheck(ctx); err != nil {
		healthStatus.Status = "degraded"
		healthStatus.Services["merge_pipeline"] = fmt.Sprintf("unhealthy: %v", err)
	} else {
		healthStatus.Services["merge_pipeline"] = "healthy"
	}

	for name, component := range h.components {
		if err := component.HealthCheck(ctx); err != nil {
			healthStatus.Status = "degraded"
			healthStatus.Services[name] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			healthStatus.Services[name] = "healthy"
		}
	}

	c.JSON(http.StatusOK, healthStatus)
}

// GetRuns returns recent merge runs, newest first.
func (h *APIHandler) GetRuns(c *gin.Context) {
	ctx := c.Request.Context()

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			h.respondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.mergeService.ListRuns(ctx, limit)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to list merge runs: %v", err))
		return
	}

	c.JSON(http.StatusOK, RunsResponse{
		Runs:  runs,
		Count: len(runs),
	})
}

func (h *APIHandler) GetLatestRun(c *gin.Context) {
	ctx := c.Request.Context()

	run, err := h.mergeService.LatestRun(ctx)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to get latest run: %v", err))
		return
	}
	if run == nil {
		h.respondError(c, http.StatusNotFound, "no merge runs recorded yet")
		return
	}

	c.JSON(http.StatusOK, run)
}

// TriggerMerge starts a merge run synchronously. A held lease is a conflict,
// not a failure: the caller can retry once the current run finishes.
func (h *APIHandler) TriggerMerge(c *gin.Context) {
	ctx := c.Request.Context()

	run, err := h.mergeService.RunMerge(ctx, models.RunTriggerManual)
	if errors.Is(err, application.ErrMergeInProgress) {
		h.respondError(c, http.StatusConflict, "a merge run is already in progress")
		return
	}
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, fmt.Sprintf("Merge run failed: %v", err))
		return
	}

	c.JSON(http.StatusOK, run)
}

func (h *APIHandler) GetObservations(c *gin.Context) {
	ctx := c.Request.Context()

	filter := ports.ObservationFilter{}

	if stationStr := c.Query("station_id"); stationStr != "" {
		stationID, err := strconv.Atoi(stationStr)
		if err != nil || stationID <= 0 {
			h.respondError(c, http.StatusBadRequest, "station_id must be a positive integer")
			return
		}
		filter.StationID = stationID
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			h.respondError(c, http.StatusBadRequest, "from must be an RFC3339 timestamp")
			return
		}
		filter.From = from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			h.respondError(c, http.StatusBadRequest, "to must be an RFC3339 timestamp")
			return
		}
		filter.To = to
	}

	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		h.respondError(c, http.StatusBadRequest, "from must not be after to")
		return
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			h.respondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	observations, err := h.observationService.FindObservations(ctx, filter)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to query observations: %v", err))
		return
	}

	c.JSON(http.StatusOK, ObservationsResponse{
		Observations: observations,
		Count:        len(observations),
	})
}

// GetStats reports table sizes and the latest run in one snapshot.
func (h *APIHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	rawRows, err := h.observationService.CountRaw(ctx)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to count raw rows: %v", err))
		return
	}

	productionRows, err := h.observationService.CountProduction(ctx)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to count production rows: %v", err))
		return
	}

	latestRun, err := h.mergeService.LatestRun(ctx)
	if err != nil {
		h.logger.Errorf("Failed to fetch latest run for stats: %v", err)
	}

	c.JSON(http.StatusOK, StatsResponse{
		RawRows:        rawRows,
		ProductionRows: productionRows,
		LatestRun:      latestRun,
		Time:           time.Now(),
	})
}

func (h *APIHandler) respondError(c *gin.Context, status int, message string) {
	h.logger.Errorf("HTTP %d: %s", status, message)
	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Time:    time.Now(),
	})
}

type RunsResponse struct {
	Runs  []*models.MergeRun `json:"runs"`
	Count int                `json:"count"`
}

type ObservationsResponse struct {
	Observations []*entities.Observation `json:"observations"`
	Count        int                     `json:"count"`
}

type StatsResponse struct {
	RawRows        int64            `json:"raw_rows"`
	ProductionRows int64            `json:"production_rows"`
	LatestRun      *models.MergeRun `json:"latest_run,omitempty"`
	Time           time.Time        `json:"time"`
}

type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Time     time.Time         `json:"time"`
	Services map[string]string `json:"services"`
}
