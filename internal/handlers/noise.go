package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sysmonctl/controlplane/internal/noise"
	"github.com/sysmonctl/controlplane/internal/services"
	"github.com/sysmonctl/controlplane/internal/store"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// NoiseHandler runs and reports on noise-analysis (spec §4.7): scoring
// a Host's recent event volume against its role's threshold table and
// suggesting exclusions for the noisiest patterns.
type NoiseHandler struct {
	store   *store.Store
	service *services.NoiseService
}

func NewNoiseHandler(st *store.Store, service *services.NoiseService) *NoiseHandler {
	return &NoiseHandler{store: st, service: service}
}

func RegisterNoiseRoutes(r *gin.Engine, h *NoiseHandler) {
	r.POST("/api/v1/hosts/:id/noise-analysis", h.Analyze)
	r.GET("/api/v1/noise-runs/:id", h.GetRun)
	r.GET("/api/v1/noise-runs/:id/exclusion-pack", h.ExclusionPack)
	r.POST("/api/v1/noise/compare", h.Compare)
}

type analyzeNoiseBody struct {
	TimeRangeHours float64 `json:"timeRangeHours"`
}

func (h *NoiseHandler) Analyze(c *gin.Context) {
	hostID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	var body analyzeNoiseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	run, results, err := h.service.Analyze(c.Request.Context(), hostID, body.TimeRangeHours)
	if err != nil {
		writeOperatorError(c, err, "analyze_noise")
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "results": results})
}

func (h *NoiseHandler) GetRun(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	run, err := h.store.Noise().GetRun(c.Request.Context(), runID)
	if err != nil {
		writeOperatorError(c, srvErrors.NewNotFoundError("noise analysis run", c.Param("id")), "get_noise_run")
		return
	}
	results, err := h.store.Noise().ListResults(c.Request.Context(), runID)
	if err != nil {
		writeOperatorError(c, err, "list_noise_results")
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "results": results})
}

func (h *NoiseHandler) ExclusionPack(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	minScore := noise.DefaultMinNoiseScore
	if raw := c.Query("minNoiseScore"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minNoiseScore must be a number"})
			return
		}
		minScore = parsed
	}

	pack, err := h.service.ExclusionPack(c.Request.Context(), runID, minScore)
	if err != nil {
		writeOperatorError(c, err, "build_exclusion_pack")
		return
	}
	c.JSON(http.StatusOK, pack)
}

type compareNoiseBody struct {
	HostIDs        []int64 `json:"hostIds"`
	TimeRangeHours float64 `json:"timeRangeHours"`
}

func (h *NoiseHandler) Compare(c *gin.Context) {
	var body compareNoiseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if len(body.HostIDs) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hostIds must name at least two hosts to compare"})
		return
	}

	patterns, err := h.service.CompareHosts(c.Request.Context(), body.HostIDs, body.TimeRangeHours)
	if err != nil {
		writeOperatorError(c, err, "compare_noise")
		return
	}
	c.JSON(http.StatusOK, gin.H{"commonPatterns": patterns})
}
