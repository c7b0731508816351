package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/services"
	"github.com/sysmonctl/controlplane/internal/store"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

var allowedOperations = map[models.JobOperation]bool{
	models.OperationInstall:          true,
	models.OperationUpdateConfig:     true,
	models.OperationUninstall:        true,
	models.OperationTestConnectivity: true,
}

// JobHandler starts and reports on DeploymentJobs (spec §3, §4.4).
// Dispatch runs to completion on its own goroutine: the handler
// returns as soon as the Job and its pending Results are persisted, so
// operators poll Get/ListResults for the outcome. No HTTP route
// exposes the progress stream.
type JobHandler struct {
	store      *store.Store
	dispatcher *services.Dispatcher
	audit      *services.AuditService
}

func NewJobHandler(st *store.Store, dispatcher *services.Dispatcher, audit *services.AuditService) *JobHandler {
	return &JobHandler{store: st, dispatcher: dispatcher, audit: audit}
}

func RegisterJobRoutes(r *gin.Engine, h *JobHandler) {
	group := r.Group("/api/v1/jobs")
	group.POST("", h.Start)
	group.GET("/:id", h.Get)
	group.GET("/:id/results", h.Results)
	group.POST("/:id/cancel", h.Cancel)
}

type startJobBody struct {
	Operation     models.JobOperation `json:"operation"`
	ConfigID      *int64               `json:"configId"`
	TargetHostIDs []int64              `json:"targetHostIds"`
	StartedBy     string               `json:"startedBy"`
}

func (h *JobHandler) Start(c *gin.Context) {
	var body startJobBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if !allowedOperations[body.Operation] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized operation"})
		return
	}
	if (body.Operation == models.OperationInstall || body.Operation == models.OperationUpdateConfig) && body.ConfigID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "configId is required for " + string(body.Operation)})
		return
	}

	job, err := h.store.Jobs().StartDeployment(c.Request.Context(), body.Operation, body.ConfigID, body.StartedBy, body.TargetHostIDs, time.Now())
	if err != nil {
		writeOperatorError(c, err, "start_job")
		return
	}

	if err := h.audit.Log(c.Request.Context(), body.StartedBy, models.AuditDeploymentStart, map[string]any{
		"job_id": job.ID, "operation": job.Operation, "target_count": len(body.TargetHostIDs),
	}); err != nil {
		writeOperatorError(c, err, "audit_job_start")
		return
	}

	if job.Status != models.JobStatusCompleted {
		go func(jobID int64) {
			if err := h.dispatcher.Dispatch(context.Background(), jobID); err != nil {
				zap.S().Named("job_handler").Errorw("dispatch failed", "job_id", jobID, "error", err)
			}
		}(job.ID)
	}

	c.JSON(http.StatusAccepted, job)
}

func (h *JobHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	job, err := h.store.Jobs().Get(c.Request.Context(), id)
	if err != nil {
		writeOperatorError(c, err, "get_job")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) Results(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	if _, err := h.store.Jobs().Get(c.Request.Context(), id); err != nil {
		writeOperatorError(c, err, "get_job_for_results")
		return
	}
	results, err := h.store.Jobs().ListResults(c.Request.Context(), id)
	if err != nil {
		writeOperatorError(c, err, "list_job_results")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

type cancelJobBody struct {
	CancelledBy string `json:"cancelledBy"`
}

func (h *JobHandler) Cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	var body cancelJobBody
	_ = c.ShouldBindJSON(&body)

	job, err := h.store.Jobs().Get(c.Request.Context(), id)
	if err != nil {
		writeOperatorError(c, err, "get_job_for_cancel")
		return
	}
	if job.Status.Terminal() {
		writeOperatorError(c, srvErrors.NewValidationError("job %d is already terminal (%s)", id, job.Status), "cancel_job")
		return
	}

	if err := h.store.Jobs().Cancel(c.Request.Context(), id, time.Now()); err != nil {
		writeOperatorError(c, err, "cancel_job")
		return
	}
	if err := h.audit.Log(c.Request.Context(), body.CancelledBy, models.AuditDeploymentCancel, map[string]any{"job_id": id}); err != nil {
		writeOperatorError(c, err, "audit_job_cancel")
		return
	}
	c.Status(http.StatusNoContent)
}
