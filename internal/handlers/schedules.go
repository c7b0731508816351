package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/services"
	"github.com/sysmonctl/controlplane/internal/store"
)

// ScheduleHandler creates future-dated ScheduledDeployments and exposes
// the due queue the engine promotes on each tick (spec §4.6). There is
// no per-schedule cancel beyond what ScheduleEngine itself marks
// Failed on an empty target list — once due, a schedule is promoted to
// a DeploymentJob and cancellation moves to the Job endpoints.
type ScheduleHandler struct {
	store  *store.Store
	engine *services.ScheduleEngine
	audit  *services.AuditService
}

func NewScheduleHandler(st *store.Store, engine *services.ScheduleEngine, audit *services.AuditService) *ScheduleHandler {
	return &ScheduleHandler{store: st, engine: engine, audit: audit}
}

func RegisterScheduleRoutes(r *gin.Engine, h *ScheduleHandler) {
	group := r.Group("/api/v1/schedules")
	group.POST("", h.Create)
	group.GET("/due", h.ListDue)
	group.POST("/run", h.RunOnce)
}

type createScheduleBody struct {
	Operation      models.JobOperation `json:"operation"`
	ConfigID       *int64               `json:"configId"`
	ScheduledAt    time.Time            `json:"scheduledAt"`
	CreatedBy      string               `json:"createdBy"`
	TargetHostRefs []int64              `json:"targetHostRefs"`
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	var body createScheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if !allowedOperations[body.Operation] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized operation"})
		return
	}
	if body.ScheduledAt.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduledAt is required"})
		return
	}

	schedule := &models.ScheduledDeployment{
		Operation: body.Operation, ConfigRef: body.ConfigID, ScheduledAt: body.ScheduledAt,
		CreatedBy: body.CreatedBy, CreatedAt: time.Now(), Status: models.ScheduleStatusPending,
		TargetHostRefs: body.TargetHostRefs,
	}
	if err := h.store.Schedules().Create(c.Request.Context(), schedule); err != nil {
		writeOperatorError(c, err, "create_schedule")
		return
	}
	if err := h.audit.Log(c.Request.Context(), body.CreatedBy, models.AuditScheduledDeployCreate, map[string]any{
		"schedule_id": schedule.ID, "operation": schedule.Operation, "scheduled_at": schedule.ScheduledAt,
	}); err != nil {
		writeOperatorError(c, err, "audit_schedule_create")
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (h *ScheduleHandler) ListDue(c *gin.Context) {
	due, err := h.store.Schedules().ListDue(c.Request.Context(), time.Now())
	if err != nil {
		writeOperatorError(c, err, "list_due_schedules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": due})
}

// RunOnce forces an immediate engine tick, promoting every due schedule
// to a DeploymentJob; useful for operator-triggered catch-up outside
// the engine's normal polling cadence.
func (h *ScheduleHandler) RunOnce(c *gin.Context) {
	if err := h.engine.RunOnce(c.Request.Context()); err != nil {
		writeOperatorError(c, err, "run_schedule_engine")
		return
	}
	c.Status(http.StatusNoContent)
}
