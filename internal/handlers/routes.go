package handlers

import "github.com/gin-gonic/gin"

// OperatorHandlers bundles every /api/v1 handler so main can build them
// once and hand the bundle to RegisterOperatorRoutes.
type OperatorHandlers struct {
	Hosts     *HostHandler
	Configs   *ConfigHandler
	Jobs      *JobHandler
	Schedules *ScheduleHandler
	Noise     *NoiseHandler
	Audit     *AuditHandler
}

// RegisterOperatorRoutes mounts the full operator-facing surface under
// /api/v1.
func RegisterOperatorRoutes(r *gin.Engine, h OperatorHandlers) {
	RegisterHostRoutes(r, h.Hosts)
	RegisterConfigRoutes(r, h.Configs)
	RegisterJobRoutes(r, h.Jobs)
	RegisterScheduleRoutes(r, h.Schedules)
	RegisterNoiseRoutes(r, h.Noise)
	RegisterAuditRoutes(r, h.Audit)
}
