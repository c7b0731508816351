package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/services"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// AgentHandler binds AgentService to the wire-stable agent HTTPS
// surface of spec §6.1. Every request carries X-Agent-Id and, after
// registration, X-Auth-Token; only auth/identity failures use 401/404,
// everything else is a 200 carrying an application-level outcome.
type AgentHandler struct {
	agent *services.AgentService
}

func NewAgentHandler(agent *services.AgentService) *AgentHandler {
	return &AgentHandler{agent: agent}
}

// RegisterAgentRoutes mounts the agent surface under /api/agent.
func RegisterAgentRoutes(r *gin.Engine, h *AgentHandler) {
	group := r.Group("/api/agent")
	group.POST("/register", h.Register)
	group.POST("/heartbeat", h.Heartbeat)
	group.POST("/command-result", h.CommandResult)
}

type registerBody struct {
	AgentID           string   `json:"agentId"`
	Hostname          string   `json:"hostname"`
	OperatingSystem   string   `json:"operatingSystem"`
	Is64Bit           bool     `json:"is64Bit"`
	AgentVersion      string   `json:"agentVersion"`
	RegistrationToken string   `json:"registrationToken"`
	Tags              []string `json:"tags"`
}

type registerResponseBody struct {
	Accepted            bool   `json:"accepted"`
	AuthToken           string `json:"authToken,omitempty"`
	ComputerID          int64  `json:"computerId,omitempty"`
	PollIntervalSeconds int    `json:"pollIntervalSeconds"`
	Message             string `json:"message,omitempty"`
}

func (h *AgentHandler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	resp, err := h.agent.Register(c.Request.Context(), services.RegisterRequest{
		AgentID: body.AgentID, Hostname: body.Hostname, OS: body.OperatingSystem,
		AgentVersion: body.AgentVersion, RegistrationToken: body.RegistrationToken, Tags: body.Tags,
	})
	if err != nil {
		writeError(c, err, "register")
		return
	}

	c.JSON(http.StatusOK, registerResponseBody{
		Accepted: resp.Accepted, AuthToken: resp.AuthToken, ComputerID: resp.ComputerID,
		PollIntervalSeconds: resp.PollIntervalSeconds, Message: resp.Message,
	})
}

type heartbeatStatusBody struct {
	AgentVersion     string `json:"agentVersion"`
	Hostname         string `json:"hostname"`
	Is64Bit          bool   `json:"is64Bit"`
	OperatingSystem  string `json:"operatingSystem"`
	SysmonInstalled  bool   `json:"sysmonInstalled"`
	SysmonVersion    string `json:"sysmonVersion,omitempty"`
	SysmonPath       string `json:"sysmonPath,omitempty"`
	ServiceStatus    string `json:"serviceStatus,omitempty"`
	ConfigHash       string `json:"configHash,omitempty"`
	UptimeSeconds    int64  `json:"uptimeSeconds"`
}

type heartbeatBody struct {
	AgentID string              `json:"agentId"`
	Status  heartbeatStatusBody `json:"status"`
}

type pendingCommandBody struct {
	CommandID string          `json:"commandId"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type heartbeatResponseBody struct {
	Registered             bool                  `json:"registered"`
	NewPollIntervalSeconds *int                  `json:"newPollIntervalSeconds,omitempty"`
	PendingCommands        []pendingCommandBody `json:"pendingCommands"`
}

func (h *AgentHandler) Heartbeat(c *gin.Context) {
	var body heartbeatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	resp, err := h.agent.Heartbeat(c.Request.Context(), services.HeartbeatRequest{
		AgentID: body.AgentID, AuthToken: c.GetHeader("X-Auth-Token"),
		ObservedStatus: services.ObservedStatus{
			AgentVersion: body.Status.AgentVersion, Hostname: body.Status.Hostname, Is64Bit: body.Status.Is64Bit,
			OperatingSystem: body.Status.OperatingSystem, CollectorInstalled: body.Status.SysmonInstalled,
			CollectorVersion: body.Status.SysmonVersion, CollectorPath: body.Status.SysmonPath, ConfigHash: body.Status.ConfigHash,
		},
	})
	if err != nil {
		writeError(c, err, "heartbeat")
		return
	}

	pending := make([]pendingCommandBody, 0, len(resp.PendingCommands))
	for _, cmd := range resp.PendingCommands {
		pending = append(pending, pendingCommandBody{CommandID: cmd.CommandID, Type: cmd.Type, Payload: cmd.Payload})
	}

	c.JSON(http.StatusOK, heartbeatResponseBody{
		Registered: resp.Registered, NewPollIntervalSeconds: resp.NewPollIntervalSeconds, PendingCommands: pending,
	})
}

type commandResultBody struct {
	CommandID string          `json:"commandId"`
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (h *AgentHandler) CommandResult(c *gin.Context) {
	var body commandResultBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	err := h.agent.CommandResult(c.Request.Context(), services.CommandResultRequest{
		AgentID: c.GetHeader("X-Agent-Id"), AuthToken: c.GetHeader("X-Auth-Token"),
		CommandID: body.CommandID, Status: models.CommandResultStatus(body.Status),
		Message: body.Message, ResultPayload: body.Payload,
	})
	if err != nil {
		writeError(c, err, "command_result")
		return
	}
	c.Status(http.StatusOK)
}

// writeError maps the handful of error kinds surfaced across the agent
// boundary to status codes: identity failures get 401/404; everything
// else is an unexpected server fault (500), since the wire protocol
// only carves out auth/identity as a non-200 outcome.
func writeError(c *gin.Context, err error, op string) {
	switch {
	case srvErrors.IsAgentAuthFailedError(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case srvErrors.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		zap.S().Named("agent_handler").Errorw("agent request failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
