package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/store"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// AgentProtocolConfig mirrors the poll-interval and registration-token
// knobs spec §4.2 calls out as externally supplied.
type AgentProtocolConfig struct {
	RegistrationToken   string
	RegistrationEnabled bool
	MinPollInterval     time.Duration
	MaxPollInterval     time.Duration
	InitialPollInterval time.Duration
	JWTSigningKey       []byte
}

// AgentService implements the business logic behind the three agent
// HTTPS operations of spec §4.2; internal/handlers binds it to the wire
// format.
type AgentService struct {
	store *store.Store
	audit *AuditService
	bus   *ProgressBus
	cfg   AgentProtocolConfig
}

func NewAgentService(st *store.Store, audit *AuditService, bus *ProgressBus, cfg AgentProtocolConfig) *AgentService {
	return &AgentService{store: st, audit: audit, bus: bus, cfg: cfg}
}

type RegisterRequest struct {
	AgentID           string
	Hostname          string
	OS                string
	AgentVersion      string
	RegistrationToken string
	Tags              []string
}

type RegisterResponse struct {
	Accepted            bool
	AuthToken           string
	ComputerID          int64
	PollIntervalSeconds int
	Message             string
}

// Register implements spec §4.2's Register operation, including the
// adopt-by-hostname / reuse-token-on-re-registration semantics that
// live in store.HostStore.RegisterOrUpdateAgent.
func (s *AgentService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if !s.cfg.RegistrationEnabled {
		return &RegisterResponse{Accepted: false, Message: "Disabled"}, nil
	}
	if s.cfg.RegistrationToken == "" || req.RegistrationToken != s.cfg.RegistrationToken {
		return &RegisterResponse{Accepted: false, Message: "InvalidToken"}, nil
	}

	host, err := s.store.Hosts().RegisterOrUpdateAgent(ctx, req.AgentID, req.Hostname, req.OS, req.AgentVersion, req.Tags, s.mintToken, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.audit.Log(ctx, "", models.AuditAgentRegistration, map[string]any{
		"agent_id": req.AgentID, "hostname": req.Hostname,
	}); err != nil {
		zap.S().Named("agent_protocol").Warnw("failed to write audit entry", "error", err)
	}

	return &RegisterResponse{
		Accepted:            true,
		AuthToken:           host.AgentAuthToken,
		ComputerID:          host.ID,
		PollIntervalSeconds: int(s.cfg.InitialPollInterval.Seconds()),
	}, nil
}

// mintToken issues an opaque, server-signed auth token: an HS256 JWT
// carrying only an issued-at time and a random nonce. The agent never
// parses it — it is only ever echoed back verbatim. Nothing on the
// server verifies the signature either; Heartbeat and CommandResult
// accept a token only by exact equality with the one stored on the Host.
func (s *AgentService) mintToken() string {
	claims := jwt.MapClaims{
		"iat":   time.Now().Unix(),
		"nonce": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.JWTSigningKey)
	if err != nil {
		zap.S().Named("agent_protocol").Errorw("failed to sign agent token, falling back to a random one", "error", err)
		return uuid.NewString()
	}
	return signed
}

// ClampPollInterval enforces spec §4.2's [MinPoll, MaxPoll] bound.
func (s *AgentService) ClampPollInterval(requested time.Duration) time.Duration {
	if requested < s.cfg.MinPollInterval {
		return s.cfg.MinPollInterval
	}
	if requested > s.cfg.MaxPollInterval {
		return s.cfg.MaxPollInterval
	}
	return requested
}

type ObservedStatus struct {
	AgentVersion       string
	Hostname           string
	Is64Bit            bool
	OperatingSystem    string
	CollectorInstalled bool
	CollectorVersion   string
	CollectorPath      string
	ConfigHash         string
}

type HeartbeatRequest struct {
	AgentID        string
	AuthToken      string
	ObservedStatus ObservedStatus
}

type PendingCommandView struct {
	CommandID string
	Type      string
	Payload   json.RawMessage
}

type HeartbeatResponse struct {
	Registered             bool
	NewPollIntervalSeconds *int
	PendingCommands        []PendingCommandView
}

// Heartbeat implements spec §4.2's Heartbeat operation: it updates
// observed host fields, then claims every unsent PendingCommand
// (store.CommandStore.ClaimDueCommandsFor). The host update and the
// claim run as two separate Store transactions; a failed claim does not
// roll back the host update.
func (s *AgentService) Heartbeat(ctx context.Context, req HeartbeatRequest) (*HeartbeatResponse, error) {
	host, err := s.store.Hosts().GetByAgentID(ctx, req.AgentID)
	if err != nil || host.AgentAuthToken != req.AuthToken {
		return &HeartbeatResponse{Registered: false}, nil
	}

	now := time.Now()
	host.AgentLastHeartbeat = &now
	host.AgentVersion = req.ObservedStatus.AgentVersion
	if req.ObservedStatus.Hostname != "" {
		host.Hostname = req.ObservedStatus.Hostname
	}
	if req.ObservedStatus.OperatingSystem != "" {
		host.OS = req.ObservedStatus.OperatingSystem
	}
	host.CollectorVersion = req.ObservedStatus.CollectorVersion
	host.CollectorPath = req.ObservedStatus.CollectorPath
	host.ConfigHash = req.ObservedStatus.ConfigHash
	online := models.ScanStatusOnline
	host.LastScanStatus = &online
	host.LastScanAt = &now

	if err := s.store.Hosts().Update(ctx, host); err != nil {
		return nil, err
	}

	claimed, err := s.store.Commands().ClaimDueCommandsFor(ctx, host.ID, now)
	if err != nil {
		return nil, err
	}

	pending := make([]PendingCommandView, 0, len(claimed))
	for _, c := range claimed {
		pending = append(pending, PendingCommandView{
			CommandID: c.CommandID,
			Type:      string(c.Type),
			Payload:   json.RawMessage(c.PayloadBytes),
		})
	}

	return &HeartbeatResponse{Registered: true, PendingCommands: pending}, nil
}

type CommandResultRequest struct {
	AgentID       string
	AuthToken     string
	CommandID     string
	Status        models.CommandResultStatus
	Message       string
	ResultPayload []byte
}

// CommandResult implements spec §4.2's CommandResult operation. It is
// idempotent on command_id via store.CommandStore.Complete, and an
// unknown or cross-host command_id is accepted-and-ignored (silent
// success) rather than surfaced, matching the UnknownCommand outcome of
// spec §4.2's failure taxonomy.
func (s *AgentService) CommandResult(ctx context.Context, req CommandResultRequest) error {
	host, err := s.store.Hosts().GetByAgentID(ctx, req.AgentID)
	if err != nil {
		return srvErrors.NewAgentAuthFailedError()
	}
	if host.AgentAuthToken != req.AuthToken {
		return srvErrors.NewAgentAuthFailedError()
	}

	cmd, err := s.store.Commands().GetByCommandID(ctx, req.CommandID)
	if err != nil {
		if srvErrors.IsNotFoundError(err) {
			return nil
		}
		return err
	}
	if cmd.HostRef != host.ID {
		return nil
	}

	now := time.Now()
	_, applied, err := s.store.Commands().Complete(ctx, req.CommandID, req.Status, req.Message, req.ResultPayload, now)
	if err != nil {
		return err
	}

	if applied && cmd.DeploymentJobRef != nil {
		if err := s.completeJobResult(ctx, *cmd.DeploymentJobRef, host, req.Status, req.Message, now); err != nil {
			return err
		}
	}

	if err := s.audit.Log(ctx, "", models.AuditAgentCommandCompleted, map[string]any{
		"command_id": req.CommandID, "status": req.Status,
	}); err != nil {
		zap.S().Named("agent_protocol").Warnw("failed to write audit entry", "error", err)
	}
	return nil
}

func (s *AgentService) completeJobResult(ctx context.Context, jobID int64, host *models.Host, status models.CommandResultStatus, message string, now time.Time) error {
	success := status == models.CommandResultSuccess
	if err := s.store.Jobs().CompleteResult(ctx, jobID, host.ID, success, message, now); err != nil {
		return err
	}

	results, err := s.store.Jobs().ListResults(ctx, jobID)
	if err != nil {
		return err
	}
	completed, total := 0, len(results)
	for _, r := range results {
		if r.CompletedAt != nil {
			completed++
		}
	}
	s.bus.PublishProgress(Progress{
		JobID: jobID, HostID: host.ID, Hostname: host.Hostname,
		Success: &success, Message: message, Completed: completed, Total: total,
	})

	if completed < total {
		return nil
	}

	job, err := s.store.Jobs().Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.Status.Terminal() {
		return nil
	}
	s.bus.PublishCompleted(Completed{
		JobID:          jobID,
		OverallSuccess: job.Status == models.JobStatusCompleted,
		Summary:        string(job.Status),
	})
	return nil
}
