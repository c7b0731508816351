package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/noise"
	"github.com/sysmonctl/controlplane/internal/store"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
	"github.com/sysmonctl/controlplane/pkg/transport"
)

// maxNoiseEvents is the max_events the flow of spec §4.7 requests,
// whether obtained agentlessly or through a QueryEvents command.
const maxNoiseEvents = 10000

// NoiseTimeouts holds the per-flavor noise-analysis deadlines of spec
// §4.3 ("QueryEvents at 60s and noise-analysis at 120s").
type NoiseTimeouts struct {
	QueryEvents time.Duration
}

// NoiseService orchestrates the pure internal/noise algorithms with
// event acquisition (agentless RemoteAdmin probe or an agent-managed
// QueryEvents command) and persistence (spec §4.7 C8).
type NoiseService struct {
	store       *store.Store
	remoteAdmin transport.RemoteAdmin
	audit       *AuditService
	timeouts    NoiseTimeouts
	pollHosts   time.Duration
}

func NewNoiseService(st *store.Store, remoteAdmin transport.RemoteAdmin, audit *AuditService, timeouts NoiseTimeouts) *NoiseService {
	if timeouts.QueryEvents == 0 {
		timeouts.QueryEvents = 60 * time.Second
	}
	return &NoiseService{store: st, remoteAdmin: remoteAdmin, audit: audit, timeouts: timeouts, pollHosts: 500 * time.Millisecond}
}

// Analyze runs one noise-analysis pass against hostID over
// timeRangeHours, persists the run and its results, and returns both.
func (n *NoiseService) Analyze(ctx context.Context, hostID int64, timeRangeHours float64) (*models.NoiseAnalysisRun, []models.NoiseResult, error) {
	if timeRangeHours <= 0 || timeRangeHours > 168 {
		return nil, nil, srvErrors.NewValidationError("time_range_hours must be in (0, 168], got %v", timeRangeHours)
	}

	host, err := n.store.Hosts().Get(ctx, hostID)
	if err != nil {
		return nil, nil, err
	}

	events, err := n.obtainEvents(ctx, host, timeRangeHours)
	if err != nil {
		return nil, nil, err
	}

	role := noise.DetermineRole(host.OS, host.DirectoryDN)
	groups := noise.Group(events)

	results := make([]models.NoiseResult, 0, len(groups))
	for _, g := range groups {
		threshold := noise.Threshold(role, g.Kind)
		rate := noise.Rate(g.Count, timeRangeHours)
		score := noise.Score(rate, threshold)

		result := models.NoiseResult{
			EventID:     g.Representative.EventID,
			GroupingKey: g.GroupingKey,
			EventCount:  g.Count,
			NoiseScore:  score,
		}
		if score >= 0.5 {
			result.SuggestedExclusion = noise.SuggestedExclusion(g)
		}
		results = append(results, result)
	}

	run := &models.NoiseAnalysisRun{
		HostRef: hostID, TimeRangeHours: timeRangeHours,
		TotalEventsObserved: len(events), AnalyzedAt: time.Now(),
	}
	if err := n.store.Noise().SaveRun(ctx, run, results); err != nil {
		return nil, nil, err
	}

	if err := n.audit.Log(ctx, "", models.AuditNoiseAnalysisStart, map[string]any{
		"host_id": hostID, "run_id": run.ID, "time_range_hours": timeRangeHours,
	}); err != nil {
		return nil, nil, err
	}

	saved, err := n.store.Noise().ListResults(ctx, run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, saved, nil
}

// ExclusionPack wraps noise.BuildExclusionPack over a persisted run's
// results (spec §4.7 aggregation).
func (n *NoiseService) ExclusionPack(ctx context.Context, runID int64, minNoiseScore float64) (noise.ExclusionPack, error) {
	results, err := n.store.Noise().ListResults(ctx, runID)
	if err != nil {
		return noise.ExclusionPack{}, err
	}
	return noise.BuildExclusionPack(runID, results, minNoiseScore), nil
}

// CompareHosts runs a fresh analysis against every hostID and returns
// the patterns common to more than half of them (spec §4.7).
func (n *NoiseService) CompareHosts(ctx context.Context, hostIDs []int64, timeRangeHours float64) ([]noise.CommonPattern, error) {
	perHost := make([]noise.HostResults, 0, len(hostIDs))
	for _, id := range hostIDs {
		_, results, err := n.Analyze(ctx, id, timeRangeHours)
		if err != nil {
			return nil, err
		}
		perHost = append(perHost, noise.HostResults{HostID: id, Results: results})
	}
	return noise.CompareAcrossHosts(perHost), nil
}

func (n *NoiseService) obtainEvents(ctx context.Context, host *models.Host, timeRangeHours float64) ([]models.RawEvent, error) {
	if host.IsAgentManaged {
		return n.obtainEventsViaAgent(ctx, host, timeRangeHours)
	}

	samples, err := n.remoteAdmin.QueryEvents(ctx, host.Hostname, timeRangeHours, maxNoiseEvents, nil)
	if err != nil {
		return nil, err
	}
	events := make([]models.RawEvent, len(samples))
	for i, s := range samples {
		events[i] = models.RawEvent{
			EventID: s.EventID, Kind: s.Kind, Image: s.Image, DestinationIP: s.DestinationIP,
			ImageLoaded: s.ImageLoaded, TargetFilename: s.TargetFilename, QueryName: s.QueryName,
			SourceImage: s.SourceImage, TargetImage: s.TargetImage,
		}
	}
	return events, nil
}

type queryEventsPayload struct {
	TimeRangeHours float64  `json:"time_range_hours"`
	MaxEvents      int      `json:"max_events"`
	EventIDs       []string `json:"event_ids"`
}

// rawEventWire is the wire shape of one normalized event inside a
// QueryEvents command result payload. This pins spec §9's Open
// Question on the QueryEvents result shape: a JSON array of objects
// with these snake_case fields, mirroring models.RawEvent exactly so
// the agent and transport.RawEventSample need no separate encoding.
type rawEventWire struct {
	EventID        string `json:"event_id"`
	Kind           string `json:"kind"`
	Image          string `json:"image"`
	DestinationIP  string `json:"destination_ip"`
	ImageLoaded    string `json:"image_loaded"`
	TargetFilename string `json:"target_filename"`
	QueryName      string `json:"query_name"`
	SourceImage    string `json:"source_image"`
	TargetImage    string `json:"target_image"`
}

func (n *NoiseService) obtainEventsViaAgent(ctx context.Context, host *models.Host, timeRangeHours float64) ([]models.RawEvent, error) {
	payload, err := json.Marshal(queryEventsPayload{TimeRangeHours: timeRangeHours, MaxEvents: maxNoiseEvents})
	if err != nil {
		return nil, err
	}

	commandID := uuid.NewString()
	if err := n.store.Commands().Enqueue(ctx, &models.PendingCommand{
		CommandID: commandID, HostRef: host.ID, Type: models.CommandQueryEvents,
		PayloadBytes: payload, CreatedAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	cmd, err := n.awaitCommand(ctx, commandID)
	if err != nil {
		return nil, err
	}

	var wire []rawEventWire
	if err := json.Unmarshal(cmd.ResultPayload, &wire); err != nil {
		return nil, srvErrors.NewValidationError("malformed QueryEvents result payload: %v", err)
	}

	events := make([]models.RawEvent, len(wire))
	for i, w := range wire {
		events[i] = models.RawEvent{
			EventID: w.EventID, Kind: w.Kind, Image: w.Image, DestinationIP: w.DestinationIP,
			ImageLoaded: w.ImageLoaded, TargetFilename: w.TargetFilename, QueryName: w.QueryName,
			SourceImage: w.SourceImage, TargetImage: w.TargetImage,
		}
	}
	return events, nil
}

// awaitCommand mirrors Dispatcher.awaitCommand: poll for a terminal
// result up to the QueryEvents deadline, surfacing AgentTimeoutError
// if none arrives. The command row survives a timeout so a late result
// still resolves it idempotently.
func (n *NoiseService) awaitCommand(ctx context.Context, commandID string) (*models.PendingCommand, error) {
	deadline := time.Now().Add(n.timeouts.QueryEvents)
	ticker := time.NewTicker(n.pollHosts)
	defer ticker.Stop()

	for {
		cmd, err := n.store.Commands().GetByCommandID(ctx, commandID)
		if err != nil {
			return nil, err
		}
		if cmd.Terminal() {
			if cmd.ResultStatus != nil && *cmd.ResultStatus == models.CommandResultSuccess {
				return cmd, nil
			}
			return nil, srvErrors.NewValidationError("QueryEvents command failed: %s", cmd.ResultMessage)
		}
		if time.Now().After(deadline) {
			return nil, srvErrors.NewAgentTimeoutError(commandID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
