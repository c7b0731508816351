package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/store"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
	"github.com/sysmonctl/controlplane/pkg/scheduler"
	"github.com/sysmonctl/controlplane/pkg/transport"
)

// DispatchTimeouts holds the per-operation agent-command deadlines of
// spec §4.3/§4.4: how long the dispatcher waits for a CommandResult
// before surfacing Timeout for that Host and moving on.
type DispatchTimeouts struct {
	Default time.Duration
}

// Dispatcher runs a DeploymentJob's per-Host work with bounded
// parallelism (spec §4.4 C5), routing each Host to either the
// agent-managed command-queue path or the agentless RemoteAdmin/
// FileTransfer path.
type Dispatcher struct {
	store        *store.Store
	remoteAdmin  transport.RemoteAdmin
	fileTransfer transport.FileTransfer
	binaries     *BinaryCache
	bus          *ProgressBus
	timeouts     DispatchTimeouts
	pollHosts    time.Duration
}

func NewDispatcher(st *store.Store, remoteAdmin transport.RemoteAdmin, fileTransfer transport.FileTransfer, binaries *BinaryCache, bus *ProgressBus, timeouts DispatchTimeouts) *Dispatcher {
	if timeouts.Default == 0 {
		timeouts.Default = 120 * time.Second
	}
	return &Dispatcher{
		store: st, remoteAdmin: remoteAdmin, fileTransfer: fileTransfer,
		binaries: binaries, bus: bus, timeouts: timeouts, pollHosts: 500 * time.Millisecond,
	}
}

// workersFor picks P per spec §4.4's thresholds.
func workersFor(targetCount int) int {
	switch {
	case targetCount <= 10:
		return 5
	case targetCount <= 100:
		return 20
	default:
		return 50
	}
}

// Dispatch runs every pending Result of jobID to completion, reporting
// Progress per Host and finishing with a terminal Job status. It is
// itself a single unit of work — callers submit it to their own
// scheduler or goroutine; the bounded parallelism described here is
// purely the fan-out across a Job's target Hosts.
func (d *Dispatcher) Dispatch(ctx context.Context, jobID int64) error {
	job, err := d.store.Jobs().Get(ctx, jobID)
	if err != nil {
		return err
	}
	results, err := d.store.Jobs().ListResults(ctx, jobID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	if err := d.store.Jobs().SetRunning(ctx, jobID); err != nil {
		return err
	}

	cfg, err := d.configFor(ctx, job.ConfigRef)
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(workersFor(len(results)))
	defer sched.Close()

	type pending struct {
		hostID int64
		future *models.Future[scheduler.Result[any]]
	}
	inflight := make([]pending, 0, len(results))

	for _, res := range results {
		current, err := d.store.Jobs().Get(ctx, jobID)
		if err != nil {
			return err
		}
		if current.Status == models.JobStatusCancelled {
			break
		}

		hostID := res.HostRef
		future := sched.AddWork(func(workCtx context.Context) (any, error) {
			return nil, d.dispatchHost(workCtx, job, cfg, hostID, len(results))
		})
		inflight = append(inflight, pending{hostID: hostID, future: future})
	}

	for _, p := range inflight {
		<-p.future.C()
	}

	return nil
}

func (d *Dispatcher) configFor(ctx context.Context, configRef *int64) (*models.Config, error) {
	if configRef == nil {
		return nil, nil
	}
	return d.store.Configs().Get(ctx, *configRef)
}

// dispatchHost performs one Host's slice of a Job's operation and
// always writes a DeploymentResult — success or failure never escapes
// to the caller as an error (spec §4.4: "never throw to worker scope").
func (d *Dispatcher) dispatchHost(ctx context.Context, job *models.DeploymentJob, cfg *models.Config, hostID int64, total int) error {
	host, err := d.store.Hosts().Get(ctx, hostID)
	if err != nil {
		return d.finish(ctx, job.ID, hostID, false, err.Error(), total)
	}

	var opErr error
	if host.IsAgentManaged {
		opErr = d.dispatchAgentManaged(ctx, job, cfg, host)
	} else {
		opErr = d.dispatchAgentless(ctx, job.Operation, cfg, host)
	}

	if opErr != nil {
		return d.finish(ctx, job.ID, hostID, false, opErr.Error(), total)
	}
	return d.finish(ctx, job.ID, hostID, true, "", total)
}

func (d *Dispatcher) finish(ctx context.Context, jobID, hostID int64, success bool, message string, total int) error {
	now := time.Now()
	if err := d.store.Jobs().CompleteResult(ctx, jobID, hostID, success, message, now); err != nil {
		return err
	}

	host, herr := d.store.Hosts().Get(ctx, hostID)
	hostname := ""
	if herr == nil {
		hostname = host.Hostname
	}

	results, err := d.store.Jobs().ListResults(ctx, jobID)
	if err != nil {
		return err
	}
	completed := 0
	for _, r := range results {
		if r.CompletedAt != nil {
			completed++
		}
	}

	succ := success
	d.bus.PublishProgress(Progress{
		JobID: jobID, HostID: hostID, Hostname: hostname,
		Success: &succ, Message: message, Completed: completed, Total: total,
	})

	if completed < len(results) {
		return nil
	}
	job, err := d.store.Jobs().Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.Status.Terminal() {
		return nil
	}
	d.bus.PublishCompleted(Completed{
		JobID: jobID, OverallSuccess: job.Status == models.JobStatusCompleted, Summary: string(job.Status),
	})
	return nil
}

// dispatchAgentManaged translates the operation into a PendingCommand
// per spec §4.4's translation table, then awaits its CommandResult
// (delivered asynchronously via the agent's Heartbeat) up to the
// operation's timeout.
func (d *Dispatcher) dispatchAgentManaged(ctx context.Context, job *models.DeploymentJob, cfg *models.Config, host *models.Host) error {
	if job.Operation == models.OperationTestConnectivity {
		if host.AgentLastHeartbeat != nil && time.Since(*host.AgentLastHeartbeat) < 5*time.Minute {
			return nil
		}
		return fmt.Errorf("agent has not sent a heartbeat in the last 5 minutes")
	}

	cmdType, payload, err := d.translateOperation(job.Operation, cfg)
	if err != nil {
		return err
	}

	commandID := uuid.NewString()
	now := time.Now()
	if err := d.store.Commands().Enqueue(ctx, &models.PendingCommand{
		CommandID: commandID, HostRef: host.ID, Type: cmdType, PayloadBytes: payload,
		CreatedAt: now, InitiatedBy: job.StartedBy, DeploymentJobRef: &job.ID,
	}); err != nil {
		return err
	}

	return d.awaitCommand(ctx, commandID)
}

// awaitCommand polls for the command's terminal state, returning
// AgentTimeoutError (spec §7) if none arrives within the deadline. The
// PendingCommand row is left in place: a late result still resolves it
// idempotently through CommandResult.
func (d *Dispatcher) awaitCommand(ctx context.Context, commandID string) error {
	deadline := time.Now().Add(d.timeouts.Default)
	ticker := time.NewTicker(d.pollHosts)
	defer ticker.Stop()

	for {
		cmd, err := d.store.Commands().GetByCommandID(ctx, commandID)
		if err != nil {
			return err
		}
		if cmd.Terminal() {
			if cmd.ResultStatus != nil && *cmd.ResultStatus == models.CommandResultSuccess {
				return nil
			}
			msg := cmd.ResultMessage
			if msg == "" {
				msg = "command failed"
			}
			return fmt.Errorf("%s", msg)
		}
		if time.Now().After(deadline) {
			return srvErrors.NewAgentTimeoutError(commandID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type installPayload struct {
	BinaryBytesB64     string `json:"binary_bytes_b64"`
	ConfigXML          string `json:"config_xml,omitempty"`
	ExpectedConfigHash string `json:"expected_config_hash,omitempty"`
}

type updateConfigPayload struct {
	ConfigXML          string `json:"config_xml"`
	ExpectedConfigHash string `json:"expected_config_hash,omitempty"`
}

func (d *Dispatcher) translateOperation(op models.JobOperation, cfg *models.Config) (models.CommandType, []byte, error) {
	switch op {
	case models.OperationInstall:
		latest, ok := d.binaries.Latest()
		if !ok {
			return "", nil, srvErrors.NewValidationError("binary cache is empty, cannot install")
		}
		p := installPayload{BinaryBytesB64: base64.StdEncoding.EncodeToString(latest.Bytes)}
		if cfg != nil {
			p.ConfigXML = string(cfg.ContentBytes)
			p.ExpectedConfigHash = cfg.ContentHash
		}
		raw, err := json.Marshal(p)
		return models.CommandInstallCollector, raw, err
	case models.OperationUpdateConfig:
		if cfg == nil {
			return "", nil, srvErrors.NewValidationError("UpdateConfig requires a config")
		}
		p := updateConfigPayload{ConfigXML: string(cfg.ContentBytes), ExpectedConfigHash: cfg.ContentHash}
		raw, err := json.Marshal(p)
		return models.CommandUpdateConfig, raw, err
	case models.OperationUninstall:
		return models.CommandUninstallCollector, []byte("{}"), nil
	default:
		return "", nil, srvErrors.NewValidationError("operation %s has no agent-path translation", op)
	}
}

// dispatchAgentless implements the Install/UpdateConfig/Uninstall/
// TestConnectivity RemoteAdmin/FileTransfer flows of spec §4.4.
func (d *Dispatcher) dispatchAgentless(ctx context.Context, op models.JobOperation, cfg *models.Config, host *models.Host) error {
	switch op {
	case models.OperationInstall:
		return d.installAgentless(ctx, cfg, host)
	case models.OperationUpdateConfig:
		return d.updateConfigAgentless(ctx, cfg, host)
	case models.OperationUninstall:
		return d.uninstallAgentless(ctx, host)
	case models.OperationTestConnectivity:
		return d.testConnectivityAgentless(ctx, host)
	default:
		return srvErrors.NewValidationError("unsupported operation %s", op)
	}
}

const remoteWorkDir = `C:\Windows\Temp\sysmonctl`

func (d *Dispatcher) installAgentless(ctx context.Context, cfg *models.Config, host *models.Host) error {
	latest, ok := d.binaries.Latest()
	if !ok {
		return srvErrors.NewValidationError("binary cache is empty, cannot install")
	}

	return d.withBackoff(ctx, func() error {
		if err := d.fileTransfer.EnsureDir(ctx, host.Hostname, remoteWorkDir); err != nil {
			return err
		}
		binPath := remoteWorkDir + `\` + latest.Filename
		if err := d.fileTransfer.WriteFile(ctx, host.Hostname, binPath, latest.Bytes); err != nil {
			return err
		}

		configPath := ""
		if cfg != nil {
			configPath = remoteWorkDir + `\sysmonconfig.xml`
			if err := d.fileTransfer.WriteFile(ctx, host.Hostname, configPath, cfg.ContentBytes); err != nil {
				return err
			}
		}

		cmdLine := fmt.Sprintf(`%s -accepteula -i`, binPath)
		if configPath != "" {
			cmdLine += fmt.Sprintf(` "%s"`, configPath)
		}
		exitCode, err := d.remoteAdmin.RunCommand(ctx, host.Hostname, cmdLine)
		if err != nil {
			return err
		}
		if exitCode != 0 {
			return srvErrors.NewRemoteFailureError(exitCode)
		}
		return nil
	})
}

func (d *Dispatcher) updateConfigAgentless(ctx context.Context, cfg *models.Config, host *models.Host) error {
	if cfg == nil {
		return srvErrors.NewValidationError("UpdateConfig requires a config")
	}
	return d.withBackoff(ctx, func() error {
		collectorPath, err := d.locateCollector(ctx, host)
		if err != nil {
			return err
		}
		configPath := collectorDir(collectorPath) + `\sysmonconfig.xml`
		if err := d.fileTransfer.WriteFile(ctx, host.Hostname, configPath, cfg.ContentBytes); err != nil {
			return err
		}
		exitCode, err := d.remoteAdmin.RunCommand(ctx, host.Hostname, fmt.Sprintf(`"%s" -c "%s"`, collectorPath, configPath))
		if err != nil {
			return err
		}
		if exitCode != 0 {
			return srvErrors.NewRemoteFailureError(exitCode)
		}
		return nil
	})
}

func (d *Dispatcher) uninstallAgentless(ctx context.Context, host *models.Host) error {
	return d.withBackoff(ctx, func() error {
		collectorPath, err := d.locateCollector(ctx, host)
		if err != nil {
			return err
		}
		exitCode, err := d.remoteAdmin.RunCommand(ctx, host.Hostname, fmt.Sprintf(`"%s" -u force`, collectorPath))
		if err != nil {
			return err
		}
		if exitCode != 0 {
			return srvErrors.NewRemoteFailureError(exitCode)
		}
		return nil
	})
}

func (d *Dispatcher) testConnectivityAgentless(ctx context.Context, host *models.Host) error {
	_, err := d.remoteAdmin.ProbeOSCaption(ctx, host.Hostname)
	return err
}

// locateCollector prefers the cached path; falling back to a live probe
// keeps UpdateConfig/Uninstall working after a cache-invalidating scan.
func (d *Dispatcher) locateCollector(ctx context.Context, host *models.Host) (string, error) {
	if host.CollectorPath != "" {
		return host.CollectorPath, nil
	}
	path, _, installed, err := d.remoteAdmin.ProbeCollector(ctx, host.Hostname)
	if err != nil {
		return "", err
	}
	if !installed || path == "" {
		return "", srvErrors.NewValidationError("collector is not installed on %s", host.Hostname)
	}
	return path, nil
}

func collectorDir(collectorPath string) string {
	for i := len(collectorPath) - 1; i >= 0; i-- {
		if collectorPath[i] == '\\' {
			return collectorPath[:i]
		}
	}
	return collectorPath
}

// withBackoff retries transient RemoteAdmin/FileTransfer failures a
// handful of times before giving up; a TransportUnavailableError is not
// retried since retrying against an absent substrate cannot succeed.
func (d *Dispatcher) withBackoff(ctx context.Context, op func() error) error {
	_, err := backoff.Retry(ctx, func() (any, error) {
		err := op()
		if err == nil {
			return nil, nil
		}
		if srvErrors.IsTransportUnavailableError(err) || srvErrors.IsIntegrityFailureError(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}, backoff.WithMaxTries(3), backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		zap.S().Named("dispatcher").Debugw("agentless operation failed after retries", "error", err)
	}
	return err
}
