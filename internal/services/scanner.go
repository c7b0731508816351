package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/store"
	"github.com/sysmonctl/controlplane/pkg/scheduler"
	"github.com/sysmonctl/controlplane/pkg/transport"
)

// ScanParallelism bounds how many Hosts a Scanner probes concurrently
// (spec §4.5 C6).
const ScanParallelism = 5

// agentHeartbeatWindow is the liveness window a scanned agent-managed
// Host is judged against, same as the dispatcher's TestConnectivity
// short-circuit (spec §4.4, §4.5).
const agentHeartbeatWindow = 5 * time.Minute

// Scanner refreshes Host.last_scan_status/last_scan_at and, for
// agentless Hosts, the observed collector fields, without ever probing
// an agent-managed Host remotely (spec §4.5).
type Scanner struct {
	store       *store.Store
	remoteAdmin transport.RemoteAdmin
}

func NewScanner(st *store.Store, remoteAdmin transport.RemoteAdmin) *Scanner {
	return &Scanner{store: st, remoteAdmin: remoteAdmin}
}

// ScanAll probes every known Host.
func (sc *Scanner) ScanAll(ctx context.Context) error {
	hosts, err := sc.store.Hosts().List(ctx)
	if err != nil {
		return err
	}
	ids := make([]int64, len(hosts))
	for i, h := range hosts {
		ids[i] = h.ID
	}
	return sc.Scan(ctx, ids)
}

// Scan probes exactly the given Host ids, ScanParallelism at a time.
func (sc *Scanner) Scan(ctx context.Context, hostIDs []int64) error {
	if len(hostIDs) == 0 {
		return nil
	}

	sched := scheduler.NewScheduler(ScanParallelism)
	defer sched.Close()

	futures := make([]*models.Future[scheduler.Result[any]], 0, len(hostIDs))
	for _, id := range hostIDs {
		hostID := id
		futures = append(futures, sched.AddWork(func(workCtx context.Context) (any, error) {
			return nil, sc.scanOne(workCtx, hostID)
		}))
	}

	for _, f := range futures {
		<-f.C()
	}
	return nil
}

func (sc *Scanner) scanOne(ctx context.Context, hostID int64) error {
	host, err := sc.store.Hosts().Get(ctx, hostID)
	if err != nil {
		zap.S().Named("scanner").Warnw("skipping unknown host", "host_id", hostID, "error", err)
		return nil
	}

	now := time.Now()
	if host.IsAgentManaged {
		sc.scanAgentManaged(host, now)
	} else {
		sc.scanAgentless(ctx, host)
	}
	host.LastScanAt = &now

	return sc.store.Hosts().Update(ctx, host)
}

// scanAgentManaged never touches the network: the agent's own
// Heartbeat is the source of truth for everything except liveness,
// which is derived here from how stale its last heartbeat is.
func (sc *Scanner) scanAgentManaged(host *models.Host, now time.Time) {
	online := models.ScanStatusOffline
	if host.AgentLastHeartbeat != nil && now.Sub(*host.AgentLastHeartbeat) < agentHeartbeatWindow {
		online = models.ScanStatusOnline
	}
	host.LastScanStatus = &online
}

func (sc *Scanner) scanAgentless(ctx context.Context, host *models.Host) {
	path, version, installed, err := sc.remoteAdmin.ProbeCollector(ctx, host.Hostname)
	if err != nil {
		offline := models.ScanStatusOffline
		host.LastScanStatus = &offline
		return
	}

	online := models.ScanStatusOnline
	host.LastScanStatus = &online

	if !installed {
		host.ConfigHash = ""
		host.ConfigTag = ""
		host.CollectorPath = ""
		host.CollectorVersion = ""
		return
	}
	host.CollectorPath = path
	host.CollectorVersion = version
}
