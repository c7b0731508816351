package services_test

import (
	"context"
	"database/sql"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/services"
	"github.com/sysmonctl/controlplane/internal/store"
	"github.com/sysmonctl/controlplane/internal/store/migrations"
)

var _ = Describe("Scanner", func() {
	var (
		ctx context.Context
		db  *sql.DB
		s   *store.Store
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())

		s = store.NewStore(db)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	It("marks an agent-managed host offline when its heartbeat is stale, without probing it", func() {
		stale := time.Now().Add(-10 * time.Minute)
		host := &models.Host{
			Hostname: "PC1", IsAgentManaged: true, AgentID: "agent-1", AgentAuthToken: "tok",
			LastSeen: time.Now(), AgentLastHeartbeat: &stale,
		}
		Expect(s.Hosts().Create(ctx, host)).To(Succeed())

		scanner := services.NewScanner(s, &fakeRemoteAdmin{osCaptionErr: nil})
		Expect(scanner.Scan(ctx, []int64{host.ID})).To(Succeed())

		updated, err := s.Hosts().Get(ctx, host.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*updated.LastScanStatus).To(Equal(models.ScanStatusOffline))
		Expect(updated.LastScanAt).NotTo(BeNil())
	})

	It("marks an agent-managed host online when its heartbeat is recent", func() {
		recent := time.Now().Add(-30 * time.Second)
		host := &models.Host{
			Hostname: "PC2", IsAgentManaged: true, AgentID: "agent-2", AgentAuthToken: "tok",
			LastSeen: time.Now(), AgentLastHeartbeat: &recent,
		}
		Expect(s.Hosts().Create(ctx, host)).To(Succeed())

		scanner := services.NewScanner(s, &fakeRemoteAdmin{})
		Expect(scanner.Scan(ctx, []int64{host.ID})).To(Succeed())

		updated, err := s.Hosts().Get(ctx, host.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*updated.LastScanStatus).To(Equal(models.ScanStatusOnline))
	})

	It("probes an agentless host and records the observed collector fields", func() {
		host := &models.Host{Hostname: "PC3", LastSeen: time.Now()}
		Expect(s.Hosts().Create(ctx, host)).To(Succeed())

		scanner := services.NewScanner(s, &fakeRemoteAdmin{
			collectorPath: `C:\Program Files\Sysmon\Sysmon64.exe`, collectorVer: "15.0", collectorExists: true,
		})
		Expect(scanner.Scan(ctx, []int64{host.ID})).To(Succeed())

		updated, err := s.Hosts().Get(ctx, host.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*updated.LastScanStatus).To(Equal(models.ScanStatusOnline))
		Expect(updated.CollectorPath).To(Equal(`C:\Program Files\Sysmon\Sysmon64.exe`))
		Expect(updated.CollectorVersion).To(Equal("15.0"))
	})

	It("clears collector fields when the probe finds no installation", func() {
		host := &models.Host{
			Hostname: "PC4", LastSeen: time.Now(),
			CollectorPath: `C:\old\path.exe`, CollectorVersion: "1.0", ConfigHash: "deadbeef", ConfigTag: "prod",
		}
		Expect(s.Hosts().Create(ctx, host)).To(Succeed())

		scanner := services.NewScanner(s, &fakeRemoteAdmin{collectorExists: false})
		Expect(scanner.Scan(ctx, []int64{host.ID})).To(Succeed())

		updated, err := s.Hosts().Get(ctx, host.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.CollectorPath).To(BeEmpty())
		Expect(updated.CollectorVersion).To(BeEmpty())
		Expect(updated.ConfigHash).To(BeEmpty())
		Expect(updated.ConfigTag).To(BeEmpty())
	})

	It("marks a host offline when the probe errors", func() {
		host := &models.Host{Hostname: "PC5", LastSeen: time.Now()}
		Expect(s.Hosts().Create(ctx, host)).To(Succeed())

		scanner := services.NewScanner(s, &fakeRemoteAdmin{probeErr: assertAnError{}})
		Expect(scanner.Scan(ctx, []int64{host.ID})).To(Succeed())

		updated, err := s.Hosts().Get(ctx, host.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*updated.LastScanStatus).To(Equal(models.ScanStatusOffline))
	})

	It("ScanAll reaches every stored host", func() {
		for i := 0; i < 3; i++ {
			Expect(s.Hosts().Create(ctx, &models.Host{Hostname: "PC" + string(rune('A'+i)), LastSeen: time.Now()})).To(Succeed())
		}
		scanner := services.NewScanner(s, &fakeRemoteAdmin{collectorExists: true, collectorPath: `C:\x.exe`, collectorVer: "1.0"})
		Expect(scanner.ScanAll(ctx)).To(Succeed())

		hosts, err := s.Hosts().List(ctx)
		Expect(err).NotTo(HaveOccurred())
		for _, h := range hosts {
			Expect(h.LastScanAt).NotTo(BeNil())
		}
	})
})

type assertAnError struct{}

func (assertAnError) Error() string { return "probe failed" }
