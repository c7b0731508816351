package services_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/services"
	"github.com/sysmonctl/controlplane/internal/store"
	"github.com/sysmonctl/controlplane/internal/store/migrations"
	"github.com/sysmonctl/controlplane/pkg/transport"
)

var _ = Describe("NoiseService", func() {
	var (
		ctx   context.Context
		db    *sql.DB
		s     *store.Store
		audit *services.AuditService
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())

		s = store.NewStore(db)
		audit = services.NewAuditService(s)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Context("agentless host", func() {
		It("scores a chatty process noisy and suggests an exclusion", func() {
			host := &models.Host{Hostname: "PC1", LastSeen: time.Now()}
			Expect(s.Hosts().Create(ctx, host)).To(Succeed())

			samples := make([]transport.RawEventSample, 500)
			for i := range samples {
				samples[i] = transport.RawEventSample{EventID: "1", Kind: "ProcessCreate", Image: `C:\Windows\chatty.exe`}
			}

			svc := services.NewNoiseService(s, &fakeRemoteAdmin{queryEventsResult: samples}, audit, services.NoiseTimeouts{})
			run, results, err := svc.Analyze(ctx, host.ID, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(run.TotalEventsObserved).To(Equal(500))
			Expect(results).To(HaveLen(1))
			Expect(results[0].NoiseScore).To(BeNumerically(">=", 0.5))
			Expect(results[0].SuggestedExclusion).NotTo(BeEmpty())
		})

		It("rejects an out-of-range time window", func() {
			host := &models.Host{Hostname: "PC2", LastSeen: time.Now()}
			Expect(s.Hosts().Create(ctx, host)).To(Succeed())

			svc := services.NewNoiseService(s, &fakeRemoteAdmin{}, audit, services.NoiseTimeouts{})
			_, _, err := svc.Analyze(ctx, host.ID, 200)
			Expect(err).To(HaveOccurred())
		})

		It("builds an exclusion pack from a persisted run", func() {
			host := &models.Host{Hostname: "PC3", LastSeen: time.Now()}
			Expect(s.Hosts().Create(ctx, host)).To(Succeed())

			samples := make([]transport.RawEventSample, 500)
			for i := range samples {
				samples[i] = transport.RawEventSample{EventID: "1", Kind: "ProcessCreate", Image: `C:\Windows\chatty.exe`}
			}
			svc := services.NewNoiseService(s, &fakeRemoteAdmin{queryEventsResult: samples}, audit, services.NoiseTimeouts{})
			run, _, err := svc.Analyze(ctx, host.ID, 1.0)
			Expect(err).NotTo(HaveOccurred())

			pack, err := svc.ExclusionPack(ctx, run.ID, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(pack.Sections).To(HaveLen(1))
			Expect(pack.Sections[0].Entries).To(HaveLen(1))
		})

		It("finds a pattern common across hosts", func() {
			samples := make([]transport.RawEventSample, 500)
			for i := range samples {
				samples[i] = transport.RawEventSample{EventID: "1", Kind: "ProcessCreate", Image: `C:\Windows\chatty.exe`}
			}
			svc := services.NewNoiseService(s, &fakeRemoteAdmin{queryEventsResult: samples}, audit, services.NoiseTimeouts{})

			var ids []int64
			for i := 0; i < 3; i++ {
				host := &models.Host{Hostname: fmt.Sprintf("PC%d", i), LastSeen: time.Now()}
				Expect(s.Hosts().Create(ctx, host)).To(Succeed())
				ids = append(ids, host.ID)
			}

			patterns, err := svc.CompareHosts(ctx, ids, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(patterns).To(HaveLen(1))
			Expect(patterns[0].HostCount).To(Equal(3))
			Expect(patterns[0].TotalHosts).To(Equal(3))
		})
	})

	Context("agent-managed host", func() {
		It("obtains events through a QueryEvents command and scores them", func() {
			host := &models.Host{
				Hostname: "AGT1", IsAgentManaged: true, AgentID: "agent-1", AgentAuthToken: "tok",
				LastSeen: time.Now(),
			}
			Expect(s.Hosts().Create(ctx, host)).To(Succeed())

			svc := services.NewNoiseService(s, &fakeRemoteAdmin{}, audit, services.NoiseTimeouts{QueryEvents: 2 * time.Second})

			done := make(chan struct{})
			go func() {
				defer close(done)
				Eventually(func() int {
					claimed, err := s.Commands().ClaimDueCommandsFor(ctx, host.ID, time.Now())
					Expect(err).NotTo(HaveOccurred())
					for _, cmd := range claimed {
						events := make([]map[string]any, 500)
						for i := range events {
							events[i] = map[string]any{
								"event_id": "1", "kind": "ProcessCreate", "image": `C:\Windows\chatty.exe`,
							}
						}
						payload, err := json.Marshal(events)
						Expect(err).NotTo(HaveOccurred())
						success := models.CommandResultSuccess
						_, _, err = s.Commands().Complete(ctx, cmd.CommandID, success, "", payload, time.Now())
						Expect(err).NotTo(HaveOccurred())
					}
					return len(claimed)
				}, "2s", "20ms").Should(Equal(1))
			}()

			run, results, err := svc.Analyze(ctx, host.ID, 1.0)
			<-done
			Expect(err).NotTo(HaveOccurred())
			Expect(run.TotalEventsObserved).To(Equal(500))
			Expect(results).To(HaveLen(1))
			Expect(results[0].NoiseScore).To(BeNumerically(">=", 0.5))
		})

		It("times out when the agent never claims the command", func() {
			host := &models.Host{
				Hostname: "AGT2", IsAgentManaged: true, AgentID: "agent-2", AgentAuthToken: "tok",
				LastSeen: time.Now(),
			}
			Expect(s.Hosts().Create(ctx, host)).To(Succeed())

			svc := services.NewNoiseService(s, &fakeRemoteAdmin{}, audit, services.NoiseTimeouts{QueryEvents: 20 * time.Millisecond})
			_, _, err := svc.Analyze(ctx, host.ID, 1.0)
			Expect(err).To(HaveOccurred())
		})
	})
})
