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

var _ = Describe("AgentService", func() {
	var (
		ctx     context.Context
		db      *sql.DB
		s       *store.Store
		audit   *services.AuditService
		bus     *services.ProgressBus
		agentSv *services.AgentService
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())

		s = store.NewStore(db)
		audit = services.NewAuditService(s)
		bus = services.NewProgressBus()
		agentSv = services.NewAgentService(s, audit, bus, services.AgentProtocolConfig{
			RegistrationEnabled: true,
			RegistrationToken:   "secret-token",
			MinPollInterval:     10 * time.Second,
			MaxPollInterval:     5 * time.Minute,
			InitialPollInterval: 30 * time.Second,
			JWTSigningKey:       []byte("test-signing-key"),
		})
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("Register", func() {
		It("rejects an incorrect registration token", func() {
			resp, err := agentSv.Register(ctx, services.RegisterRequest{
				AgentID: "agent-1", Hostname: "PC1", OS: "Windows 11", AgentVersion: "1.0.0",
				RegistrationToken: "wrong",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Accepted).To(BeFalse())
		})

		It("accepts a new agent and issues a non-empty auth token", func() {
			resp, err := agentSv.Register(ctx, services.RegisterRequest{
				AgentID: "agent-1", Hostname: "PC1", OS: "Windows 11", AgentVersion: "1.0.0",
				RegistrationToken: "secret-token",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Accepted).To(BeTrue())
			Expect(resp.AuthToken).NotTo(BeEmpty())
			Expect(resp.ComputerID).NotTo(BeZero())
		})

		It("reuses the same auth token when the same agent re-registers", func() {
			first, err := agentSv.Register(ctx, services.RegisterRequest{
				AgentID: "agent-1", Hostname: "PC1", OS: "Windows 11", AgentVersion: "1.0.0",
				RegistrationToken: "secret-token",
			})
			Expect(err).NotTo(HaveOccurred())

			second, err := agentSv.Register(ctx, services.RegisterRequest{
				AgentID: "agent-1", Hostname: "PC1", OS: "Windows 11", AgentVersion: "1.1.0",
				RegistrationToken: "secret-token",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.AuthToken).To(Equal(first.AuthToken))
			Expect(second.ComputerID).To(Equal(first.ComputerID))
		})
	})

	Describe("Heartbeat", func() {
		var reg *services.RegisterResponse

		BeforeEach(func() {
			var err error
			reg, err = agentSv.Register(ctx, services.RegisterRequest{
				AgentID: "agent-1", Hostname: "PC1", OS: "Windows 11", AgentVersion: "1.0.0",
				RegistrationToken: "secret-token",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an unknown auth token", func() {
			resp, err := agentSv.Heartbeat(ctx, services.HeartbeatRequest{
				AgentID: "agent-1", AuthToken: "bogus",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Registered).To(BeFalse())
		})

		It("returns no pending commands when none were enqueued", func() {
			resp, err := agentSv.Heartbeat(ctx, services.HeartbeatRequest{
				AgentID: "agent-1", AuthToken: reg.AuthToken,
				ObservedStatus: services.ObservedStatus{AgentVersion: "1.0.0", CollectorInstalled: true},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Registered).To(BeTrue())
			Expect(resp.PendingCommands).To(BeEmpty())
		})

		It("claims a command enqueued for the host", func() {
			host, err := s.Hosts().Get(ctx, reg.ComputerID)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Commands().Enqueue(ctx, &models.PendingCommand{
				CommandID: "cmd-1", HostRef: host.ID, Type: models.CommandGetStatus,
				CreatedAt: time.Now(),
			})).To(Succeed())

			resp, err := agentSv.Heartbeat(ctx, services.HeartbeatRequest{
				AgentID: "agent-1", AuthToken: reg.AuthToken,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.PendingCommands).To(HaveLen(1))
			Expect(resp.PendingCommands[0].CommandID).To(Equal("cmd-1"))
			Expect(resp.PendingCommands[0].Type).To(Equal(string(models.CommandGetStatus)))
		})
	})

	Describe("CommandResult", func() {
		var (
			reg  *services.RegisterResponse
			host *models.Host
		)

		BeforeEach(func() {
			var err error
			reg, err = agentSv.Register(ctx, services.RegisterRequest{
				AgentID: "agent-1", Hostname: "PC1", OS: "Windows 11", AgentVersion: "1.0.0",
				RegistrationToken: "secret-token",
			})
			Expect(err).NotTo(HaveOccurred())
			host, err = s.Hosts().Get(ctx, reg.ComputerID)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Commands().Enqueue(ctx, &models.PendingCommand{
				CommandID: "cmd-1", HostRef: host.ID, Type: models.CommandGetStatus,
				CreatedAt: time.Now(),
			})).To(Succeed())
		})

		It("rejects a mismatched auth token", func() {
			err := agentSv.CommandResult(ctx, services.CommandResultRequest{
				AgentID: "agent-1", AuthToken: "bogus", CommandID: "cmd-1",
				Status: models.CommandResultSuccess,
			})
			Expect(err).To(HaveOccurred())
		})

		It("silently succeeds for an unknown command id", func() {
			err := agentSv.CommandResult(ctx, services.CommandResultRequest{
				AgentID: "agent-1", AuthToken: reg.AuthToken, CommandID: "no-such-command",
				Status: models.CommandResultSuccess,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("records a successful result and is idempotent on repeat delivery", func() {
			err := agentSv.CommandResult(ctx, services.CommandResultRequest{
				AgentID: "agent-1", AuthToken: reg.AuthToken, CommandID: "cmd-1",
				Status: models.CommandResultSuccess, Message: "done",
			})
			Expect(err).NotTo(HaveOccurred())

			err = agentSv.CommandResult(ctx, services.CommandResultRequest{
				AgentID: "agent-1", AuthToken: reg.AuthToken, CommandID: "cmd-1",
				Status: models.CommandResultFailed, Message: "should not apply",
			})
			Expect(err).NotTo(HaveOccurred())

			cmd, err := s.Commands().GetByCommandID(ctx, "cmd-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(*cmd.ResultStatus).To(Equal(models.CommandResultSuccess))
			Expect(cmd.ResultMessage).To(Equal("done"))
		})

		It("completes the job result and publishes a terminal event when the command is tied to a deployment", func() {
			job, err := s.Jobs().StartDeployment(ctx, models.OperationInstall, nil, "operator", []int64{host.ID}, time.Now())
			Expect(err).NotTo(HaveOccurred())

			jobRef := job.ID
			Expect(s.Commands().Enqueue(ctx, &models.PendingCommand{
				CommandID: "cmd-2", HostRef: host.ID, Type: models.CommandInstallCollector,
				CreatedAt: time.Now(), DeploymentJobRef: &jobRef,
			})).To(Succeed())

			events, unsubscribe := bus.Subscribe(job.ID)
			defer unsubscribe()

			err = agentSv.CommandResult(ctx, services.CommandResultRequest{
				AgentID: "agent-1", AuthToken: reg.AuthToken, CommandID: "cmd-2",
				Status: models.CommandResultSuccess, Message: "installed",
			})
			Expect(err).NotTo(HaveOccurred())

			Eventually(events).Should(Receive(WithTransform(func(e services.Event) bool {
				return e.Completed != nil && e.Completed.OverallSuccess
			}, BeTrue())))

			updated, err := s.Jobs().Get(ctx, job.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(models.JobStatusCompleted))
		})
	})

	Describe("ClampPollInterval", func() {
		It("clamps below the minimum", func() {
			Expect(agentSv.ClampPollInterval(time.Second)).To(Equal(10 * time.Second))
		})

		It("clamps above the maximum", func() {
			Expect(agentSv.ClampPollInterval(time.Hour)).To(Equal(5 * time.Minute))
		})

		It("passes through a value already in range", func() {
			Expect(agentSv.ClampPollInterval(time.Minute)).To(Equal(time.Minute))
		})
	})
})
