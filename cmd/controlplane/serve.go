package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sysmonctl/controlplane/internal/config"
	"github.com/sysmonctl/controlplane/internal/handlers"
	"github.com/sysmonctl/controlplane/internal/server"
	"github.com/sysmonctl/controlplane/internal/services"
	"github.com/sysmonctl/controlplane/internal/store"
	"github.com/sysmonctl/controlplane/internal/store/migrations"
	"github.com/sysmonctl/controlplane/pkg/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the control plane HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("http-port", 8443, "port the operator/agent HTTP surface listens on")
	serveCmd.Flags().String("mode", "dev", "server mode (dev, prod)")
	serveCmd.Flags().String("registration-token", "", "shared secret required on agent Register calls")
	serveCmd.Flags().Bool("registration-enabled", true, "accept new agent registrations")
	serveCmd.Flags().String("jwt-signing-key", "", "HMAC key used to sign agent auth tokens")
	serveCmd.Flags().String("remote-working-dir", `C:\Windows\Temp\sysmonctl`, "remote scratch directory used by the file-transfer push path")
	serveCmd.Flags().String("binary-cache-dir", "", "local directory the collector binary cache is rooted in")
	serveCmd.Flags().String("download-url", "", "URL agents fetch the collector binary/config from")
	cobra.CheckErr(viper.BindPFlags(serveCmd.Flags()))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfigWithOptionsAndDefaults(
		config.WithLogFormat(viper.GetString("log-format")),
		config.WithLogLevel(viper.GetString("log-level")),
		config.WithServer(config.NewServerWithOptionsAndDefaults(
			config.WithMode(viper.GetString("mode")),
			config.WithHTTPPort(viper.GetInt("http-port")),
		)),
		config.WithAgent(config.NewAgentWithOptionsAndDefaults(
			config.WithRegistrationToken(viper.GetString("registration-token")),
			config.WithRegistrationEnabled(viper.GetBool("registration-enabled")),
		)),
		config.WithDispatch(config.NewDispatchWithOptionsAndDefaults(
			config.WithRemoteWorkingDir(viper.GetString("remote-working-dir")),
			config.WithBinaryCacheDir(viper.GetString("binary-cache-dir")),
			config.WithDownloadURL(viper.GetString("download-url")),
		)),
		config.WithStore(config.NewStoreWithOptionsAndDefaults(
			config.WithDataFile(viper.GetString("datafile")),
		)),
		config.WithAuth(config.NewAuthWithOptionsAndDefaults(
			config.WithJWTSigningKey(viper.GetString("jwt-signing-key")),
		)),
	)

	if err := initLogging(cfg.LogFormat, cfg.LogLevel); err != nil {
		return err
	}
	defer zap.L().Sync() //nolint:errcheck
	log := zap.S().Named("main")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	db, err := store.NewDB(cfg.Store.DataFile)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	st := store.NewStore(db)

	// Native Windows remoting (WinRM/WMI) is out of scope; the push path
	// is wired to the always-unavailable doubles so agentless dispatch
	// fails fast with TransportUnavailableError instead of hanging.
	remoteAdmin := transport.NullRemoteAdmin{}
	fileTransfer := transport.NullFileTransfer{}

	audit := services.NewAuditService(st)
	bus := services.NewProgressBus()
	binaries := services.NewBinaryCache()
	dispatcher := services.NewDispatcher(st, remoteAdmin, fileTransfer, binaries, bus, services.DispatchTimeouts{
		Default: cfg.Agent.CommandTimeout,
	})
	scanner := services.NewScanner(st, remoteAdmin)
	scheduleEngine := services.NewScheduleEngine(st, audit, dispatcher)
	agentService := services.NewAgentService(st, audit, bus, services.AgentProtocolConfig{
		RegistrationToken:   cfg.Agent.RegistrationToken,
		RegistrationEnabled: cfg.Agent.RegistrationEnabled,
		MinPollInterval:     cfg.Agent.MinPollInterval,
		MaxPollInterval:     cfg.Agent.MaxPollInterval,
		InitialPollInterval: cfg.Agent.DefaultPollInterval,
		JWTSigningKey:       []byte(cfg.Auth.JWTSigningKey),
	})
	noiseService := services.NewNoiseService(st, remoteAdmin, audit, services.NoiseTimeouts{
		QueryEvents: cfg.Agent.QueryEventsTimeoutNoiseAnalysis,
	})

	httpServer := server.New(cfg.Server, func(r *gin.Engine) {
		handlers.RegisterAgentRoutes(r, handlers.NewAgentHandler(agentService))
		handlers.RegisterOperatorRoutes(r, handlers.OperatorHandlers{
			Hosts:     handlers.NewHostHandler(st),
			Configs:   handlers.NewConfigHandler(st, audit),
			Jobs:      handlers.NewJobHandler(st, dispatcher, audit),
			Schedules: handlers.NewScheduleHandler(st, scheduleEngine, audit),
			Noise:     handlers.NewNoiseHandler(st, noiseService),
			Audit:     handlers.NewAuditHandler(audit),
		})
	})

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	go scheduleEngine.Run(ctx)
	go runScanLoop(ctx, scanner)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		log.Infow("shutting down", "signal", sig)
	case <-ctx.Done():
	}

	scheduleEngine.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	return httpServer.Stop(shutdownCtx)
}

// runScanLoop periodically refreshes every Host's scan status until ctx
// is cancelled, mirroring the schedule engine's own ticker-driven loop.
func runScanLoop(ctx context.Context, sc *services.Scanner) {
	ticker := time.NewTicker(services.ScanParallelism * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sc.ScanAll(ctx); err != nil {
				zap.S().Named("scan_loop").Errorw("scan failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
