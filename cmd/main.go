package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/restartfu/corepanel/internal/adapters/cpufreq"
	httpadapter "github.com/restartfu/corepanel/internal/adapters/http"
	"github.com/restartfu/corepanel/internal/adapters/natspub"
	"github.com/restartfu/corepanel/internal/app"
	"github.com/restartfu/corepanel/internal/clock"
	"github.com/restartfu/corepanel/internal/config"
	"github.com/restartfu/corepanel/internal/identity"
	"github.com/restartfu/corepanel/internal/observability"
	"github.com/restartfu/corepanel/internal/poller"
)

var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		log.Printf("config: %v", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

// run owns every resource so that deferred cleanup, including the final
// sentry flush, happens before main exits.
func run(cfg config.Config) error {
	logCloser := observability.SetupLogging(observability.LogConfig{File: cfg.LogFile})
	defer logCloser.Close()
	logger := log.Default()

	flushSentry, err := observability.InitSentry(observability.SentryConfigFromEnv(version, os.Getenv))
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	helper := cpufreq.New(ctx, cpufreq.Options{
		SysfsRoot:      cfg.SysfsRoot,
		ProcRoot:       cfg.ProcRoot,
		CommandTimeout: cfg.CommandTimeout,
		Logger:         observability.Logger("cpufreq"),
	})
	defer helper.Close()

	host := identity.NewReader(helper, helper, observability.Logger("identity"),
		identity.WithCPUInfoPath(cfg.CPUInfoPath),
		identity.WithOSReleasePath(cfg.OSReleasePath),
	).Read()
	logger.Printf("cpu: %s", host.CPUModel)

	coreCount := cpufreq.LogicalCores(ctx)
	scheduler := clock.Real{}

	stopRefresh := scheduler.Every(cfg.Interval, func() { helper.Refresh() })
	defer stopRefresh()

	cores := poller.New(coreCount, helper, scheduler,
		poller.WithInterval(cfg.Interval),
		poller.WithLogger(observability.Logger("poller")),
	)
	cores.Start()
	defer cores.Stop()

	service := app.NewService(host, cores)

	if cfg.NATSURL != "" {
		conn, err := natspub.Connect(cfg.NATSURL)
		if err != nil {
			observability.Capture("main", "nats_connect", err)
			return fmt.Errorf("nats: %w", err)
		}
		publisher := natspub.NewPublisher(conn, cfg.NATSSubject, service.Panel, scheduler, cfg.Interval, observability.Logger("nats"))
		publisher.Start()
		defer publisher.Stop()
		logger.Printf("publishing panel to %s on %s", cfg.NATSSubject, cfg.NATSURL)
	}

	httpServer := httpadapter.NewServer(ctx, service, cfg.Interval, observability.Logger("http"))
	echoServer := httpadapter.NewEcho()
	httpServer.Register(echoServer)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           echoServer,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("corepanel %s listening on %s, %d cores every %s", version, cfg.Addr, coreCount, cfg.Interval)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		observability.Capture("main", "listen", err)
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
