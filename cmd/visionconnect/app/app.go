package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/visionconnect/pkg/config"
	"github.com/carverauto/visionconnect/pkg/core/api"
	"github.com/carverauto/visionconnect/pkg/core/auth"
	"github.com/carverauto/visionconnect/pkg/db"
	"github.com/carverauto/visionconnect/pkg/lifecycle"
	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
	"github.com/carverauto/visionconnect/pkg/natsutil"
	"github.com/carverauto/visionconnect/pkg/provisioning"
	"github.com/carverauto/visionconnect/pkg/signaling"
	"github.com/carverauto/visionconnect/pkg/version"
)

const (
	serviceName = "visionconnect"

	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// Options contains runtime configuration derived from CLI flags.
type Options struct {
	ConfigPath string
	// Listener overrides listen_addr. Tests use it to bind an ephemeral port.
	Listener net.Listener
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Run boots the service and blocks until ctx is cancelled or a signal arrives.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg models.Config
	if err := config.NewConfig(nil).LoadAndValidate(ctx, opts.ConfigPath, &cfg); err != nil {
		return err
	}

	if err := lifecycle.InitializeLogger(cfg.Logging); err != nil {
		return err
	}

	mainLogger, err := lifecycle.CreateComponentLogger("visionconnect-main", cfg.Logging)
	if err != nil {
		return err
	}

	if cfg.Logging != nil {
		if _, metricsErr := logger.InitializeMetrics(ctx, logger.MetricsConfig{
			ServiceName:    serviceName,
			ServiceVersion: version.GetVersion(),
			OTel:           &cfg.Logging.OTel,
		}); metricsErr != nil && !errors.Is(metricsErr, logger.ErrOTelMetricsDisabled) {
			return metricsErr
		}
	}

	defer func() {
		if shutdownErr := lifecycle.ShutdownLogger(); shutdownErr != nil {
			mainLogger.Error().Err(shutdownErr).Msg("Error shutting down logger")
		}
	}()

	componentLogger := func(component string) logger.Logger {
		l, lerr := lifecycle.CreateComponentLogger(component, cfg.Logging)
		if lerr != nil {
			return mainLogger
		}

		return l
	}

	store, err := db.Open(ctx, &cfg.Database, componentLogger("db"))
	if err != nil {
		return err
	}

	closers := make([]lifecycle.Closer, 0, 3)

	var publisher provisioning.EventPublisher

	if cfg.NATS != nil && cfg.NATS.Enabled {
		events, nc, natsErr := natsutil.Connect(ctx, cfg.NATS, componentLogger("events"))
		if natsErr != nil {
			_ = store.Close()
			return natsErr
		}

		publisher = events
		closers = append(closers, closerFunc(nc.Drain))
	}

	provisioner := provisioning.NewService(store, publisher, provisioning.Options{
		PublicURL: cfg.PublicURL,
		Compact:   cfg.QR.Compact,
		QRSize:    cfg.QR.Size,
	}, componentLogger("provisioning"))

	authService := auth.NewAuth(cfg.Auth, store, componentLogger("auth"))

	var verifier signaling.IdentityVerifier
	if authService.Enabled() {
		verifier = authService
	} else {
		mainLogger.Warn().Msg("auth.jwt_secret not set; owner_id is taken from requests")
	}

	registry := signaling.NewRegistry()
	relay := signaling.NewRelay(registry, componentLogger("relay"))
	wsHandler := signaling.NewHandler(relay, verifier, signaling.OptionsFromConfig(cfg.Signaling), componentLogger("signaling"))

	apiServer := api.NewAPIServer(cfg.CORS,
		api.WithProvisioning(provisioner),
		api.WithAuthService(authService, cfg.Auth.RequireAuth),
		api.WithSignalingHandler(wsHandler),
		api.WithConnectionCounter(registry),
		api.WithLogger(componentLogger("api")),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           apiServer,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	mainLogger.Info().
		Str("version", version.GetFullVersion()).
		Str("listen_addr", cfg.ListenAddr).
		Str("public_url", cfg.PublicURL).
		Str("store", string(cfg.Database.Driver)).
		Bool("auth", authService.Enabled()).
		Msg("Starting visionconnect")

	// wsHandler goes first so sessions close before the stores they touch.
	closers = append([]lifecycle.Closer{wsHandler}, closers...)
	closers = append(closers, store)

	return lifecycle.RunHTTPServer(ctx, lifecycle.ServerOptions{
		Server:   srv,
		Listener: opts.Listener,
		Closers:  closers,
		Logger:   mainLogger,
	})
}
