package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/api/handlers"
	"github.com/ruteri/ans-registry/cmd/flags"
	"github.com/ruteri/ans-registry/common"
	"github.com/ruteri/ans-registry/cryptoutils"
	"github.com/ruteri/ans-registry/eventsink"
	"github.com/ruteri/ans-registry/httpserver"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/registrar"
	"github.com/ruteri/ans-registry/service"
	"github.com/ruteri/ans-registry/storage"
	"github.com/urfave/cli/v2"
)

var serverFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "listen-addr",
		Value:   "127.0.0.1:8080",
		Usage:   "address to listen on for API",
		EnvVars: []string{"ANS_LISTEN_ADDR"},
	},
	&cli.StringFlag{
		Name:     "admin",
		Required: true,
		Usage:    "asset address administering the primary registry, 66-char hex",
		EnvVars:  []string{"ANS_ADMIN"},
	},
	&cli.IntFlag{
		Name:    "secondaries",
		Value:   1,
		Usage:   "number of secondary partitions",
		EnvVars: []string{"ANS_SECONDARIES"},
	},
	&cli.DurationFlag{
		Name:    "min-registration-duration",
		Value:   time.Duration(registrar.DefaultMinRegistrationDuration) * time.Millisecond,
		Usage:   "shortest lease a name can be registered or renewed for",
		EnvVars: []string{"ANS_MIN_REGISTRATION_DURATION"},
	},
	&cli.Uint64Flag{
		Name:    "rent-price",
		Value:   registrar.DefaultRentPrice,
		Usage:   "rent charged per millisecond of lease",
		EnvVars: []string{"ANS_RENT_PRICE"},
	},
	&cli.Uint64Flag{
		Name:    "record-deposit",
		Value:   registrar.DefaultRecordDeposit,
		Usage:   "deposit locked in every record",
		EnvVars: []string{"ANS_RECORD_DEPOSIT"},
	},
	&cli.Uint64Flag{
		Name:    "resolver-deposit",
		Value:   service.DefaultResolverDeposit,
		Usage:   "deposit locked in every resolver sub-record",
		EnvVars: []string{"ANS_RESOLVER_DEPOSIT"},
	},
	&cli.StringSliceFlag{
		Name:    "storage",
		Usage:   "snapshot storage location URI (file://, s3://, ipfs://, vault://, redis://); repeat for redundancy",
		EnvVars: []string{"ANS_STORAGE"},
	},
	&cli.StringFlag{
		Name:    "restore",
		Usage:   "snapshot manifest id to restore before serving",
		EnvVars: []string{"ANS_RESTORE"},
	},
	&cli.StringSliceFlag{
		Name:    "kafka-brokers",
		Usage:   "Kafka seed brokers to publish committed events to",
		EnvVars: []string{"ANS_KAFKA_BROKERS"},
	},
	&cli.StringFlag{
		Name:    "kafka-topic",
		Value:   "ans-events",
		Usage:   "Kafka topic for committed events",
		EnvVars: []string{"ANS_KAFKA_TOPIC"},
	},
	&cli.BoolFlag{
		Name:    "log-events",
		Value:   false,
		Usage:   "log every committed event at debug level",
		EnvVars: []string{"ANS_LOG_EVENTS"},
	},
	&cli.StringFlag{
		Name:    "faucet-amount",
		Usage:   "enable the devnet faucet, crediting this decimal amount per request",
		EnvVars: []string{"ANS_FAUCET_AMOUNT"},
	},
	&cli.BoolFlag{
		Name:    "tls-self-signed",
		Value:   false,
		Usage:   "serve the API over HTTPS with a generated self-signed certificate",
		EnvVars: []string{"ANS_TLS_SELF_SIGNED"},
	},
	&cli.StringSliceFlag{
		Name:    "tls-hosts",
		Value:   cli.NewStringSlice("localhost", "127.0.0.1"),
		Usage:   "hosts the self-signed certificate is valid for",
		EnvVars: []string{"ANS_TLS_HOSTS"},
	},
}

func main() {
	app := &cli.App{
		Name:    "ansd",
		Usage:   "Serve the partitioned name registry",
		Version: common.Version,
		Flags:   append(append(serverFlags, flags.CommonFlags...), flags.LogServiceFlagFn("ansd")),
		Action:  runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	admin, err := interfaces.NewAddressFromHex(cCtx.String("admin"))
	if err != nil {
		return fmt.Errorf("invalid --admin: %w", err)
	}

	var faucetAmount *uint256.Int
	if amount := cCtx.String("faucet-amount"); amount != "" {
		faucetAmount, err = uint256.FromDecimal(amount)
		if err != nil {
			return fmt.Errorf("invalid --faucet-amount: %w", err)
		}
		logger.Warn("Devnet faucet enabled", "amount", faucetAmount.Dec())
	}

	srvCfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))
	if cCtx.Bool("tls-self-signed") {
		cert, err := cryptoutils.SelfSignedCert(365*24*time.Hour, cCtx.StringSlice("tls-hosts")...)
		if err != nil {
			return fmt.Errorf("failed to create TLS certificate: %w", err)
		}
		srvCfg.TLSCert = &cert
	}

	server, err := httpserver.New(srvCfg)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	backend, err := setupStorage(ctx, logger, cCtx.StringSlice("storage"))
	if err != nil {
		return err
	}

	sink, err := setupSink(ctx, logger, cCtx)
	if err != nil {
		return err
	}
	if sink != nil {
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Error("Failed to close event sink", "err", err)
			}
		}()
	}

	cfg := service.Config{
		Secondaries: cCtx.Int("secondaries"),
		Admin:       admin,
		Registrar: registrar.Config{
			MinRegistrationDuration: uint64(cCtx.Duration("min-registration-duration").Milliseconds()),
			RentPrice:               cCtx.Uint64("rent-price"),
			RecordDeposit:           cCtx.Uint64("record-deposit"),
		},
		ResolverDeposit: cCtx.Uint64("resolver-deposit"),
		Clock:           clock.New(),
		Metrics:         server.Metrics(),
		Sink:            sink,
		Storage:         backend,
		Log:             logger,
	}

	deployment, err := service.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to deploy registry", "err", err)
		return err
	}

	if manifest := cCtx.String("restore"); manifest != "" {
		id, err := interfaces.NewContentIDFromHex(manifest)
		if err != nil {
			return fmt.Errorf("invalid --restore: %w", err)
		}
		if err := deployment.Restore(ctx, id); err != nil {
			logger.Error("Failed to restore snapshot", "manifest", manifest, "err", err)
			return err
		}
		logger.Info("Snapshot restored", "manifest", manifest)
	}

	server.RegisterHandler(handlers.NewHandler(deployment, handlers.HandlerConfig{FaucetAmount: faucetAmount}, logger))

	logger.Info("Server is running, press Ctrl+C to stop",
		"admin", admin.String(),
		"partitions", len(deployment.Partitions()))
	if err := server.Run(ctx); err != nil {
		logger.Error("Server failed", "err", err)
		return err
	}
	logger.Info("Server shutdown complete")
	return nil
}

func setupStorage(ctx context.Context, logger *slog.Logger, uris []string) (interfaces.StorageBackend, error) {
	if len(uris) == 0 {
		logger.Warn("No storage configured, snapshots are disabled")
		return nil, nil
	}
	locations, err := storage.ParseLocations(uris)
	if err != nil {
		return nil, fmt.Errorf("invalid --storage: %w", err)
	}
	backend, err := storage.NewStorageBackendFactory(ctx, logger).CreateMultiBackend(locations)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	logger.Info("Snapshot storage configured", "location", backend.LocationURI())
	return backend, nil
}

func setupSink(ctx context.Context, logger *slog.Logger, cCtx *cli.Context) (interfaces.EventSink, error) {
	var sinks eventsink.MultiSink
	if cCtx.Bool("log-events") {
		sinks = append(sinks, eventsink.NewLogSink(logger.With("component", "events"), slog.LevelDebug))
	}
	if brokers := cCtx.StringSlice("kafka-brokers"); len(brokers) > 0 {
		kafka, err := eventsink.NewKafkaSink(ctx, brokers, cCtx.String("kafka-topic"), logger)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to connect to Kafka: %w", err), sinks.Close())
		}
		sinks = append(sinks, kafka)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}
