package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/replyforge/replyforge/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "replyd",
		Usage:   "comment auto-reply daemon",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/replyd/replyd.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for shared quota counters; empty uses the database",
			EnvVars: []string{"REPLYD_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":8200",
			EnvVars: []string{"REPLYD_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":8201",
			EnvVars: []string{"REPLYD_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "classifier-host",
			Usage:   "base URL of the sentiment/spam/similarity scoring service",
			EnvVars: []string{"REPLYD_CLASSIFIER_HOST"},
		},
		&cli.StringFlag{
			Name:    "classifier-token",
			EnvVars: []string{"REPLYD_CLASSIFIER_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "platform-host",
			Usage:   "base URL of the platform gateway which posts replies",
			EnvVars: []string{"REPLYD_PLATFORM_HOST"},
		},
		&cli.StringFlag{
			Name:    "webhook-url",
			Usage:   "URL POSTed for rules with the webhook response action",
			EnvVars: []string{"REPLYD_WEBHOOK_URL"},
		},
		&cli.IntFlag{
			Name:    "dispatch-workers",
			Value:   4,
			EnvVars: []string{"REPLYD_DISPATCH_WORKERS"},
		},
		&cli.IntFlag{
			Name:    "send-rate-limit",
			Usage:   "max platform reply calls per second",
			Value:   5,
			EnvVars: []string{"REPLYD_SEND_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			Value:   40,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		// Enable OTLP HTTP exporter
		// For relevant environment variables:
		// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace#readme-environment-variables
		// At a minimum, you need to set
		// OTEL_EXPORTER_OTLP_ENDPOINT=http://localhost:4318
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			slog.Info("setting up trace exporter", "endpoint", ep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				return fmt.Errorf("failed to create trace exporter: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(ctx); err != nil {
					slog.Error("failed to shutdown trace exporter", "error", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("replyd"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),         // DataDog
					attribute.String("environment", os.Getenv("ENVIRONMENT")), // Others
					attribute.Int64("ID", 1),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}

		srv, err := NewServer(
			db,
			Config{
				Logger:          logger,
				RedisURL:        cctx.String("redis-url"),
				ClassifierHost:  cctx.String("classifier-host"),
				ClassifierToken: cctx.String("classifier-token"),
				PlatformHost:    cctx.String("platform-host"),
				WebhookURL:      cctx.String("webhook-url"),
				DispatchWorkers: cctx.Int("dispatch-workers"),
				SendRateLimit:   cctx.Int("send-rate-limit"),
			},
		)
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.RunAPI(ctx, cctx.String("bind")); err != nil {
			return fmt.Errorf("failed to run auto-reply service: %w", err)
		}
		return nil
	},
}
