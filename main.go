package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airbnk-to-mqtt/adapters"
	"airbnk-to-mqtt/application"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var Flags = []cli.Flag{
	FlagLogLevel,
	FlagLogWriter,
	FlagCredentialsFile,
	FlagAirbnkURL,
	FlagRequestTimeout,
}

var RunFlags = []cli.Flag{
	FlagLockMarkMapping,
	FlagExcludedTypePrefixes,
	FlagUpdateInterval,
	FlagMQTTUrl,
	FlagMQTTClientID,
	FlagMQTTUsername,
	FlagMQTTPassword,
	FlagMQTTTopic,
	FlagHTTPAddr,
}

func main() {
	var logger zerolog.Logger

	app := cli.App{
		Name:    "airbnk-to-mqtt",
		Usage:   "bridge airbnk cloud locks to mqtt",
		Version: "v0.1.0",
		Flags:   Flags,
		Before: func(ctx *cli.Context) error {
			var logWriter io.Writer
			switch ctx.String(FlagLogWriter.Name) {
			case "console":
				logWriter = zerolog.ConsoleWriter{
					Out:        os.Stderr,
					TimeFormat: time.RFC3339Nano,
				}
			case "json":
				logWriter = os.Stderr
			default:
				return fmt.Errorf("invalid log writer %q", ctx.String(FlagLogWriter.Name))
			}

			logger = zerolog.New(logWriter).With().Timestamp().
				Str("service", "airbnk-to-mqtt").
				Str("module", "main").
				Logger()

			level, err := zerolog.ParseLevel(ctx.String(FlagLogLevel.Name))
			if err != nil {
				return err
			}

			zerolog.SetGlobalLevel(level)

			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "keep locks in sync and accept commands",
				Flags: RunFlags,
				Action: func(ctx *cli.Context) error {
					return run(ctx, logger)
				},
			},
			loginCommand(&logger),
		},
		Authors: []*cli.Author{
			{
				Name: "airbnk-to-mqtt contributors",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Err(err).Msg("service terminated")
		os.Exit(1)
	}
}

func newAirbnkClient(ctx *cli.Context, logger zerolog.Logger) *adapters.AirbnkClient {
	return adapters.NewAirbnkClient(adapters.AirbnkClientParams{
		BaseURL: ctx.String(FlagAirbnkURL.Name),
		Transport: adapters.NewHTTPTransport(adapters.HTTPTransportParams{
			Timeout: ctx.Duration(FlagRequestTimeout.Name),
		}),
		Log: logger.With().Str("module", "airbnk-client").Logger(),
	})
}

func run(ctx *cli.Context, logger zerolog.Logger) error {
	logger.Info().Msg("service starting...")

	markMapping, err := application.ParseMarkMapping(ctx.String(FlagLockMarkMapping.Name))
	if err != nil {
		return err
	}
	logger.Info().Str("lock_mark_mapping", markMapping.Name).Msg("lock mark mapping")

	appCtx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		<-c

		logger.Warn().Msg("interrupt signal received")
		cancel()
	}()

	credentials := adapters.NewCredentialsFile(ctx.String(FlagCredentialsFile.Name))
	if _, err := credentials.Credentials(appCtx); err != nil {
		return fmt.Errorf("%w, run the login command first", err)
	}

	mqttClient := adapters.NewMQTTClient(adapters.MQTTClientParams{
		ClientID: ctx.String(FlagMQTTClientID.Name),
		Username: ctx.String(FlagMQTTUsername.Name),
		Password: ctx.String(FlagMQTTPassword.Name),
		MQTTUrl:  ctx.String(FlagMQTTUrl.Name),
		Log:      logger.With().Str("module", "mqtt-client").Logger(),
	})

	service, err := application.NewAirbnkToMQTTService(application.AirbnkToMQTTServiceParams{
		AirbnkClient:         newAirbnkClient(ctx, logger),
		Credentials:          credentials,
		MQTTClient:           mqttClient,
		MarkMapping:          markMapping,
		ExcludedTypePrefixes: ctx.StringSlice(FlagExcludedTypePrefixes.Name),
		TopicPrefix:          ctx.String(FlagMQTTTopic.Name),
		UpdateInterval:       ctx.Duration(FlagUpdateInterval.Name),
		Log:                  logger.With().Str("module", "service").Logger(),
	})
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		return service.Run(gCtx)
	})

	if addr := ctx.String(FlagHTTPAddr.Name); addr != "" {
		api, err := adapters.NewHTTPAPI(adapters.HTTPAPIParams{
			Addr:    addr,
			Service: service,
			Log:     logger.With().Str("module", "http-api").Logger(),
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			return api.Run(gCtx)
		})
	}

	logger.Info().Msg("service started")
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("service terminating...")
	return nil
}
