package main

import (
	"context"
	"expvar"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/janskor-cz/identuslabel-sub001/config"
	"github.com/janskor-cz/identuslabel-sub001/pkg/server"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/offer"

	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

func main() {
	logrus.Info("Starting up...")

	if err := run(); err != nil {
		logrus.Fatalf("main: error: %s", err.Error())
	}
}

// startup and shutdown logic
func run() error {
	// a .env file is optional; when present it seeds the process environment
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	configPath := config.DefaultConfigPath
	envConfigPath, present := os.LookupEnv(config.ConfigPath.String())
	if present {
		logrus.Infof("loading config from env var path: %s", envConfigPath)
		configPath = envConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logrus.Fatalf("could not instantiate config: %s", err.Error())
	}

	// set up logger
	if logFile := configureLogger(cfg.Server.LogLevel, cfg.Server.LogLocation); logFile != nil {
		defer func(logFile *os.File) {
			if err = logFile.Close(); err != nil {
				logrus.WithError(err).Error("failed to close log file")
			}
		}(logFile)
	}

	// set up tracer
	var tp *sdktrace.TracerProvider
	if cfg.Server.JagerEnabled {
		tp, err = newTracerProvider(cfg)
		if err != nil {
			logrus.WithError(err).Error("could not instantiate tracer provider")
		}
	}

	expvar.NewString("build").Set(cfg.Version.SVN)

	logrus.Infof("main: Started : Wallet core initializing : env [%s] : version %q", cfg.Server.Environment, cfg.Version.SVN)
	defer logrus.Info("main: Completed")

	out, err := conf.String(cfg)
	if err != nil {
		return errors.Wrap(err, "serializing config")
	}

	logrus.Infof("main: Config: \n%v\n", out)

	// create a channel of buffer size 1 to handle shutdown.
	// buffer's size is 1 in order to ignore any additional ctrl+c
	// spamming.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	walletServer, err := server.NewWalletServer(shutdown, *cfg, standaloneAgent{}, nil, standaloneCallbacks())
	if err != nil {
		logrus.Fatalf("could not start http services: %s", err.Error())
	}

	serverErrors := make(chan error, 1)
	go func() {
		logrus.Infof("main: server started and listening on -> %s", walletServer.Server.Addr)
		serverErrors <- walletServer.ListenAndServe()
	}()

	select {
	case err = <-serverErrors:
		return errors.Wrap(err, "server error")
	case sig := <-shutdown:
		logrus.Infof("main: shutdown signal received -> %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Handle shutdown properly so nothing leaks.
		if tp != nil {
			if err = tp.Shutdown(ctx); err != nil {
				logrus.Errorf("main: failed to shutdown tracer: %s", err)
			}
		}

		if err = walletServer.Shutdown(ctx); err != nil {
			logrus.WithError(err).Error("main: failed to stop server gracefully, forcing shutdown")
			if err = walletServer.Close(); err != nil {
				logrus.WithError(err).Error("main: failed to close server")
			}
		}
	}

	return nil
}

// standaloneAgent is the agent binding used when the wallet core runs on its own,
// without a connected messaging agent. Accepts and rejects are acknowledged locally
// and logged. Deployments embed the core and supply their own offer.Agent.
type standaloneAgent struct{}

func (standaloneAgent) AcceptOffer(_ context.Context, o offer.PendingOffer, choice offer.DIDChoice) error {
	logrus.Infof("standalone agent: accepting offer %s with did choice %s", o.ID, choice)
	return nil
}

func (standaloneAgent) RejectOffer(_ context.Context, o offer.PendingOffer) error {
	logrus.Infof("standalone agent: rejecting offer %s", o.ID)
	return nil
}

func standaloneCallbacks() offer.Callbacks {
	return offer.Callbacks{
		OnQueueChanged: func(count int) {
			logrus.Debugf("offer queue size changed: %d", count)
		},
		OnOfferTerminal: func(id string, outcome offer.State) {
			logrus.Infof("offer %s reached terminal state: %s", id, outcome)
		},
	}
}

// newTracerProvider returns an OpenTelemetry TracerProvider configured to use
// the Jaeger exporter that will send spans to the provided url. The returned
// TracerProvider will also use a Resource configured with all the information
// about the application.
func newTracerProvider(cfg *config.WalletCoreConfig) (*sdktrace.TracerProvider, error) {
	jagerHost := cfg.Server.JagerHost
	if jagerHost == "" {
		return nil, errors.New("no jager host provided")
	}
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jagerHost)))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		// Always be sure to batch in production.
		sdktrace.WithBatcher(exporter),
		// Record information about this application in a Resource.
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Version.SVN),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}

// configureLogger configures the logger to log to the given location and returns a file
// pointer to a log file that should be closed upon server shutdown
func configureLogger(level, location string) *os.File {
	if level != "" {
		logLevel, err := logrus.ParseLevel(level)
		if err != nil {
			logrus.WithError(err).Errorf("could not parse log level<%s>, setting to info", level)
			logrus.SetLevel(logrus.InfoLevel)
		} else {
			logrus.SetLevel(logLevel)
		}
	}

	logrus.SetFormatter(&logrus.JSONFormatter{
		DisableTimestamp: false,
		PrettyPrint:      true,
	})
	logrus.SetReportCaller(true)

	logrus.SetOutput(os.Stdout)
	if location != "" {
		logFile := location + "/" + config.ServiceName + "-" + time.Now().Format(time.DateOnly) + "-" + strconv.FormatInt(time.Now().Unix(), 10) + ".log"
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logrus.WithError(err).Warn("failed to create log file, using default stdout")
		} else {
			logrus.SetOutput(io.MultiWriter(os.Stdout, file))
		}
		return file
	}
	return nil
}
