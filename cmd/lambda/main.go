package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/berniyo/athmovil-lambda/internal/config"
	"github.com/berniyo/athmovil-lambda/internal/handler"
	"github.com/berniyo/athmovil-lambda/pkg/athmovil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	callbackSender, err := handler.NewHTTPSCallbackSender(cfg.Callback.URL, cfg.Callback.Secret, nil)
	if err != nil {
		logger.Fatal("failed to configure callback sender", zap.Error(err))
	}

	switch cfg.Handler {
	case config.HandlerWebhook:
		webhookHandler := handler.NewWebhookHandler(callbackSender, logger.Named("webhook"))
		lambda.Start(webhookHandler.Handle)

	default:
		client, err := athmovil.NewClient(
			cfg.ClientConfig(),
			athmovil.WithLogger(logger.Named("athmovil")),
			athmovil.WithMetrics(athmovil.NewMetrics(prometheus.DefaultRegisterer)),
		)
		if err != nil {
			logger.Fatal("failed to configure ATH Móvil client", zap.Error(err))
		}

		processor := handler.NewCheckoutProcessor(
			client,
			handler.WithPollInterval(cfg.Checkout.PollInterval),
			handler.WithTimeout(cfg.Checkout.ConfirmTimeout),
			handler.WithLogger(logger.Named("checkout")),
			handler.WithCallbackSender(callbackSender),
		)
		lambda.Start(processor.Handle)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	return zapCfg.Build()
}
