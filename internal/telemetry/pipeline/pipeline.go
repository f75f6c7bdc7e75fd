// Package pipeline assembles the telemetry stack of a binary: OTel providers, counters and the
// event emitters (OTel logs, and Kafka when brokers are configured).
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"jagx-bot/internal/config"
	"jagx-bot/internal/telemetry"
	telemetryotel "jagx-bot/internal/telemetry/otel"
	"jagx-bot/internal/telemetry/producer"
)

// Stack is the telemetry wiring shared by the pairing server and the bot.
type Stack struct {
	Providers *telemetryotel.Providers
	Metrics   *telemetryotel.Metrics
	// Emitter fans events out to OTel logs and Kafka. Never nil.
	Emitter telemetry.EventEmitter

	producer producer.Producer
}

// New builds the stack for serviceName from cfg and installs the providers globally.
func New(ctx context.Context, cfg *config.Config, serviceName string, log *zap.Logger) (*Stack, error) {
	if log == nil {
		log = zap.NewNop()
	}
	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: providers: %w", err)
	}
	providers.SetGlobal()

	metrics, err := telemetryotel.NewMetrics(providers.MeterProvider)
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, fmt.Errorf("telemetry: metrics: %w", err)
	}

	s := &Stack{Providers: providers, Metrics: metrics}
	emitters := telemetry.Multi{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if kp := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic); kp != nil {
		s.producer = kp
		emitters = append(emitters, kp)
		log.Info("telemetry: kafka pipeline enabled", zap.String("topic", cfg.TelemetryKafkaTopic))
	}
	s.Emitter = emitters
	if cfg.OTLPEndpoint != "" {
		log.Info("telemetry: exporting via OTLP", zap.String("endpoint", cfg.OTLPEndpoint))
	}
	return s, nil
}

// Shutdown closes the Kafka producer and flushes the providers.
func (s *Stack) Shutdown(ctx context.Context) error {
	var errs []error
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("telemetry: close producer: %w", err))
		}
	}
	if s.Providers != nil && s.Providers.Shutdown != nil {
		if err := s.Providers.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
