package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
)

// Publisher заворачивает данные в конверт и отправляет в MQTT,
// дублируя в Kafka, если зеркало настроено.
type Publisher struct {
	device    models.DeviceRef
	transport interfaces.MessageTransport
	mirror    interfaces.KafkaService
	logger    *logging.Logger
}

var _ interfaces.Telemetry = (*Publisher)(nil)

func NewPublisher(cfg *config.AppConfig, transport interfaces.MessageTransport, mirror interfaces.KafkaService, logger *logging.Logger) *Publisher {
	return &Publisher{
		device:    models.DeviceRef{Type: cfg.Device.Type, Number: cfg.Device.Number},
		transport: transport,
		mirror:    mirror,
		logger:    logger.WithPrefix("TELEMETRY"),
	}
}

func (p *Publisher) Publish(ctx context.Context, target []string, action string, data any) error {
	payload, err := json.Marshal(models.Envelope{
		Target: target,
		Action: action,
		Device: p.device,
		Data:   data,
	})
	if err != nil {
		return fmt.Errorf("сериализация %s: %w", action, err)
	}

	var errs []error
	if err := p.transport.Publish(ctx, payload); err != nil {
		errs = append(errs, fmt.Errorf("публикация %s: %w", action, err))
	}
	if p.mirror != nil {
		if err := p.mirror.Produce(ctx, []byte(action), payload); err != nil {
			// зеркало не влияет на результат тика
			p.logger.Warn("Kafka mirror failed", "action", action, "error", err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	p.logger.Debug("Telemetry published", "action", action, "target", target, "bytes", len(payload))
	return nil
}
