package kafka

import (
	"context"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"

	"github.com/segmentio/kafka-go"
)

type KafkaProducer struct {
	writer *kafka.Writer
}

// batchTimeout ограничивает ожидание заполнения пачки. По умолчанию kafka-go
// ждет секунду, и синхронная отправка одного сообщения блокирует цикл.
const batchTimeout = 10 * time.Millisecond

// NewKafkaProducer создает продюсера зеркала телеметрии.
// Без KAFKA_BROKER возвращается продюсер, который ничего не отправляет.
// Writer синхронный: ошибка брокера возвращается в Produce, а короткий
// BatchTimeout держит задержку отправки в пределах тика.
func NewKafkaProducer(cfg *config.AppConfig) (interfaces.KafkaService, error) {
	if cfg.Kafka.Broker == "" {
		return &KafkaProducer{}, nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Broker),
		Topic:                  cfg.Kafka.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           cfg.MQTT.PublishTimeout,
	}
	return &KafkaProducer{writer: writer}, nil
}

// Enabled сообщает, настроен ли брокер
func (p *KafkaProducer) Enabled() bool {
	return p.writer != nil
}

// Produce отправляет сообщение в Kafka
func (p *KafkaProducer) Produce(ctx context.Context, key, value []byte) error {
	if p.writer == nil {
		return nil
	}
	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   key,
			Value: value,
		},
	)
}

// Close закрывает соединение с Kafka
func (p *KafkaProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
