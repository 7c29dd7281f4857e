package interfaces

import (
	"context"

	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
)

// Telemetry публикует конверты телеметрии
type Telemetry interface {
	Publish(ctx context.Context, target []string, action string, data any) error
}

// MessageTransport - двунаправленный канал сообщений (MQTT)
type MessageTransport interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, payload []byte) error
	OnMessage(handler func(payload []byte))
	Disconnect()
}

// KafkaService определяет контракт для отправки данных во внешние системы
type KafkaService interface {
	Produce(ctx context.Context, key, value []byte) error
	Close() error
}

// ObjectStore - доступ к объектному хранилищу через presigned URL
type ObjectStore interface {
	PresignURL(ctx context.Context, method, key string) (string, error)
	GetJSON(ctx context.Context, key string, out any) error
	PutJSON(ctx context.Context, key string, v any) error
	PutBytes(ctx context.Context, key, contentType string, body []byte) error
	PutFile(ctx context.Context, key, contentType, filePath string) error
}

// Camera захватывает кадр в JPEG
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// TimelapseEncoder собирает видео из кадров
type TimelapseEncoder interface {
	Encode(ctx context.Context, frames []string, output string) error
}

// Codec - XML <-> структурированные данные
type Codec interface {
	Decode(raw []byte) (map[string]any, error)
	Encode(data map[string]any) ([]byte, error)
}

// CommandHandler обрабатывает входящие команды
type CommandHandler interface {
	Handle(ctx context.Context, msg models.InboundMessage) error
}

// LoopMonitor отдает статистику циклов синхронизации
type LoopMonitor interface {
	Stats() []models.LoopStats
}
