package models

import (
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
)

// ErrorResponse представляет стандартный ответ с ошибкой.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// MessageResponse представляет стандартный успешный ответ с сообщением.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusResponse - ответ GET /status
type StatusResponse struct {
	Status   string    `json:"status"`
	Identity DeviceRef `json:"identity"`
	AllStatus
	Alarm  entities.DeviceAlarm  `json:"alarm"`
	Config entities.DeviceConfig `json:"config"`
}

// HistoryResponse - ответ GET /history/current
type HistoryResponse struct {
	Status  string                 `json:"status"`
	Current *entities.PrintHistory `json:"current"`
}

// LoopStats - состояние одного цикла синхронизации
type LoopStats struct {
	Name                string        `json:"name"`
	Ticks               uint64        `json:"ticks"`
	Failures            uint64        `json:"failures"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastError           string        `json:"last_error,omitempty"`
	LastTick            time.Time     `json:"last_tick"`
	Backoff             time.Duration `json:"backoff"`
}

// LoopsResponse - ответ GET /loops
type LoopsResponse struct {
	Status string      `json:"status"`
	Loops  []LoopStats `json:"loops"`
}
