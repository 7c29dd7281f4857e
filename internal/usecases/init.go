package usecases

import (
	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
)

// NewUsecases собирает use case локального API для fx
func NewUsecases(
	cfg *config.AppConfig,
	store interfaces.StateStore,
	history interfaces.HistoryRepository,
	monitor interfaces.LoopMonitor,
	commands interfaces.CommandHandler,
) interfaces.Usecases {
	return NewUsecase(cfg, store, history, monitor, commands)
}
