package interfaces

import (
	"context"

	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
)

// Usecases - это агрегирующий интерфейс для локального API
type Usecases interface {
	GetStatus() (*models.StatusResponse, error)
	GetCurrentHistory() (*entities.PrintHistory, error)
	GetLoops() []models.LoopStats
	SubmitRequest(ctx context.Context, msg models.InboundMessage) error
}
