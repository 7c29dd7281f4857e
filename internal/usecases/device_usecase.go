package usecases

import (
	"context"
	"fmt"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
)

type Usecase struct {
	device   models.DeviceRef
	store    interfaces.StateStore
	history  interfaces.HistoryRepository
	monitor  interfaces.LoopMonitor
	commands interfaces.CommandHandler
}

func NewUsecase(cfg *config.AppConfig, store interfaces.StateStore, history interfaces.HistoryRepository, monitor interfaces.LoopMonitor, commands interfaces.CommandHandler) interfaces.Usecases {
	return &Usecase{
		device:   models.DeviceRef{Type: cfg.Device.Type, Number: cfg.Device.Number},
		store:    store,
		history:  history,
		monitor:  monitor,
		commands: commands,
	}
}

func (u *Usecase) GetStatus() (*models.StatusResponse, error) {
	device, err := u.store.GetDeviceStatus()
	if err != nil {
		return nil, fmt.Errorf("device-status: %w", err)
	}
	sensor, err := u.store.GetSensorStatus()
	if err != nil {
		return nil, fmt.Errorf("sensor-status: %w", err)
	}
	ps, err := u.store.GetPrintStatus()
	if err != nil {
		return nil, fmt.Errorf("print-status: %w", err)
	}
	alarm, err := u.store.GetDeviceAlarm()
	if err != nil {
		return nil, fmt.Errorf("device-alarm: %w", err)
	}
	cfg, err := u.store.GetDeviceConfig()
	if err != nil {
		return nil, fmt.Errorf("device-config: %w", err)
	}

	return &models.StatusResponse{
		Status:    "ok",
		Identity:  u.device,
		AllStatus: models.AllStatus{Device: device, Sensor: sensor, Print: ps},
		Alarm:     alarm,
		Config:    cfg,
	}, nil
}

// GetCurrentHistory возвращает nil, если задание не идет
func (u *Usecase) GetCurrentHistory() (*entities.PrintHistory, error) {
	return u.history.Current()
}

func (u *Usecase) GetLoops() []models.LoopStats {
	return u.monitor.Stats()
}

func (u *Usecase) SubmitRequest(ctx context.Context, msg models.InboundMessage) error {
	return u.commands.Handle(ctx, msg)
}
