package sync_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
	"github.com/Carima-SSY/AWS-Client/internal/services/artifact"
	"github.com/Carima-SSY/AWS-Client/internal/services/history"
)

// HistoryObserver - автомат истории печати
type HistoryObserver interface {
	Observe(state entities.DeviceState) (history.Event, error)
}

// DeviceLog - журнал снимков состояния
type DeviceLog interface {
	Append(snapshot any) error
	Rotate() (string, error)
}

// StatusLoop публикует состояние устройства, ведет историю печати и журнал,
// пересылает тревоги и изменения конфигурации.
type StatusLoop struct {
	interval     time.Duration
	archiveEvery uint64
	rotateEvery  uint64

	store     interfaces.StateStore
	telemetry interfaces.Telemetry
	machine   HistoryObserver
	devlog    DeviceLog
	config    *artifact.Detector[entities.DeviceConfig]
	logger    *logging.Logger

	ticks uint64
	// последнее успешно прочитанное состояние по каждой записи
	last models.AllStatus
}

func NewStatusLoop(cfg *config.AppConfig, store interfaces.StateStore, telemetry interfaces.Telemetry, machine HistoryObserver, devlog DeviceLog, logger *logging.Logger) *StatusLoop {
	return &StatusLoop{
		interval:     cfg.Loops.StatusInterval,
		archiveEvery: uint64(cfg.Loops.ArchiveEveryTicks),
		rotateEvery:  uint64(cfg.Loops.LogRotateTicks),
		store:        store,
		telemetry:    telemetry,
		machine:      machine,
		devlog:       devlog,
		config:       artifact.NewDetector[entities.DeviceConfig](nil),
		logger:       logger.WithPrefix("STATUS"),
		last:         defaultSnapshot(),
	}
}

func defaultSnapshot() models.AllStatus {
	return models.AllStatus{
		Device: entities.DefaultDeviceStatus(),
		Sensor: entities.DefaultSensorStatus(),
		Print:  entities.DefaultPrintStatus(),
	}
}

func (l *StatusLoop) Name() string            { return "status" }
func (l *StatusLoop) Interval() time.Duration { return l.interval }

// Tick выполняет все шаги даже после ошибки одного из них;
// возвращает объединенную ошибку. Нечитаемая запись состояния заменяется
// последним прочитанным значением.
func (l *StatusLoop) Tick(ctx context.Context) error {
	l.ticks++

	var errs []error
	snapshot, deviceOK, err := l.snapshot()
	if err != nil {
		errs = append(errs, err)
	}
	browser := []string{models.TargetBrowser}

	if err := l.telemetry.Publish(ctx, browser, models.ActionAllStatus, snapshot); err != nil {
		errs = append(errs, fmt.Errorf("all-status: %w", err))
	}
	if l.archiveEvery > 0 && l.ticks%l.archiveEvery == 0 {
		if err := l.telemetry.Publish(ctx, []string{models.TargetStorage}, models.ActionAllStatus, snapshot); err != nil {
			errs = append(errs, fmt.Errorf("all-status в storage: %w", err))
		}
	}

	// по устаревшему статусу устройства переходы истории не выполняются
	if deviceOK {
		ev, err := l.machine.Observe(snapshot.Device.Status)
		if err != nil {
			errs = append(errs, err)
		} else if ev.Kind == history.EventArchived {
			if err := l.telemetry.Publish(ctx, browser, models.ActionPrintHistory, ev.Record); err != nil {
				errs = append(errs, fmt.Errorf("print-history: %w", err))
			}
		}
	}

	if err := l.devlog.Append(snapshot); err != nil {
		errs = append(errs, fmt.Errorf("журнал устройства: %w", err))
	}
	if l.rotateEvery > 0 && l.ticks%l.rotateEvery == 0 {
		if _, err := l.devlog.Rotate(); err != nil {
			errs = append(errs, fmt.Errorf("ротация журнала: %w", err))
		}
	}

	if err := l.forwardAlarm(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := l.forwardConfig(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// snapshot читает записи состояния по отдельности. Второе значение
// сообщает, прочитан ли device-status на этом тике.
func (l *StatusLoop) snapshot() (models.AllStatus, bool, error) {
	var errs []error
	deviceOK := true

	if device, err := l.store.GetDeviceStatus(); err != nil {
		errs = append(errs, fmt.Errorf("device-status: %w", err))
		deviceOK = false
	} else {
		l.last.Device = device
	}
	if sensor, err := l.store.GetSensorStatus(); err != nil {
		errs = append(errs, fmt.Errorf("sensor-status: %w", err))
	} else {
		l.last.Sensor = sensor
	}
	if ps, err := l.store.GetPrintStatus(); err != nil {
		errs = append(errs, fmt.Errorf("print-status: %w", err))
	} else {
		l.last.Print = ps
	}

	if len(errs) > 0 {
		l.logger.Warn("Publishing stale state", "error", errors.Join(errs...))
	}
	return l.last, deviceOK, errors.Join(errs...)
}

// forwardAlarm публикует активную тревогу и сбрасывает ее только после
// успешной публикации
func (l *StatusLoop) forwardAlarm(ctx context.Context) error {
	alarm, err := l.store.GetDeviceAlarm()
	if err != nil {
		return fmt.Errorf("device-alarm: %w", err)
	}
	if !alarm.Active() {
		return nil
	}
	if err := l.telemetry.Publish(ctx, []string{models.TargetBrowser}, models.ActionDeviceAlarm, alarm); err != nil {
		return fmt.Errorf("публикация тревоги: %w", err)
	}
	cleared, err := l.store.ClearAlarm(alarm)
	if err != nil {
		return fmt.Errorf("сброс тревоги: %w", err)
	}
	if !cleared {
		// устройство успело записать новую тревогу, она уйдет на следующем тике
		l.logger.Debug("Alarm replaced before clear", "subject", alarm.Subject)
		return nil
	}
	l.logger.Info("Alarm forwarded", "subject", alarm.Subject, "created", alarm.CreatedDate)
	return nil
}

func (l *StatusLoop) forwardConfig(ctx context.Context) error {
	cfg, err := l.store.GetDeviceConfig()
	if err != nil {
		return fmt.Errorf("device-config: %w", err)
	}
	if !l.config.Changed(cfg) {
		return nil
	}
	if err := l.telemetry.Publish(ctx, []string{models.TargetBrowser}, models.ActionDeviceConfig, cfg); err != nil {
		return fmt.Errorf("публикация device-config: %w", err)
	}
	l.config.Commit(cfg)
	return nil
}
