package sync_service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"
)

// FrameSaver сохраняет кадры задания
type FrameSaver interface {
	Save(job string, at time.Time, jpeg []byte) (string, error)
}

// CameraLoop снимает кадры задания во время печати и превью в остальное
// время; последний кадр публикуется каждый тик.
type CameraLoop struct {
	interval         time.Duration
	printingInterval time.Duration
	previewInterval  time.Duration

	store     interfaces.StateStore
	history   interfaces.HistoryRepository
	camera    interfaces.Camera
	frames    FrameSaver
	telemetry interfaces.Telemetry
	logger    *logging.Logger
	now       func() time.Time

	latest   []byte
	lastShot time.Time
}

func NewCameraLoop(cfg *config.AppConfig, store interfaces.StateStore, history interfaces.HistoryRepository, camera interfaces.Camera, frames FrameSaver, telemetry interfaces.Telemetry, logger *logging.Logger) *CameraLoop {
	return &CameraLoop{
		interval:         cfg.Loops.CameraInterval,
		printingInterval: cfg.Camera.PrintingInterval,
		previewInterval:  cfg.Camera.PreviewInterval,
		store:            store,
		history:          history,
		camera:           camera,
		frames:           frames,
		telemetry:        telemetry,
		logger:           logger.WithPrefix("CAMERA"),
		now:              time.Now,
	}
}

func (l *CameraLoop) Name() string            { return "camera" }
func (l *CameraLoop) Interval() time.Duration { return l.interval }

func (l *CameraLoop) Tick(ctx context.Context) error {
	status, err := l.store.GetDeviceStatus()
	if err != nil {
		return fmt.Errorf("device-status: %w", err)
	}

	captureErr := l.capture(ctx, status.Status)

	var image models.CamImage
	if l.latest != nil {
		encoded := base64.StdEncoding.EncodeToString(l.latest)
		image.Image = &encoded
	}
	if err := l.telemetry.Publish(ctx, []string{models.TargetBrowser}, models.ActionCamImage, image); err != nil {
		return errors.Join(captureErr, fmt.Errorf("cam-image: %w", err))
	}
	return captureErr
}

func (l *CameraLoop) capture(ctx context.Context, state entities.DeviceState) error {
	now := l.now()

	switch state {
	case entities.StateOffline:
		l.latest = nil
		return nil

	case entities.StatePrinting:
		if !l.due(now, l.printingInterval) {
			return nil
		}
		rec, err := l.history.Current()
		if err != nil {
			return fmt.Errorf("текущая запись истории: %w", err)
		}
		if rec == nil {
			// запись создается циклом статуса, кадр будет на следующем тике
			return nil
		}
		frame, err := l.shoot(ctx, now)
		if err != nil || frame == nil {
			return err
		}
		if _, err := l.frames.Save(rec.Name, now, frame); err != nil {
			return fmt.Errorf("сохранение кадра %s: %w", rec.Name, err)
		}
		return nil

	default:
		if !l.due(now, l.previewInterval) {
			return nil
		}
		_, err := l.shoot(ctx, now)
		return err
	}
}

func (l *CameraLoop) due(now time.Time, every time.Duration) bool {
	return l.lastShot.IsZero() || now.Sub(l.lastShot) >= every
}

// shoot снимает кадр и делает его последним. Для ненастроенной камеры
// возвращает nil без ошибки.
func (l *CameraLoop) shoot(ctx context.Context, now time.Time) ([]byte, error) {
	l.lastShot = now
	frame, err := l.camera.Capture(ctx)
	if errors.Is(err, apperrors.ErrNoCamera) {
		l.latest = nil
		return nil, nil
	}
	if err != nil {
		l.latest = nil
		return nil, fmt.Errorf("захват кадра: %w", err)
	}
	l.latest = frame
	return frame, nil
}
