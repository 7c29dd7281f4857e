package sync_service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
	"github.com/Carima-SSY/AWS-Client/internal/services/artifact"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"
)

// ArtifactScanner строит снимки локальных папок
type ArtifactScanner interface {
	ScanPrintData() (models.PrintDataCatalog, error)
	ScanRecipes() (models.RecipeCatalog, error)
	ScanSettings() (models.SettingCatalog, error)
}

// Consolidator выгружает кадры камеры архивированного задания
type Consolidator interface {
	Consolidate(ctx context.Context, rec entities.PrintHistory) error
}

// ArtifactLoop выгружает изменившиеся снимки артефактов и разбирает
// почтовые ящики журналов и истории печати.
type ArtifactLoop struct {
	interval     time.Duration
	deviceType   string
	deviceNumber string
	logDir       string

	scanner      ArtifactScanner
	objects      interfaces.ObjectStore
	mailboxes    interfaces.Mailboxes
	history      interfaces.HistoryRepository
	consolidator Consolidator
	logger       *logging.Logger

	printData *artifact.Detector[models.PrintDataCatalog]
	recipes   *artifact.Detector[models.RecipeCatalog]
	settings  *artifact.Detector[models.SettingCatalog]

	consolidations sync.WaitGroup
	unsupported    bool
}

func NewArtifactLoop(cfg *config.AppConfig, scanner ArtifactScanner, objects interfaces.ObjectStore, mailboxes interfaces.Mailboxes, history interfaces.HistoryRepository, consolidator Consolidator, logger *logging.Logger) *ArtifactLoop {
	return &ArtifactLoop{
		interval:     cfg.Loops.ArtifactInterval,
		deviceType:   cfg.Device.Type,
		deviceNumber: cfg.Device.Number,
		logDir:       cfg.Paths.LogFolder,
		scanner:      scanner,
		objects:      objects,
		mailboxes:    mailboxes,
		history:      history,
		consolidator: consolidator,
		logger:       logger.WithPrefix("ARTIFACT"),
		printData:    artifact.NewDetector(func(c models.PrintDataCatalog) bool { return len(c) == 0 }),
		recipes:      artifact.NewDetector(models.RecipeCatalog.Empty),
		settings:     artifact.NewDetector(func(c models.SettingCatalog) bool { return len(c) == 0 }),
	}
}

func (l *ArtifactLoop) Name() string            { return "artifact" }
func (l *ArtifactLoop) Interval() time.Duration { return l.interval }

func (l *ArtifactLoop) Tick(ctx context.Context) error {
	var errs []error

	if err := syncSnapshot(ctx, l, l.printData, models.ClassPrintData, models.PrintDataObject, l.scanner.ScanPrintData); err != nil {
		errs = append(errs, err)
	}
	if err := syncSnapshot(ctx, l, l.recipes, models.ClassRecipe, models.RecipeObject, l.scanner.ScanRecipes); err != nil {
		if !errors.Is(err, apperrors.ErrUnsupportedDevice) {
			errs = append(errs, err)
		} else if !l.unsupported {
			l.unsupported = true
			l.logger.Warn("Recipe sync disabled for device type", "type", l.deviceType)
		}
	}
	if err := syncSnapshot(ctx, l, l.settings, models.ClassDeviceSetting, models.DeviceSettingObject, l.scanner.ScanSettings); err != nil {
		errs = append(errs, err)
	}

	if err := l.drainDeviceLogs(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := l.drainHistory(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// syncSnapshot выгружает снимок целиком, если он изменился. Кэш обновляется
// только после успешной выгрузки, поэтому неудача повторится на следующем тике.
func syncSnapshot[T any](ctx context.Context, l *ArtifactLoop, det *artifact.Detector[T], class, object string, scan func() (T, error)) error {
	snapshot, err := scan()
	if err != nil {
		return fmt.Errorf("скан %s: %w", class, err)
	}
	if !det.Changed(snapshot) {
		return nil
	}
	if err := l.objects.PutJSON(ctx, l.key(class, object), snapshot); err != nil {
		return fmt.Errorf("выгрузка %s: %w", class, err)
	}
	det.Commit(snapshot)
	l.logger.Info("Artifact snapshot uploaded", "class", class)
	return nil
}

func (l *ArtifactLoop) drainDeviceLogs(ctx context.Context) error {
	names, err := l.mailboxes.DeviceLog.Drain()
	if err != nil {
		return fmt.Errorf("почтовый ящик device-log: %w", err)
	}
	if len(names) == 0 {
		return nil
	}

	var failed []string
	var errs []error
	for _, name := range names {
		path := filepath.Join(l.logDir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			l.logger.Warn("Queued device log is missing, dropped", "file", name)
			continue
		}
		if err := l.objects.PutFile(ctx, l.key(models.ClassDeviceLog, name), "application/json", path); err != nil {
			failed = append(failed, name)
			errs = append(errs, fmt.Errorf("выгрузка %s: %w", name, err))
			continue
		}
		l.logger.Info("Device log uploaded", "file", name)
	}
	return l.requeue(l.mailboxes.DeviceLog, failed, errs)
}

func (l *ArtifactLoop) drainHistory(ctx context.Context) error {
	names, err := l.mailboxes.PrintHistory.Drain()
	if err != nil {
		return fmt.Errorf("почтовый ящик print-history: %w", err)
	}
	if len(names) == 0 {
		return nil
	}

	var failed []string
	var errs []error
	for _, name := range names {
		rec, err := l.history.LoadArchived(name)
		if errors.Is(err, apperrors.ErrRecordMissing) {
			l.logger.Warn("Queued history record is missing, dropped", "file", name)
			continue
		}
		if err != nil {
			failed = append(failed, name)
			errs = append(errs, err)
			continue
		}
		if err := l.objects.PutJSON(ctx, l.key(models.ClassPrintHistory, name), rec); err != nil {
			failed = append(failed, name)
			errs = append(errs, fmt.Errorf("выгрузка %s: %w", name, err))
			continue
		}
		l.logger.Info("Print history uploaded", "file", name, "result", rec.Database.Result)
		l.consolidate(ctx, rec)
	}
	return l.requeue(l.mailboxes.PrintHistory, failed, errs)
}

// consolidate запускается один раз на запись и не повторяется
func (l *ArtifactLoop) consolidate(ctx context.Context, rec entities.PrintHistory) {
	if l.consolidator == nil {
		return
	}
	l.consolidations.Add(1)
	go func() {
		defer l.consolidations.Done()
		if err := l.consolidator.Consolidate(ctx, rec); err != nil {
			l.logger.Error("Consolidation failed", "name", rec.Name, "error", err)
		}
	}()
}

// Wait ждет завершения запущенных консолидаций
func (l *ArtifactLoop) Wait() {
	l.consolidations.Wait()
}

func (l *ArtifactLoop) requeue(mb interfaces.Mailbox, failed []string, errs []error) error {
	if len(failed) > 0 {
		if err := mb.Requeue(failed); err != nil {
			errs = append(errs, fmt.Errorf("возврат в очередь: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (l *ArtifactLoop) key(class, name string) string {
	return models.ObjectKey(l.deviceType, l.deviceNumber, class, name)
}
