package history

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"
)

// EventKind - результат одного наблюдения статуса
type EventKind int

const (
	EventNone EventKind = iota
	EventStarted
	EventArchived
	EventDiscarded
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventArchived:
		return "archived"
	case EventDiscarded:
		return "discarded"
	default:
		return "none"
	}
}

// Event описывает переход жизненного цикла задания
type Event struct {
	Kind     EventKind
	From     entities.DeviceState
	To       entities.DeviceState
	Record   entities.PrintHistory
	FileName string // имя архивного файла для EventArchived
}

type Config struct {
	DeviceType         string
	DeviceNumber       string
	ArchiveInterrupted bool
	Now                func() time.Time
}

// Machine ведет запись истории текущего задания по опрашиваемому статусу.
// Observe можно вызывать каждый тик: переходы выводятся из сохраненной записи,
// поэтому повторные вызовы в одном состоянии ничего не меняют.
type Machine struct {
	cfg     Config
	store   interfaces.StateStore
	history interfaces.HistoryRepository
	mailbox interfaces.Mailbox
	logger  *logging.Logger

	mu   sync.Mutex
	last entities.DeviceState
}

func NewMachine(cfg Config, store interfaces.StateStore, history interfaces.HistoryRepository, mailbox interfaces.Mailbox, logger *logging.Logger) *Machine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Machine{
		cfg:     cfg,
		store:   store,
		history: history,
		mailbox: mailbox,
		logger:  logger.WithPrefix("HISTORY"),
	}
}

// Last возвращает последний наблюдавшийся статус
func (m *Machine) Last() entities.DeviceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Machine) Observe(state entities.DeviceState) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev := Event{Kind: EventNone, From: m.last, To: state}
	current, err := m.history.Current()
	if err != nil {
		return ev, fmt.Errorf("чтение текущей записи истории: %w", err)
	}

	switch {
	case state == entities.StatePrinting:
		if current == nil {
			rec, err := m.start()
			if err != nil {
				return ev, err
			}
			ev.Kind, ev.Record = EventStarted, rec
		}

	case state == entities.StatePrintingPause:
		// пауза внутри задания

	case state.Terminal():
		if current != nil {
			if !current.Finished() {
				current.Database.Result = string(state)
				current.Database.Time.End = entities.Timestamp(m.cfg.Now().Unix())
			}
			file, err := m.archive(*current)
			if err != nil {
				return ev, err
			}
			ev.Kind, ev.Record, ev.FileName = EventArchived, *current, file
		}

	default:
		if current != nil {
			switch {
			case current.Finished():
				// результат записан, но архивация в прошлый раз не завершилась
				file, err := m.archive(*current)
				if err != nil {
					return ev, err
				}
				ev.Kind, ev.Record, ev.FileName = EventArchived, *current, file
			case m.cfg.ArchiveInterrupted:
				current.Database.Result = entities.ResultInterrupted
				current.Database.Time.End = entities.Timestamp(m.cfg.Now().Unix())
				file, err := m.archive(*current)
				if err != nil {
					return ev, err
				}
				ev.Kind, ev.Record, ev.FileName = EventArchived, *current, file
			default:
				if err := m.history.DeleteCurrent(); err != nil {
					return ev, fmt.Errorf("удаление прерванной записи: %w", err)
				}
				m.logger.Warn("Interrupted print job discarded", "name", current.Name, "status", state)
				ev.Kind, ev.Record = EventDiscarded, *current
			}
		}
	}

	m.last = state
	return ev, nil
}

func (m *Machine) start() (entities.PrintHistory, error) {
	ps, err := m.store.GetPrintStatus()
	if err != nil {
		return entities.PrintHistory{}, fmt.Errorf("чтение print-status: %w", err)
	}

	now := m.cfg.Now().Unix()
	name, err := m.uniqueName(fmt.Sprintf("%s-%s-%d", m.cfg.DeviceType, m.cfg.DeviceNumber, now))
	if err != nil {
		return entities.PrintHistory{}, err
	}
	data := append([]string{}, ps.Data...)

	keys := make([]string, 0, len(data))
	for _, d := range data {
		keys = append(keys, m.key(models.ClassPrintData, d))
	}
	recipeKey := entities.Unset
	if ps.Recipe != "" && ps.Recipe != entities.Unset {
		recipeKey = m.key(models.ClassRecipe, ps.Recipe)
	}

	rec := entities.PrintHistory{
		Name: name,
		Database: entities.HistoryDatabase{
			User:   ps.User,
			Print:  entities.HistoryPrint{Data: data, Recipe: ps.Recipe},
			Time:   entities.HistoryTime{Start: entities.Timestamp(now)},
			Result: entities.Unset,
		},
		Storage: entities.HistoryStorage{
			Data:      keys,
			Recipe:    recipeKey,
			Slices:    data,
			CamBundle: m.key(models.ClassCamBundle, name+".zip"),
			Timelapse: m.key(models.ClassTimelapse, name+".mp4"),
		},
	}
	if err := m.history.SaveCurrent(rec); err != nil {
		return entities.PrintHistory{}, fmt.Errorf("сохранение текущей записи: %w", err)
	}
	m.logger.Info("Print job started", "name", name, "user", ps.User, "recipe", ps.Recipe)
	return rec, nil
}

// archive сохраняет результат в слот, пишет архивный файл, ставит его в
// почтовый ящик и освобождает слот. Порядок шагов позволяет продолжить
// после сбоя на любом из них.
func (m *Machine) archive(rec entities.PrintHistory) (string, error) {
	if err := m.history.SaveCurrent(rec); err != nil {
		return "", fmt.Errorf("сохранение результата: %w", err)
	}
	file, err := m.history.Archive(rec)
	if err != nil {
		return "", fmt.Errorf("архивация %s: %w", rec.Name, err)
	}
	if err := m.mailbox.Append(file); err != nil {
		return "", fmt.Errorf("постановка %s в очередь: %w", file, err)
	}
	if err := m.history.DeleteCurrent(); err != nil {
		return "", fmt.Errorf("очистка текущей записи: %w", err)
	}
	m.logger.Info("Print job archived", "name", rec.Name, "result", rec.Database.Result)
	return file, nil
}

const maxNameSuffix = 100

// uniqueName добавляет к имени суффикс, если задание с таким именем уже
// архивировано в эту же секунду
func (m *Machine) uniqueName(base string) (string, error) {
	name := base
	for i := 1; ; i++ {
		_, err := m.history.LoadArchived(name + ".json")
		if errors.Is(err, apperrors.ErrRecordMissing) {
			return name, nil
		}
		if i > maxNameSuffix {
			return "", fmt.Errorf("нет свободного имени для %s", base)
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
}

func (m *Machine) key(class, name string) string {
	return models.ObjectKey(m.cfg.DeviceType, m.cfg.DeviceNumber, class, name)
}
