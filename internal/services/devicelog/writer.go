package devicelog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
)

const partSuffix = ".part"

// Document - формат выгружаемого файла журнала устройства
type Document struct {
	Device models.DeviceRef  `json:"device"`
	Data   []json.RawMessage `json:"data"`
}

// Writer дописывает снимки состояния в журнал (по строке JSON на тик) и
// по команде ротирует его в готовый к выгрузке файл.
type Writer struct {
	device  models.DeviceRef
	dir     string
	mailbox interfaces.Mailbox
	logger  *logging.Logger
	now     func() time.Time

	mu   sync.Mutex
	part string
}

func NewWriter(cfg *config.AppConfig, mailboxes interfaces.Mailboxes, logger *logging.Logger) *Writer {
	return &Writer{
		device:  models.DeviceRef{Type: cfg.Device.Type, Number: cfg.Device.Number},
		dir:     cfg.Paths.LogFolder,
		mailbox: mailboxes.DeviceLog,
		logger:  logger.WithPrefix("DEVICELOG"),
		now:     time.Now,
	}
}

// Append дописывает снимок в текущий журнал
func (w *Writer) Append(snapshot any) error {
	line, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.part == "" {
		name := fmt.Sprintf("%s-%s-%d.json%s", w.device.Type, w.device.Number, w.now().Unix(), partSuffix)
		w.part = filepath.Join(w.dir, name)
	}
	f, err := os.OpenFile(w.part, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Rotate закрывает текущий журнал и ставит его в очередь выгрузки.
// Возвращает имя готового файла или "", если журнал пуст.
func (w *Writer) Rotate() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.part == "" {
		return "", nil
	}
	name, err := w.finalize(w.part)
	if err != nil {
		return "", err
	}
	w.part = ""
	return name, nil
}

// Recover дооформляет журналы, оставшиеся после прошлого запуска
func (w *Writer) Recover() ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	parts, err := filepath.Glob(filepath.Join(w.dir, "*.json"+partSuffix))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, part := range parts {
		if part == w.part {
			continue
		}
		name, err := w.finalize(part)
		if err != nil {
			return names, err
		}
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		w.logger.Info("Recovered device logs", "count", len(names))
	}
	return names, nil
}

func (w *Writer) finalize(part string) (string, error) {
	raw, err := os.ReadFile(part)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	doc := Document{Device: w.device, Data: []json.RawMessage{}}
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		// недописанная строка после сбоя питания
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		doc.Data = append(doc.Data, append(json.RawMessage{}, line...))
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", err
	}
	final := strings.TrimSuffix(part, partSuffix)
	if err := os.WriteFile(final, out, 0o644); err != nil {
		return "", err
	}
	// .part удаляется только после постановки в очередь: при ошибке
	// следующая ротация соберет тот же файл заново
	name := filepath.Base(final)
	if err := w.mailbox.Append(name); err != nil {
		return "", fmt.Errorf("постановка %s в очередь: %w", name, err)
	}
	if err := os.Remove(part); err != nil {
		return "", err
	}
	w.logger.Info("Device log rotated", "file", name, "entries", len(doc.Data))
	return name, nil
}

// Path возвращает путь к готовому файлу журнала
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}
