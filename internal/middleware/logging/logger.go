package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Enabled    bool      // Включено ли логирование
	Level      string    // DEBUG, INFO, WARN, ERROR
	LogsDir    string    // Директория для логов
	SavingDays uint      // Сколько дней хранить логи
	Output     io.Writer // Куда писать помимо файла; nil означает stdout
}

type Logger struct {
	config *Config
	base   *logrus.Logger
	file   *os.File
	prefix string
	stop   chan struct{}
	once   *sync.Once
}

func NewLogger(cfg *Config, prefix string) *Logger {
	l := &Logger{
		config: cfg,
		prefix: prefix,
		stop:   make(chan struct{}),
		once:   &sync.Once{},
	}

	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}
	if cfg.Enabled && cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err == nil {
			logFile := filepath.Join(cfg.LogsDir, time.Now().Format("2006-01-02")+".log")
			if file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				l.file = file
				output = io.MultiWriter(output, file)
			}
		}
	}
	if !cfg.Enabled {
		output = io.Discard
	}

	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(parseLevel(cfg.Level))
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.base = base

	if cfg.Enabled && cfg.LogsDir != "" && cfg.SavingDays > 0 {
		go l.cleanOldLogs()
	}

	return l
}

func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := l.prefix
	if newPrefix != "" {
		newPrefix += " "
	}
	newPrefix += "[" + prefix + "]"

	return &Logger{
		config: l.config,
		base:   l.base,
		file:   l.file,
		prefix: newPrefix,
		stop:   l.stop,
		once:   l.once,
	}
}

func (l *Logger) cleanOldLogs() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		l.removeExpired(time.Now())
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
	}
}

func (l *Logger) removeExpired(now time.Time) {
	files, err := os.ReadDir(l.config.LogsDir)
	if err != nil {
		l.Error("Failed to read logs directory", "error", err)
		return
	}

	cutoff := now.AddDate(0, 0, -int(l.config.SavingDays))
	for _, file := range files {
		if info, err := file.Info(); err == nil && !file.IsDir() && info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(l.config.LogsDir, file.Name())); err != nil {
				l.Error("Failed to delete old log file", "file", file.Name(), "error", err)
			}
		}
	}
}

func (l *Logger) log(level logrus.Level, msg string, fields ...interface{}) {
	if !l.config.Enabled || !l.base.IsLevelEnabled(level) {
		return
	}

	entryFields := make(logrus.Fields, len(fields)/2+1)
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		var val interface{} = "?"
		if i+1 < len(fields) {
			val = fields[i+1]
		}
		if err, ok := val.(error); ok {
			val = err.Error()
		}
		entryFields[key] = val
	}

	message := msg
	if l.prefix != "" {
		message = l.prefix + " " + msg
	}
	l.base.WithFields(entryFields).Log(level, message)
}

// ShouldLog сообщает, будет ли записано сообщение указанного уровня
func (l *Logger) ShouldLog(level string) bool {
	if !l.config.Enabled {
		return false
	}
	return l.base.IsLevelEnabled(parseLevel(level))
}

func parseLevel(level string) logrus.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return logrus.DebugLevel
	case "WARN", "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel // INFO по умолчанию
	}
}

func (l *Logger) Debug(msg string, fields ...interface{}) { l.log(logrus.DebugLevel, msg, fields...) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.log(logrus.InfoLevel, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.log(logrus.WarnLevel, msg, fields...) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.log(logrus.ErrorLevel, msg, fields...) }

func (l *Logger) Close() error {
	l.once.Do(func() { close(l.stop) })
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Nop возвращает логгер, который ничего не пишет. Используется в тестах.
func Nop() *Logger {
	return NewLogger(&Config{Enabled: false}, "")
}
