package jsonfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
)

// Имена почтовых ящиков внутри папок классов
const MailboxFile = "update-list.json"

type Repository struct {
	State     interfaces.StateStore
	History   interfaces.HistoryRepository
	Mailboxes interfaces.Mailboxes
}

func NewRepository(cfg *config.AppConfig, appLogger *logging.Logger) (*Repository, error) {
	for _, dir := range []string{
		cfg.Paths.StateDir,
		cfg.Paths.DataFolder,
		cfg.Paths.RecipeFolder,
		cfg.Paths.SettingFolder,
		cfg.Paths.LogFolder,
		cfg.Paths.HistoryFolder,
		cfg.Paths.CameraFolder,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать папку %s: %w", dir, err)
		}
	}

	appLogger.Info("State directory prepared", "dir", cfg.Paths.StateDir)

	return &Repository{
		State:   NewStateStore(cfg.Paths.StateDir),
		History: NewHistoryRepository(cfg.Paths.HistoryFolder),
		Mailboxes: interfaces.Mailboxes{
			DeviceLog:    NewMailbox(filepath.Join(cfg.Paths.LogFolder, MailboxFile)),
			PrintHistory: NewMailbox(filepath.Join(cfg.Paths.HistoryFolder, MailboxFile)),
		},
	}, nil
}
