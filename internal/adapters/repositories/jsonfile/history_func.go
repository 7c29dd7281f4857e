package jsonfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"
)

// CurrentHistoryFile - слот текущей записи истории
const CurrentHistoryFile = "current.json"

type HistoryRepository struct {
	mu  sync.Mutex
	dir string
}

func NewHistoryRepository(dir string) *HistoryRepository {
	return &HistoryRepository{dir: dir}
}

var _ interfaces.HistoryRepository = (*HistoryRepository)(nil)

func (r *HistoryRepository) Path(fileName string) string {
	return filepath.Join(r.dir, fileName)
}

// Current возвращает текущую запись или nil, если слот пуст
func (r *HistoryRepository) Current() (*entities.PrintHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := readRecord[entities.PrintHistory](r.Path(CurrentHistoryFile))
	if errors.Is(err, apperrors.ErrRecordMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HistoryRepository) SaveCurrent(h entities.PrintHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeRecord(r.Path(CurrentHistoryFile), h)
}

func (r *HistoryRepository) DeleteCurrent() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return removeRecord(r.Path(CurrentHistoryFile))
}

func (r *HistoryRepository) Archive(h entities.PrintHistory) (string, error) {
	if err := validName(h.FileName()); err != nil || h.FileName() == CurrentHistoryFile {
		return "", fmt.Errorf("архивация %q: %w", h.Name, apperrors.ErrInvalidName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := writeRecord(r.Path(h.FileName()), h); err != nil {
		return "", err
	}
	return h.FileName(), nil
}

func (r *HistoryRepository) LoadArchived(fileName string) (entities.PrintHistory, error) {
	if err := validName(fileName); err != nil {
		return entities.PrintHistory{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return readRecord[entities.PrintHistory](r.Path(fileName))
}

// validName допускает только имя файла без пути
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%q: %w", name, apperrors.ErrInvalidName)
	}
	return nil
}
