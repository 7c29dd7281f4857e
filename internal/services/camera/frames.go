package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"
)

const framePattern = "cam-*.jpg"

// FrameStore хранит кадры задания в <camera>/<имя задания>/
type FrameStore struct {
	root string
}

func NewFrameStore(root string) *FrameStore {
	return &FrameStore{root: root}
}

func (s *FrameStore) jobDir(job string) (string, error) {
	if job == "" || job == "." || job == ".." || filepath.Base(job) != job {
		return "", fmt.Errorf("задание %q: %w", job, apperrors.ErrInvalidName)
	}
	return filepath.Join(s.root, job), nil
}

// Save пишет кадр cam-<unix>.jpg. Кадр с тем же временем перезаписывается.
func (s *FrameStore) Save(job string, at time.Time, jpeg []byte) (string, error) {
	dir, err := s.jobDir(job)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("cam-%d.jpg", at.Unix()))
	if err := os.WriteFile(path, jpeg, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Frames возвращает кадры задания по возрастанию времени
func (s *FrameStore) Frames(job string) ([]string, error) {
	dir, err := s.jobDir(job)
	if err != nil {
		return nil, err
	}
	frames, err := filepath.Glob(filepath.Join(dir, framePattern))
	if err != nil {
		return nil, err
	}
	// имена одной длины до 2286 года, лексикографический порядок совпадает с временным
	sort.Strings(frames)
	return frames, nil
}

// Remove удаляет папку кадров задания
func (s *FrameStore) Remove(job string) error {
	dir, err := s.jobDir(job)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// Dir возвращает папку кадров задания
func (s *FrameStore) Dir(job string) string {
	return filepath.Join(s.root, job)
}
