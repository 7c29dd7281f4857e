package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"
)

// readRecord читает JSON-запись; отсутствие файла - ErrRecordMissing
func readRecord[T any](path string) (T, error) {
	var out T
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, fmt.Errorf("%s: %w", filepath.Base(path), apperrors.ErrRecordMissing)
		}
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("повреждена запись %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// writeRecord заменяет файл целиком через временный файл и rename,
// поэтому читатель видит либо старую, либо новую версию.
func writeRecord(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func removeRecord(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
