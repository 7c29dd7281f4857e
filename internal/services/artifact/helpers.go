package artifact

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"

	"github.com/zeebo/blake3"
)

// digest - hex blake3-256 содержимого
func digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// dirSize считает размер папки рекурсивно
func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// safeJoin присоединяет имя к папке, запрещая выход за ее пределы
func safeJoin(root, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%q: %w", name, apperrors.ErrInvalidName)
	}
	return filepath.Join(root, name), nil
}

func hasSuffixFold(name string, suffixes ...string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
