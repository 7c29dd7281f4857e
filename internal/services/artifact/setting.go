package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
)

// ScanSettings разбирает каждый .xml в папке настроек. Неразборчивые файлы пропускаются.
func (s *Scanner) ScanSettings() (models.SettingCatalog, error) {
	entries, err := os.ReadDir(s.paths.SettingFolder)
	if err != nil {
		return nil, fmt.Errorf("чтение папки настроек: %w", err)
	}

	catalog := make(models.SettingCatalog)
	for _, e := range entries {
		if !e.Type().IsRegular() || !hasSuffixFold(e.Name(), ".xml") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.paths.SettingFolder, e.Name()))
		if err != nil {
			return nil, err
		}
		data, err := s.codec.Decode(raw)
		if err != nil {
			s.logger.Debug("Setting file skipped", "file", e.Name(), "error", err)
			continue
		}
		catalog[e.Name()] = data
	}
	return catalog, nil
}
