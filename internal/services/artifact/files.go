package artifact

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"

	"github.com/klauspost/compress/zip"
)

// Виды локальных файлов, которыми управляют команды
const (
	KindData    = "data"
	KindRecipe  = "recipe"
	KindSetting = "setting"
)

// FileManager применяет команды к папкам данных, рецептов и настроек
type FileManager struct {
	deviceType string
	paths      config.PathsConfig
	codec      interfaces.Codec
	logger     *logging.Logger
}

func NewFileManager(cfg *config.AppConfig, codec interfaces.Codec, logger *logging.Logger) *FileManager {
	return &FileManager{
		deviceType: cfg.Device.Type,
		paths:      cfg.Paths,
		codec:      codec,
		logger:     logger.WithPrefix("FILES"),
	}
}

func (f *FileManager) folder(kind string) (string, error) {
	switch kind {
	case KindData:
		return f.paths.DataFolder, nil
	case KindRecipe:
		return f.paths.RecipeFolder, nil
	case KindSetting:
		return f.paths.SettingFolder, nil
	}
	return "", fmt.Errorf("вид файла %q: %w", kind, apperrors.ErrInvalidName)
}

// AddPrintData распаковывает base64 zip в <data>/<name без .zip>.
// Если архив содержит одну корневую папку, ее содержимое поднимается на уровень выше.
func (f *FileManager) AddPrintData(name, encoded string) (string, error) {
	target, err := safeJoin(f.paths.DataFolder, strings.TrimSuffix(name, ".zip"))
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("декодирование %s: %w", name, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("открытие архива %s: %w", name, err)
	}

	tmp, err := os.MkdirTemp(f.paths.DataFolder, ".transfer-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmp)

	strip := commonRoot(zr.File)
	for _, zf := range zr.File {
		rel := path.Clean(strings.TrimPrefix(zf.Name, strip))
		if zf.FileInfo().IsDir() || rel == "." || rel == "" {
			continue
		}
		if path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
			return "", fmt.Errorf("запись %q: %w", zf.Name, apperrors.ErrInvalidName)
		}
		if err := extractFile(zf, filepath.Join(tmp, filepath.FromSlash(rel))); err != nil {
			return "", err
		}
	}

	if err := os.RemoveAll(target); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		return "", err
	}
	f.logger.Info("Print data added", "name", filepath.Base(target), "entries", len(zr.File))
	return target, nil
}

// commonRoot возвращает "dir/", если все записи архива лежат в одной папке
func commonRoot(files []*zip.File) string {
	root := ""
	for _, zf := range files {
		first, rest, found := strings.Cut(strings.TrimPrefix(zf.Name, "/"), "/")
		if !found || (rest == "" && !zf.FileInfo().IsDir()) {
			return ""
		}
		if root == "" {
			root = first
		} else if root != first {
			return ""
		}
	}
	if root == "" {
		return ""
	}
	return root + "/"
}

func extractFile(zf *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	src, err := zf.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// AddRecipe сохраняет base64 файл рецепта (только X1/DM400)
func (f *FileManager) AddRecipe(name, encoded string) (string, error) {
	if !FileRecipes(f.deviceType) {
		return "", fmt.Errorf("файл рецепта на %s: %w", f.deviceType, apperrors.ErrUnsupportedDevice)
	}
	target, err := safeJoin(f.paths.RecipeFolder, name)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("декодирование %s: %w", name, err)
	}
	if err := os.WriteFile(target, raw, 0o644); err != nil {
		return "", err
	}
	f.logger.Info("Recipe added", "name", name, "size", len(raw))
	return target, nil
}

// Delete удаляет файл или папку данных/рецепта
func (f *FileManager) Delete(kind, name string) error {
	if kind != KindData && kind != KindRecipe {
		return fmt.Errorf("удаление вида %q: %w", kind, apperrors.ErrInvalidName)
	}
	folder, err := f.folder(kind)
	if err != nil {
		return err
	}
	target, err := safeJoin(folder, name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err != nil {
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		return err
	}
	f.logger.Info("Local file deleted", "kind", kind, "name", name)
	return nil
}

// WriteStructured кодирует данные в XML и пишет в папку рецептов или настроек
func (f *FileManager) WriteStructured(kind, name string, data map[string]any) error {
	if kind != KindRecipe && kind != KindSetting {
		return fmt.Errorf("запись вида %q: %w", kind, apperrors.ErrInvalidName)
	}
	folder, err := f.folder(kind)
	if err != nil {
		return err
	}
	target, err := safeJoin(folder, name)
	if err != nil {
		return err
	}
	raw, err := f.codec.Encode(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, raw, 0o644); err != nil {
		return err
	}
	f.logger.Info("Structured file written", "kind", kind, "name", name)
	return nil
}
