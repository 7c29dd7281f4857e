package artifact

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"
)

var recipeSuffixes = []string{".xml", ".cfg", ".csv"}

// ResinConfigFile - файл со списком смол на DM4K/IML/IMDC/IMD
const ResinConfigFile = "resin.cfg"

// FileRecipes сообщает, хранит ли устройство рецепты отдельными файлами
func FileRecipes(deviceType string) bool {
	return deviceType == "X1" || deviceType == "DM400"
}

// ResinRecipes сообщает, хранит ли устройство рецепты списком в resin.cfg
func ResinRecipes(deviceType string) bool {
	switch deviceType {
	case "DM4K", "IML", "IMDC", "IMD":
		return true
	}
	return false
}

// ScanRecipes строит снимок рецептов в зависимости от типа устройства
func (s *Scanner) ScanRecipes() (models.RecipeCatalog, error) {
	switch {
	case FileRecipes(s.deviceType):
		return s.scanRecipeFiles()
	case ResinRecipes(s.deviceType):
		list, err := s.scanResinList()
		if err != nil {
			return models.RecipeCatalog{}, err
		}
		return models.RecipeCatalog{ResinList: list}, nil
	default:
		return models.RecipeCatalog{}, fmt.Errorf("рецепты %s: %w", s.deviceType, apperrors.ErrUnsupportedDevice)
	}
}

func (s *Scanner) scanRecipeFiles() (models.RecipeCatalog, error) {
	entries, err := os.ReadDir(s.paths.RecipeFolder)
	if err != nil {
		return models.RecipeCatalog{}, fmt.Errorf("чтение папки рецептов: %w", err)
	}

	files := make(map[string]models.RecipeFile)
	for _, e := range entries {
		if !e.Type().IsRegular() || !hasSuffixFold(e.Name(), recipeSuffixes...) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.paths.RecipeFolder, e.Name()))
		if err != nil {
			return models.RecipeCatalog{}, err
		}
		files[e.Name()] = models.RecipeFile{
			Content: base64.StdEncoding.EncodeToString(raw),
			Size:    int64(len(raw)),
			Digest:  digest(raw),
		}
	}
	return models.RecipeCatalog{Files: files}, nil
}

func (s *Scanner) scanResinList() ([]string, error) {
	raw, err := os.ReadFile(filepath.Join(s.paths.RecipeFolder, ResinConfigFile))
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseResinList(raw), nil
}

// ParseResinList разбирает строку ResinList=Name1=..., Name2=... и
// возвращает имена смол.
func ParseResinList(raw []byte) []string {
	resins := []string{}
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "ResinList") {
			continue
		}
		_, value, found := strings.Cut(line, "=")
		if !found {
			break
		}
		for _, item := range strings.Split(value, ",") {
			item = strings.Trim(item, "\"\t\r\n ")
			name, _, _ := strings.Cut(item, "=")
			if name = strings.TrimSpace(name); name != "" {
				resins = append(resins, name)
			}
		}
		break
	}
	return resins
}
