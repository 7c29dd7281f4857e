package artifact

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Carima-SSY/AWS-Client/internal/domain/models"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	sliceSuffixes = []string{".slice", ".crmaslice", ".cws", ".cmz"}
	imageSuffixes = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp"}
)

const (
	previewWidth   = 120
	previewQuality = 80
)

// ScanPrintData строит каталог папок печатных данных
func (s *Scanner) ScanPrintData() (models.PrintDataCatalog, error) {
	entries, err := os.ReadDir(s.paths.DataFolder)
	if err != nil {
		return nil, fmt.Errorf("чтение папки данных: %w", err)
	}

	catalog := make(models.PrintDataCatalog)
	for _, e := range entries {
		if !e.IsDir() || !hasSuffixFold(e.Name(), sliceSuffixes...) {
			continue
		}
		folder := filepath.Join(s.paths.DataFolder, e.Name())

		size, err := dirSize(folder)
		if err != nil {
			return nil, fmt.Errorf("размер %s: %w", e.Name(), err)
		}
		entry := models.PrintDataEntry{Size: size}

		if preview := pickPreview(folder); preview != "" {
			raw, err := os.ReadFile(preview)
			if err != nil {
				return nil, fmt.Errorf("чтение превью %s: %w", preview, err)
			}
			entry.Digest = digest(raw)
			if encoded, err := encodePreview(raw, previewWidth); err == nil {
				entry.Preview = encoded
			} else {
				s.logger.Debug("Preview is not decodable", "folder", e.Name(), "error", err)
			}
		}
		catalog[e.Name()] = entry
	}
	return catalog, nil
}

// pickPreview выбирает картинку превью: "preview.*", затем "preview*",
// затем "*preview*", иначе первая картинка по имени.
func pickPreview(folder string) string {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return ""
	}

	var images []string
	for _, e := range entries {
		if e.Type().IsRegular() && hasSuffixFold(e.Name(), imageSuffixes...) {
			images = append(images, e.Name())
		}
	}
	if len(images) == 0 {
		return ""
	}
	sort.Strings(images)

	best, bestScore := images[0], 3
	for _, name := range images {
		stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		score := 3
		switch {
		case stem == "preview":
			score = 0
		case strings.HasPrefix(stem, "preview"):
			score = 1
		case strings.Contains(stem, "preview"):
			score = 2
		}
		if score < bestScore {
			best, bestScore = name, score
		}
	}
	return filepath.Join(folder, best)
}

// encodePreview уменьшает картинку до width по ширине и кодирует в base64 JPEG
func encodePreview(raw []byte, width int) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return "", fmt.Errorf("пустое изображение")
	}

	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: previewQuality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
