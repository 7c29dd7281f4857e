package artifact

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
	"github.com/Carima-SSY/AWS-Client/internal/services/codec"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, deviceType string) *config.AppConfig {
	t.Helper()
	root := t.TempDir()
	cfg := &config.AppConfig{
		Device: config.DeviceConfig{Type: deviceType, Number: "1"},
		Paths: config.PathsConfig{
			DataFolder:    filepath.Join(root, "datas"),
			RecipeFolder:  filepath.Join(root, "recipes"),
			SettingFolder: filepath.Join(root, "settings"),
		},
	}
	for _, dir := range []string{cfg.Paths.DataFolder, cfg.Paths.RecipeFolder, cfg.Paths.SettingFolder} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return cfg
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetector_FirstSnapshotAndCoalescing(t *testing.T) {
	d := NewDetector(func(c models.PrintDataCatalog) bool { return len(c) == 0 })

	assert.False(t, d.Check(models.PrintDataCatalog{}), "empty first snapshot is not a change")

	snap := models.PrintDataCatalog{"a.slice": {Size: 10}}
	assert.True(t, d.Check(snap))
	for i := 0; i < 5; i++ {
		assert.False(t, d.Check(models.PrintDataCatalog{"a.slice": {Size: 10}}))
	}

	changed := models.PrintDataCatalog{"a.slice": {Size: 11}}
	assert.True(t, d.Changed(changed))
	assert.True(t, d.Changed(changed), "Changed does not commit")
	d.Commit(changed)
	assert.False(t, d.Changed(changed))

	assert.True(t, d.Check(models.PrintDataCatalog{}), "emptied folder after upload is a change")
}

func TestScanPrintData(t *testing.T) {
	cfg := testConfig(t, "DM400")
	s := NewScanner(cfg, codec.NewXMLCodec(), logging.Nop())

	job := filepath.Join(cfg.Paths.DataFolder, "ring.slice")
	require.NoError(t, os.MkdirAll(filepath.Join(job, "layers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(job, "layers", "0001.png"), make([]byte, 100), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(job, "a_preview_small.png"), []byte("not an image"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(job, "preview.png"), pngBytes(t, 240, 120), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Paths.DataFolder, "notes"), 0o755))

	catalog, err := s.ScanPrintData()
	require.NoError(t, err)
	require.Len(t, catalog, 1)

	entry := catalog["ring.slice"]
	assert.NotEmpty(t, entry.Digest)
	assert.Greater(t, entry.Size, int64(100))

	raw, err := base64.StdEncoding.DecodeString(entry.Preview)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())

	again, err := s.ScanPrintData()
	require.NoError(t, err)
	assert.Equal(t, catalog, again)
}

func TestPickPreview(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "thumb_preview.jpg", "preview_big.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	assert.Equal(t, filepath.Join(dir, "preview_big.png"), pickPreview(dir))

	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "z.bmp"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(other, "c.webp"), nil, 0o644))
	assert.Equal(t, filepath.Join(other, "c.webp"), pickPreview(other))

	assert.Empty(t, pickPreview(t.TempDir()))
}

func TestUndecodablePreview(t *testing.T) {
	cfg := testConfig(t, "DM400")
	s := NewScanner(cfg, codec.NewXMLCodec(), logging.Nop())
	job := filepath.Join(cfg.Paths.DataFolder, "broken.cws")
	require.NoError(t, os.MkdirAll(job, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(job, "preview.png"), []byte("garbage"), 0o644))

	catalog, err := s.ScanPrintData()
	require.NoError(t, err)
	assert.Empty(t, catalog["broken.cws"].Preview)
	assert.NotEmpty(t, catalog["broken.cws"].Digest)
}

func TestScanRecipes_Files(t *testing.T) {
	cfg := testConfig(t, "X1")
	s := NewScanner(cfg, codec.NewXMLCodec(), logging.Nop())
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.RecipeFolder, "grey.xml"), []byte("<r/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.RecipeFolder, "readme.txt"), []byte("x"), 0o644))

	catalog, err := s.ScanRecipes()
	require.NoError(t, err)
	require.Len(t, catalog.Files, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("<r/>")), catalog.Files["grey.xml"].Content)
	assert.Equal(t, int64(4), catalog.Files["grey.xml"].Size)
}

func TestScanRecipes_ResinList(t *testing.T) {
	cfg := testConfig(t, "IML")
	s := NewScanner(cfg, codec.NewXMLCodec(), logging.Nop())

	catalog, err := s.ScanRecipes()
	require.NoError(t, err)
	assert.True(t, catalog.Empty())

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.RecipeFolder, ResinConfigFile),
		[]byte("[Main]\nVersion=3\nResinList=\"Clear=1, Grey=2,\tTough=7\"\n"), 0o644))
	catalog, err = s.ScanRecipes()
	require.NoError(t, err)
	assert.Equal(t, []string{"Clear", "Grey", "Tough"}, catalog.ResinList)
}

func TestScanRecipes_Unsupported(t *testing.T) {
	s := NewScanner(testConfig(t, "Z9"), codec.NewXMLCodec(), logging.Nop())
	_, err := s.ScanRecipes()
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedDevice)
}

func TestScanSettings_SkipsMalformed(t *testing.T) {
	cfg := testConfig(t, "DM400")
	s := NewScanner(cfg, codec.NewXMLCodec(), logging.Nop())
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.SettingFolder, "machine.xml"), []byte("<machine><speed>3</speed></machine>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.SettingFolder, "bad.xml"), []byte("<oops"), 0o644))

	catalog, err := s.ScanSettings()
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Contains(t, catalog["machine.xml"], "machine")
}

func zipBase64(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestFileManager_AddPrintDataFlattens(t *testing.T) {
	cfg := testConfig(t, "DM400")
	fm := NewFileManager(cfg, codec.NewXMLCodec(), logging.Nop())

	target, err := fm.AddPrintData("cube.slice.zip", zipBase64(t, map[string]string{
		"cube.slice/preview.png":     "p",
		"cube.slice/layers/0001.png": "l",
	}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Paths.DataFolder, "cube.slice"), target)
	assert.FileExists(t, filepath.Join(target, "preview.png"))
	assert.FileExists(t, filepath.Join(target, "layers", "0001.png"))

	entries, err := os.ReadDir(cfg.Paths.DataFolder)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp folder must be renamed away")
}

func TestFileManager_AddPrintDataRejectsSlip(t *testing.T) {
	cfg := testConfig(t, "DM400")
	fm := NewFileManager(cfg, codec.NewXMLCodec(), logging.Nop())

	_, err := fm.AddPrintData("evil.zip", zipBase64(t, map[string]string{"../evil.txt": "x", "ok.txt": "y"}))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(cfg.Paths.DataFolder), "evil.txt"))
	assert.NoDirExists(t, filepath.Join(cfg.Paths.DataFolder, "evil"))

	_, err = fm.AddPrintData("../up.zip", zipBase64(t, map[string]string{"a": "b"}))
	assert.ErrorIs(t, err, apperrors.ErrInvalidName)
}

func TestFileManager_RecipeAndDelete(t *testing.T) {
	cfg := testConfig(t, "DM400")
	fm := NewFileManager(cfg, codec.NewXMLCodec(), logging.Nop())

	_, err := fm.AddRecipe("clear.cfg", base64.StdEncoding.EncodeToString([]byte("a=1")))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Paths.RecipeFolder, "clear.cfg"))

	require.NoError(t, fm.Delete(KindRecipe, "clear.cfg"))
	assert.NoFileExists(t, filepath.Join(cfg.Paths.RecipeFolder, "clear.cfg"))

	assert.ErrorIs(t, fm.Delete(KindData, "../recipes"), apperrors.ErrInvalidName)
	assert.Error(t, fm.Delete(KindData, "missing.slice"))

	resin := NewFileManager(testConfig(t, "DM4K"), codec.NewXMLCodec(), logging.Nop())
	_, err = resin.AddRecipe("clear.cfg", "")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedDevice)
}

func TestFileManager_WriteStructured(t *testing.T) {
	cfg := testConfig(t, "DM400")
	fm := NewFileManager(cfg, codec.NewXMLCodec(), logging.Nop())

	require.NoError(t, fm.WriteStructured(KindSetting, "machine.xml", map[string]any{
		"machine": map[string]any{"speed": "4"},
	}))
	raw, err := os.ReadFile(filepath.Join(cfg.Paths.SettingFolder, "machine.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<speed>4</speed>")

	assert.Error(t, fm.WriteStructured(KindData, "x.xml", map[string]any{"a": "b"}))
}
