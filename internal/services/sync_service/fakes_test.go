package sync_service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/adapters/repositories/jsonfile"
	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"

	"github.com/stretchr/testify/require"
)

type published struct {
	target []string
	action string
	data   any
}

type fakeTelemetry struct {
	mu   sync.Mutex
	sent []published
	fail map[string]error
}

func (f *fakeTelemetry) Publish(_ context.Context, target []string, action string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[action]; err != nil {
		return err
	}
	f.sent = append(f.sent, published{target: target, action: action, data: data})
	return nil
}

func (f *fakeTelemetry) byAction(action string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []published
	for _, p := range f.sent {
		if p.action == action {
			out = append(out, p)
		}
	}
	return out
}

type fakeObjects struct {
	mu    sync.Mutex
	json  map[string]any
	files map[string]string
	puts  map[string]int
	err   error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{json: map[string]any{}, files: map[string]string{}, puts: map[string]int{}}
}

func (f *fakeObjects) PresignURL(_ context.Context, _, key string) (string, error) {
	return "http://cloud/" + key, f.err
}

func (f *fakeObjects) GetJSON(context.Context, string, any) error {
	return errors.New("not implemented")
}

// putCount - число успешных PutJSON по ключу
func (f *fakeObjects) putCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts[key]
}

func (f *fakeObjects) PutJSON(_ context.Context, key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.json[key] = v
	f.puts[key]++
	return nil
}

func (f *fakeObjects) PutBytes(_ context.Context, key, _ string, _ []byte) error {
	return f.PutJSON(context.Background(), key, nil)
}

func (f *fakeObjects) PutFile(_ context.Context, key, _, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.files[key] = path
	return nil
}

func (f *fakeObjects) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeObjects) hasJSON(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.json[key]
	return ok
}

func newTestConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	root := t.TempDir()
	return &config.AppConfig{
		Device: config.DeviceConfig{Type: "DM400", Number: "7"},
		Paths: config.PathsConfig{
			StateDir:      filepath.Join(root, "state"),
			DataFolder:    filepath.Join(root, "datas"),
			RecipeFolder:  filepath.Join(root, "recipes"),
			SettingFolder: filepath.Join(root, "settings"),
			LogFolder:     filepath.Join(root, "logs"),
			HistoryFolder: filepath.Join(root, "history"),
			CameraFolder:  filepath.Join(root, "camera"),
		},
		Loops: config.LoopsConfig{
			StatusInterval:    time.Second,
			ArtifactInterval:  time.Second,
			CameraInterval:    time.Second,
			ArchiveEveryTicks: 60,
			LogRotateTicks:    3600,
		},
		Camera: config.CameraConfig{
			PrintingInterval: 5 * time.Second,
			PreviewInterval:  10 * time.Second,
			BundleFrames:     30,
		},
	}
}

func newTestRepository(t *testing.T, cfg *config.AppConfig) *jsonfile.Repository {
	t.Helper()
	repo, err := jsonfile.NewRepository(cfg, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, repo.State.Create())
	return repo
}
