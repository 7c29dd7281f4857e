package camera

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCamera(t *testing.T) {
	cam := NewCamera(&config.AppConfig{})
	_, err := cam.Capture(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoCamera)

	frame := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, os.WriteFile(frame, []byte{0xff, 0xd8, 0xff}, 0o644))
	cam = NewCamera(&config.AppConfig{Camera: config.CameraConfig{Command: "cat " + frame}})
	got, err := cam.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, got)
	assert.NoError(t, cam.Close())

	cam = NewCamera(&config.AppConfig{Camera: config.CameraConfig{Command: "cat " + filepath.Join(t.TempDir(), "none.jpg")}})
	_, err = cam.Capture(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCaptureFailed)
	assert.NotErrorIs(t, err, apperrors.ErrNoCamera)
}

func TestFrameStore(t *testing.T) {
	fs := NewFrameStore(t.TempDir())
	base := time.Unix(1700000000, 0)

	for _, offset := range []int{10, 0, 5} {
		_, err := fs.Save("DM400-1-1", base.Add(time.Duration(offset)*time.Second), []byte("jpg"))
		require.NoError(t, err)
	}
	frames, err := fs.Frames("DM400-1-1")
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, "cam-1700000000.jpg", filepath.Base(frames[0]))
	assert.Equal(t, "cam-1700000010.jpg", filepath.Base(frames[2]))

	_, err = fs.Save("../escape", base, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidName)

	require.NoError(t, fs.Remove("DM400-1-1"))
	frames, err = fs.Frames("DM400-1-1")
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestFFmpegArgs(t *testing.T) {
	e := NewFFmpegEncoder(&config.AppConfig{Camera: config.CameraConfig{FFmpegPath: "ffmpeg", TimelapseFPS: 12}})
	args := e.Args("/cam/job", "/tmp/job.mp4")
	assert.Contains(t, args, "/cam/job/cam-*.jpg")
	assert.Contains(t, args, "12")
	assert.Equal(t, "/tmp/job.mp4", args[len(args)-1])

	assert.Error(t, e.Encode(context.Background(), nil, "/tmp/x.mp4"))
}

type uploaded struct {
	key, contentType string
	entries          int
}

type fakeStore struct {
	mu      sync.Mutex
	uploads []uploaded
	failKey string
}

func (f *fakeStore) PresignURL(context.Context, string, string) (string, error) { return "", nil }
func (f *fakeStore) GetJSON(context.Context, string, any) error                 { return nil }
func (f *fakeStore) PutJSON(context.Context, string, any) error                 { return nil }
func (f *fakeStore) PutBytes(context.Context, string, string, []byte) error     { return nil }
func (f *fakeStore) PutFile(_ context.Context, key, contentType, path string) error {
	if key == f.failKey {
		return errors.New("upload failed")
	}
	entries := 0
	if contentType == "application/zip" {
		zr, err := zip.OpenReader(path)
		if err != nil {
			return err
		}
		entries = len(zr.File)
		zr.Close()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, uploaded{key, contentType, entries})
	return nil
}

type fakeEncoder struct{ frames int }

func (e *fakeEncoder) Encode(_ context.Context, frames []string, output string) error {
	e.frames = len(frames)
	return os.WriteFile(output, []byte("mp4"), 0o644)
}

func TestConsolidator(t *testing.T) {
	fs := NewFrameStore(t.TempDir())
	for i := 0; i < 40; i++ {
		_, err := fs.Save("DM400-1-100", time.Unix(int64(1700000000+i), 0), []byte("jpg"))
		require.NoError(t, err)
	}

	store := &fakeStore{}
	enc := &fakeEncoder{}
	cfg := &config.AppConfig{
		Device: config.DeviceConfig{Type: "DM400", Number: "1"},
		Camera: config.CameraConfig{BundleFrames: 30},
	}
	c := NewConsolidator(cfg, fs, enc, store, logging.Nop())

	rec := entities.PrintHistory{Name: "DM400-1-100", Storage: entities.HistoryStorage{CamBundle: entities.Unset}}
	require.NoError(t, c.Consolidate(context.Background(), rec))

	require.Len(t, store.uploads, 2)
	assert.Equal(t, uploaded{"DM400/1/cam-bundle/DM400-1-100.zip", "application/zip", 30}, store.uploads[0])
	assert.Equal(t, "DM400/1/timelapse/DM400-1-100.mp4", store.uploads[1].key)
	assert.Equal(t, 40, enc.frames)
	assert.NoDirExists(t, fs.Dir("DM400-1-100"))
}

func TestConsolidator_NoFramesNoop(t *testing.T) {
	store := &fakeStore{}
	c := NewConsolidator(&config.AppConfig{}, NewFrameStore(t.TempDir()), &fakeEncoder{}, store, logging.Nop())
	require.NoError(t, c.Consolidate(context.Background(), entities.PrintHistory{Name: "job"}))
	assert.Empty(t, store.uploads)
}

func TestConsolidator_FailureKeepsFrames(t *testing.T) {
	fs := NewFrameStore(t.TempDir())
	_, err := fs.Save("job", time.Unix(1, 0), []byte("jpg"))
	require.NoError(t, err)

	store := &fakeStore{failKey: "k/bundle.zip"}
	c := NewConsolidator(&config.AppConfig{}, fs, &fakeEncoder{}, store, logging.Nop())
	err = c.Consolidate(context.Background(), entities.PrintHistory{Name: "job", Storage: entities.HistoryStorage{CamBundle: "k/bundle.zip"}})
	require.Error(t, err)
	assert.DirExists(t, fs.Dir("job"))
}
