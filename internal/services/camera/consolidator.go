package camera

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"

	"github.com/klauspost/compress/zip"
)

// Consolidator после архивации задания выгружает архив последних кадров и
// таймлапс, затем удаляет кадры.
type Consolidator struct {
	deviceType   string
	deviceNumber string
	bundleFrames int
	frames       *FrameStore
	encoder      interfaces.TimelapseEncoder
	store        interfaces.ObjectStore
	logger       *logging.Logger
}

func NewConsolidator(cfg *config.AppConfig, frames *FrameStore, encoder interfaces.TimelapseEncoder, store interfaces.ObjectStore, logger *logging.Logger) *Consolidator {
	n := cfg.Camera.BundleFrames
	if n <= 0 {
		n = 30
	}
	return &Consolidator{
		deviceType:   cfg.Device.Type,
		deviceNumber: cfg.Device.Number,
		bundleFrames: n,
		frames:       frames,
		encoder:      encoder,
		store:        store,
		logger:       logger.WithPrefix("CONSOLIDATE"),
	}
}

func (c *Consolidator) Consolidate(ctx context.Context, rec entities.PrintHistory) error {
	frames, err := c.frames.Frames(rec.Name)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		c.logger.Debug("No frames for job", "name", rec.Name)
		return nil
	}

	tmp, err := os.MkdirTemp("", "consolidate-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	bundle := filepath.Join(tmp, rec.Name+".zip")
	last := frames
	if len(last) > c.bundleFrames {
		last = last[len(last)-c.bundleFrames:]
	}
	if err := writeBundle(bundle, last); err != nil {
		return fmt.Errorf("архив кадров %s: %w", rec.Name, err)
	}
	if err := c.store.PutFile(ctx, c.key(rec.Storage.CamBundle, models.ClassCamBundle, rec.Name+".zip"), "application/zip", bundle); err != nil {
		return err
	}

	video := filepath.Join(tmp, rec.Name+".mp4")
	if err := c.encoder.Encode(ctx, frames, video); err != nil {
		return fmt.Errorf("таймлапс %s: %w", rec.Name, err)
	}
	if err := c.store.PutFile(ctx, c.key(rec.Storage.Timelapse, models.ClassTimelapse, rec.Name+".mp4"), "video/mp4", video); err != nil {
		return err
	}

	if err := c.frames.Remove(rec.Name); err != nil {
		return err
	}
	c.logger.Info("Job frames consolidated", "name", rec.Name, "frames", len(frames), "bundle", len(last))
	return nil
}

func (c *Consolidator) key(stored, class, name string) string {
	if stored != "" && stored != entities.Unset {
		return stored
	}
	return models.ObjectKey(c.deviceType, c.deviceNumber, class, name)
}

func writeBundle(path string, frames []string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)

	for _, frame := range frames {
		if err := addToZip(zw, frame); err != nil {
			zw.Close()
			out.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func addToZip(zw *zip.Writer, file string) error {
	in, err := os.Open(file)
	if err != nil {
		return err
	}
	defer in.Close()

	// JPEG уже сжат
	w, err := zw.CreateHeader(&zip.FileHeader{Name: filepath.Base(file), Method: zip.Store})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
