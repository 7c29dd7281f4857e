package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
)

// FFmpegEncoder собирает MP4 из кадров внешним ffmpeg
type FFmpegEncoder struct {
	binary string
	fps    int
}

var _ interfaces.TimelapseEncoder = (*FFmpegEncoder)(nil)

func NewFFmpegEncoder(cfg *config.AppConfig) *FFmpegEncoder {
	fps := cfg.Camera.TimelapseFPS
	if fps <= 0 {
		fps = 10
	}
	return &FFmpegEncoder{binary: cfg.Camera.FFmpegPath, fps: fps}
}

// Args возвращает аргументы ffmpeg для папки кадров
func (e *FFmpegEncoder) Args(frameDir, output string) []string {
	return []string{
		"-y", "-loglevel", "error",
		"-framerate", strconv.Itoa(e.fps),
		"-pattern_type", "glob",
		"-i", filepath.Join(frameDir, framePattern),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		output,
	}
}

func (e *FFmpegEncoder) Encode(ctx context.Context, frames []string, output string) error {
	if len(frames) == 0 {
		return errors.New("нет кадров для таймлапса")
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, e.Args(filepath.Dir(frames[0]), output)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
