package camera

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"
)

// CommandCamera получает JPEG кадр из stdout внешней команды
// (например "libcamera-jpeg -n -o -" или "fswebcam -q -").
type CommandCamera struct {
	args []string
}

// NullCamera используется, когда CAMERA_COMMAND не задан
type NullCamera struct{}

func NewCamera(cfg *config.AppConfig) interfaces.Camera {
	args := strings.Fields(cfg.Camera.Command)
	if len(args) == 0 {
		return NullCamera{}
	}
	return &CommandCamera{args: args}
}

func (c *CommandCamera) Capture(ctx context.Context) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.args[0], c.args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", apperrors.ErrCaptureFailed, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: пустой кадр", apperrors.ErrCaptureFailed)
	}
	return stdout.Bytes(), nil
}

func (c *CommandCamera) Close() error { return nil }

func (NullCamera) Capture(context.Context) ([]byte, error) { return nil, apperrors.ErrNoCamera }
func (NullCamera) Close() error                            { return nil }
