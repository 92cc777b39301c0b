// internal/camera/camera.go
//
// Captures the mission completion photo through an external command, the
// same way narration playback shells out. Capture is strictly optional:
// any failure surfaces as ErrUnavailable and the mission completes
// without a photo.

package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kindred-labs/hearthside/internal/logbook"
)

// ErrUnavailable means no photo could be captured on this system.
var ErrUnavailable = errors.New("camera: capture unavailable")

// pathToken marks where the output file goes in the capture command.
const pathToken = "{path}"

// autodetected capture commands, tried in order.
var knownCameras = [][]string{
	{"imagesnap", "-q", pathToken},
	{"fswebcam", "--no-banner", "-q", pathToken},
	{"ffmpeg", "-loglevel", "quiet", "-f", "v4l2", "-i", "/dev/video0", "-frames:v", "1", pathToken},
}

// Camera shells out to capture a still image into the photos directory.
type Camera struct {
	argv      []string
	photosDir string
	log       *logbook.Logbook
	now       func() time.Time
}

// New resolves a capture command. A non-empty configured command wins;
// otherwise the known tools are probed on PATH. Returns ErrUnavailable
// when nothing is usable, so the caller can hide the photo affordance.
func New(command, photosDir string, log *logbook.Logbook) (*Camera, error) {
	argv, err := resolveCommand(command)
	if err != nil {
		return nil, err
	}
	return &Camera{argv: argv, photosDir: photosDir, log: log, now: time.Now}, nil
}

func resolveCommand(command string) ([]string, error) {
	if trimmed := strings.TrimSpace(command); trimmed != "" {
		argv := strings.Fields(trimmed)
		if _, err := exec.LookPath(argv[0]); err != nil {
			return nil, fmt.Errorf("camera: configured command %q: %w", argv[0], ErrUnavailable)
		}
		return argv, nil
	}
	for _, candidate := range knownCameras {
		if _, err := exec.LookPath(candidate[0]); err == nil {
			return candidate, nil
		}
	}
	return nil, ErrUnavailable
}

// Capture takes one photo and returns its path. A failed or interrupted
// capture removes any partial file and reports ErrUnavailable.
func (c *Camera) Capture(ctx context.Context) (string, error) {
	if err := os.MkdirAll(c.photosDir, 0o755); err != nil {
		return "", fmt.Errorf("camera: photos dir: %w", ErrUnavailable)
	}
	path := filepath.Join(c.photosDir, fmt.Sprintf("mission-%s.jpg", c.now().Format("20060102-150405")))

	cmd := exec.CommandContext(ctx, c.argv[0], captureArgs(c.argv[1:], path)...)
	if err := cmd.Run(); err != nil {
		os.Remove(path)
		c.log.Warn("capture via %s failed: %v", c.argv[0], err)
		return "", fmt.Errorf("camera: %s: %w", c.argv[0], ErrUnavailable)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		os.Remove(path)
		return "", fmt.Errorf("camera: empty capture: %w", ErrUnavailable)
	}
	return path, nil
}

func captureArgs(args []string, path string) []string {
	out := make([]string, 0, len(args)+1)
	replaced := false
	for _, arg := range args {
		if strings.Contains(arg, pathToken) {
			arg = strings.ReplaceAll(arg, pathToken, path)
			replaced = true
		}
		out = append(out, arg)
	}
	if !replaced {
		out = append(out, path)
	}
	return out
}
