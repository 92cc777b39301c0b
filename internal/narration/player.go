// internal/narration/player.go
//
// Plays synthesized WAV clips through an external audio player. The clip
// is staged as a temp file under the data dir's audio/ folder and removed
// when playback ends, whatever the outcome.

package narration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kindred-labs/hearthside/internal/logbook"
)

// ErrNoPlayer means no usable playback command was found on this system.
var ErrNoPlayer = errors.New("narration: no audio player available")

// autodetected players, tried in order. Each entry is the argv prefix; the
// WAV path is appended.
var knownPlayers = [][]string{
	{"afplay"},
	{"aplay", "-q"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"mpv", "--no-video", "--really-quiet"},
}

// pathToken marks where the WAV path goes in a configured player command.
const pathToken = "{path}"

// ExecPlayer plays WAV clips by invoking an external command.
type ExecPlayer struct {
	argv     []string
	audioDir string
	log      *logbook.Logbook
}

// NewExecPlayer resolves a playback command. A non-empty configured command
// wins; otherwise the known players are probed on PATH. Returns ErrNoPlayer
// when nothing is usable.
func NewExecPlayer(command, audioDir string, log *logbook.Logbook) (*ExecPlayer, error) {
	argv, err := resolveCommand(command)
	if err != nil {
		return nil, err
	}
	return &ExecPlayer{argv: argv, audioDir: audioDir, log: log}, nil
}

func resolveCommand(command string) ([]string, error) {
	if trimmed := strings.TrimSpace(command); trimmed != "" {
		argv := strings.Fields(trimmed)
		if _, err := exec.LookPath(argv[0]); err != nil {
			return nil, fmt.Errorf("narration: configured player %q: %w", argv[0], err)
		}
		return argv, nil
	}
	for _, candidate := range knownPlayers {
		if _, err := exec.LookPath(candidate[0]); err == nil {
			return candidate, nil
		}
	}
	return nil, ErrNoPlayer
}

// Play stages the clip on disk and blocks until the player exits or the
// context is cancelled. The staged file is always removed.
func (p *ExecPlayer) Play(ctx context.Context, wav []byte) error {
	if err := os.MkdirAll(p.audioDir, 0o755); err != nil {
		return fmt.Errorf("narration: stage dir: %w", err)
	}
	tmp, err := os.CreateTemp(p.audioDir, "clip-*.wav")
	if err != nil {
		return fmt.Errorf("narration: stage clip: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(wav); err != nil {
		tmp.Close()
		return fmt.Errorf("narration: stage clip: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("narration: stage clip: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.argv[0], playerArgs(p.argv[1:], path)...)
	if err := cmd.Run(); err != nil {
		p.log.Warn("playback via %s failed: %v", p.argv[0], err)
		return fmt.Errorf("narration: playback: %w", err)
	}
	return nil
}

// playerArgs substitutes the path token, or appends the path when the
// configured command has no token.
func playerArgs(args []string, path string) []string {
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
