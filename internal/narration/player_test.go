package narration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestPlayerArgsSubstitutesToken(t *testing.T) {
	got := playerArgs([]string{"--file", "{path}", "--quiet"}, "/tmp/a.wav")
	if got[1] != "/tmp/a.wav" {
		t.Fatalf("token not substituted: %v", got)
	}
	if len(got) != 3 {
		t.Fatalf("path must not be appended when the token is present: %v", got)
	}
}

func TestPlayerArgsAppendsWithoutToken(t *testing.T) {
	got := playerArgs([]string{"-q"}, "/tmp/a.wav")
	if len(got) != 2 || got[1] != "/tmp/a.wav" {
		t.Fatalf("path must be appended: %v", got)
	}
}

func TestResolveCommandRejectsMissingBinary(t *testing.T) {
	if _, err := resolveCommand("no-such-player-xyz --flag"); err == nil {
		t.Fatalf("expected lookup failure")
	}
}

func TestResolveCommandUsesConfiguredBinary(t *testing.T) {
	argv, err := resolveCommand("true --ignored")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if argv[0] != "true" {
		t.Fatalf("unexpected argv: %v", argv)
	}
}

func TestPlayStagesAndCleansUpClip(t *testing.T) {
	dir := t.TempDir()
	audioDir := filepath.Join(dir, "audio")
	player := &ExecPlayer{argv: []string{"true"}, audioDir: audioDir}

	if err := player.Play(context.Background(), []byte("RIFF....WAVE")); err != nil {
		t.Fatalf("play: %v", err)
	}
	entries, err := os.ReadDir(audioDir)
	if err != nil {
		t.Fatalf("read audio dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("staged clip must be removed, found %d entries", len(entries))
	}
}

func TestPlayReportsCommandFailure(t *testing.T) {
	player := &ExecPlayer{argv: []string{"false"}, audioDir: t.TempDir()}
	if err := player.Play(context.Background(), []byte("data")); err == nil {
		t.Fatalf("expected playback failure")
	}
}
