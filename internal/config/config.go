// internal/config/config.go
//
// Configuration and the Hearthside data directory. Everything the app
// persists (config, logs, journal state, photos, generated audio) lives
// under one directory, ~/.hearthside by default.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultDirName is the data directory created in the user's home.
const DefaultDirName = ".hearthside"

// EnvHome overrides the data directory location.
const EnvHome = "HEARTHSIDE_HOME"

// API key environment variables, checked in order. Both spellings are
// accepted by the Gemini SDK ecosystem.
var apiKeyEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

const defaultConfigYAML = `# hearthside configuration
version: 1

# Gemini model identifiers used by the generation gateway.
models:
  text: gemini-2.5-flash
  image: imagen-3.0-generate-002
  tts: gemini-2.5-flash-preview-tts

# Narration voice and the local command used to play synthesized audio.
# Leave player empty to autodetect (afplay, aplay, ffplay, mpv).
narration:
  voice: Kore
  player: ""

# Optional still-capture command for mission completion photos.
# {path} is replaced with the output file, e.g.:
#   command: fswebcam -r 1280x720 --no-banner {path}
camera:
  command: ""

# Which side of the bilingual content to display: original or english.
language: original
`

// ModelConfig names the Gemini models for each gateway capability.
type ModelConfig struct {
	Text  string `yaml:"text"`
	Image string `yaml:"image"`
	TTS   string `yaml:"tts"`
}

// NarrationConfig controls speech synthesis and playback.
type NarrationConfig struct {
	Voice  string `yaml:"voice"`
	Player string `yaml:"player,omitempty"`
}

// CameraConfig holds the external capture command, with {path} standing in
// for the output file.
type CameraConfig struct {
	Command string `yaml:"command,omitempty"`
}

// FileConfig models config.yaml inside the data directory.
type FileConfig struct {
	Version   int             `yaml:"version"`
	Models    ModelConfig     `yaml:"models"`
	Narration NarrationConfig `yaml:"narration"`
	Camera    CameraConfig    `yaml:"camera"`
	Language  string          `yaml:"language"`
}

// Config holds the runtime configuration for Hearthside.
type Config struct {
	// DataDir is the resolved data directory (HEARTHSIDE_HOME or
	// ~/.hearthside).
	DataDir string

	// APIKey is the Gemini API key pulled from the environment. It is never
	// written to disk.
	APIKey string

	File FileConfig
}

// DataDir resolves the data directory from the environment.
func DataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvHome)); dir != "" {
		return filepath.Clean(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// InitDataDir creates the data directory structure and a commented default
// config on first run. Called on startup before the TUI launches.
func InitDataDir(dataDir string) error {
	dirs := []string{
		filepath.Join(dataDir, "logs"),
		filepath.Join(dataDir, "state"),
		filepath.Join(dataDir, "photos"),
		filepath.Join(dataDir, "audio"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureDefaultConfig(filepath.Join(dataDir, "config.yaml"))
}

// New loads the configuration for the given data directory.
func New(dataDir string) (*Config, error) {
	cfg := &Config{
		DataDir: dataDir,
		APIKey:  apiKeyFromEnv(),
		File:    defaultFileConfig(),
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigPath returns the on-disk location of config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

// LogPath returns the session log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "logs", "session.log")
}

// JournalPath returns the persisted journal snapshot file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, "state", "journal.json")
}

// PhotosDir returns where completion photos are stored.
func (c *Config) PhotosDir() string {
	return filepath.Join(c.DataDir, "photos")
}

// AudioDir returns where narration WAV files are staged for playback.
func (c *Config) AudioDir() string {
	return filepath.Join(c.DataDir, "audio")
}

// Language returns the configured display language.
func (c *Config) Language() string {
	return c.File.Language
}

// SetLanguage updates the display language and persists it.
func (c *Config) SetLanguage(lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang != "original" && lang != "english" {
		return fmt.Errorf("config: language must be 'original' or 'english'")
	}
	c.File.Language = lang
	return c.saveFile()
}

func (c *Config) loadFile() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.File = parsed
	return nil
}

func (c *Config) saveFile() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.File.applyDefaults()
	if err := c.File.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure data dir: %w", err)
	}
	data, err := yaml.Marshal(c.File)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write config: %w", err)
	}
	return nil
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Version: 1,
		Models: ModelConfig{
			Text:  "gemini-2.5-flash",
			Image: "imagen-3.0-generate-002",
			TTS:   "gemini-2.5-flash-preview-tts",
		},
		Narration: NarrationConfig{Voice: "Kore"},
		Language:  "original",
	}
}

func (fc *FileConfig) applyDefaults() {
	defaults := defaultFileConfig()
	if fc.Version == 0 {
		fc.Version = defaults.Version
	}
	if strings.TrimSpace(fc.Models.Text) == "" {
		fc.Models.Text = defaults.Models.Text
	}
	if strings.TrimSpace(fc.Models.Image) == "" {
		fc.Models.Image = defaults.Models.Image
	}
	if strings.TrimSpace(fc.Models.TTS) == "" {
		fc.Models.TTS = defaults.Models.TTS
	}
	if strings.TrimSpace(fc.Narration.Voice) == "" {
		fc.Narration.Voice = defaults.Narration.Voice
	}
	fc.Language = strings.ToLower(strings.TrimSpace(fc.Language))
	if fc.Language == "" {
		fc.Language = defaults.Language
	}
}

func (fc FileConfig) validate() error {
	if fc.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	if fc.Language != "original" && fc.Language != "english" {
		return fmt.Errorf("language must be 'original' or 'english'")
	}
	return nil
}

func apiKeyFromEnv() string {
	for _, name := range apiKeyEnvVars {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return ""
}

func ensureDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
