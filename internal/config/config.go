package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directories tsutils writes to outside of the recording tree.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// Tools names the external executables. Bare names are resolved on $PATH.
type Tools struct {
	FFmpeg         string `toml:"ffmpeg"`
	TsSplitter     string `toml:"ts_splitter"`
	Caption2Ass    string `toml:"caption2ass"`
	LocaleEmulator string `toml:"locale_emulator"`
	EPGDump        string `toml:"epgdump"`
}

// Probe contains settings for media probing.
type Probe struct {
	// SeekSeconds skips the start of a recording before probing, where
	// broadcast streams often carry a different program layout.
	SeekSeconds  float64 `toml:"seek_seconds"`
	CacheEnabled bool    `toml:"cache_enabled"`
}

// Extract contains defaults for frame and area extraction.
type Extract struct {
	AreaFPS     string `toml:"area_fps"`
	FramePrefix string `toml:"frame_prefix"`
}

// Splitter contains TsSplitter settings.
type Splitter struct {
	TrimThresholdMiB int      `toml:"trim_threshold_mib"`
	Flags            []string `toml:"flags"`
}

// Silence contains silencedetect defaults.
type Silence struct {
	MinSilenceMS int     `toml:"min_silence_ms"`
	ThresholdDB  float64 `toml:"threshold_db"`
}

// Subtitles contains caption extraction settings.
type Subtitles struct {
	MaxAttempts       int  `toml:"max_attempts"`
	UseLocaleEmulator bool `toml:"use_locale_emulator"`
}

// EPG contains program guide settings.
type EPG struct {
	ChannelsFile string `toml:"channels_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for tsutils.
//
// Configuration sections by subsystem:
//   - Paths: log and cache directories
//   - Tools: external executables
//   - Probe: ffmpeg probe seek and cache
//   - Extract, Silence: ffmpeg extraction defaults
//   - Splitter, Subtitles, EPG: recording post-processing
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tools     Tools     `toml:"tools"`
	Probe     Probe     `toml:"probe"`
	Extract   Extract   `toml:"extract"`
	Splitter  Splitter  `toml:"splitter"`
	Silence   Silence   `toml:"silence"`
	Subtitles Subtitles `toml:"subtitles"`
	EPG       EPG       `toml:"epg"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strict.String()))
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tsutils.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and cache directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockDir returns the directory holding output-directory lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.CacheDir, "locks")
}

// ProbeCachePath returns the sqlite database used to memoize probe results.
func (c *Config) ProbeCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "probe.db")
}

// TrimThresholdBytes returns the splitter trim threshold in bytes.
func (c *Config) TrimThresholdBytes() int64 {
	return int64(c.Splitter.TrimThresholdMiB) * 1024 * 1024
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "tsutils")
	}
	return "~/.cache/tsutils"
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
