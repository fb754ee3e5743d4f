package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateSplitter(); err != nil {
		return err
	}
	if err := c.validateSilence(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProbe() error {
	if c.Probe.SeekSeconds < 0 {
		return errors.New("probe.seek_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateExtract() error {
	if !validFrameRate(c.Extract.AreaFPS) {
		return fmt.Errorf("extract.area_fps: %q is not a positive rate such as 2 or 1/2", c.Extract.AreaFPS)
	}
	if strings.ContainsAny(c.Extract.FramePrefix, `/\%`) {
		return fmt.Errorf("extract.frame_prefix: %q must be a plain file name prefix", c.Extract.FramePrefix)
	}
	return nil
}

func (c *Config) validateSplitter() error {
	if c.Splitter.TrimThresholdMiB < 0 {
		return errors.New("splitter.trim_threshold_mib must be zero or positive")
	}
	return nil
}

func (c *Config) validateSilence() error {
	if c.Silence.MinSilenceMS <= 0 {
		return errors.New("silence.min_silence_ms must be positive")
	}
	if c.Silence.ThresholdDB > 0 {
		return errors.New("silence.threshold_db must be zero or negative")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.MaxAttempts < 1 {
		return errors.New("subtitles.max_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

// validFrameRate accepts ffmpeg's fps filter forms "N", "N.M", and "N/D".
func validFrameRate(value string) bool {
	num, den, isFraction := strings.Cut(strings.TrimSpace(value), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n <= 0 {
		return false
	}
	if !isFraction {
		return true
	}
	d, err := strconv.ParseFloat(den, 64)
	return err == nil && d > 0
}
