package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeExtract()
	c.normalizeSplitter()
	if err := c.normalizeEPG(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(strings.TrimSpace(c.Paths.CacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	if value, ok := os.LookupEnv(envFFmpeg); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFmpeg = value
	}
	c.Tools.FFmpeg = fallback(c.Tools.FFmpeg, defaultFFmpeg)
	c.Tools.TsSplitter = fallback(c.Tools.TsSplitter, defaultTsSplitter)
	c.Tools.Caption2Ass = fallback(c.Tools.Caption2Ass, defaultCaption2Ass)
	c.Tools.LocaleEmulator = strings.TrimSpace(c.Tools.LocaleEmulator)
	c.Tools.EPGDump = fallback(c.Tools.EPGDump, defaultEPGDump)
}

func (c *Config) normalizeExtract() {
	c.Extract.AreaFPS = fallback(c.Extract.AreaFPS, defaultAreaFPS)
	c.Extract.FramePrefix = fallback(c.Extract.FramePrefix, defaultFramePrefix)
}

func (c *Config) normalizeSplitter() {
	flags := make([]string, 0, len(c.Splitter.Flags))
	for _, flag := range c.Splitter.Flags {
		if trimmed := strings.TrimSpace(flag); trimmed != "" {
			flags = append(flags, trimmed)
		}
	}
	if len(flags) == 0 {
		flags = append(flags, defaultSplitterFlags...)
	}
	c.Splitter.Flags = flags
}

func (c *Config) normalizeEPG() error {
	if value, ok := os.LookupEnv(envChannelsFile); ok && strings.TrimSpace(value) != "" {
		c.EPG.ChannelsFile = value
	}
	var err error
	if c.EPG.ChannelsFile, err = expandPath(strings.TrimSpace(c.EPG.ChannelsFile)); err != nil {
		return fmt.Errorf("epg.channels_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func fallback(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}
