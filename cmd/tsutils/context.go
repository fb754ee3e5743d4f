package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tsutils/internal/config"
	"tsutils/internal/deps"
	"tsutils/internal/logging"
	"tsutils/internal/probecache"
	"tsutils/internal/procexec"
	"tsutils/internal/services"
	"tsutils/internal/services/caption2ass"
	"tsutils/internal/services/epgdump"
	"tsutils/internal/services/ffmpeg"
	"tsutils/internal/services/tssplitter"
)

type commandContext struct {
	configFlag string
	quiet      bool
	jsonOutput bool

	// executor and locator are replaced in tests.
	executor procexec.Executor
	locator  deps.Locator

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	cache *probecache.Store
}

func newCommandContext() *commandContext {
	return &commandContext{
		executor: procexec.CommandExecutor{},
		locator:  deps.NewCachedLocator(nil),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = fmt.Errorf("%w: %w", services.ErrConfiguration, err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = fmt.Errorf("%w: %w", services.ErrConfiguration, err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("%w: %w", services.ErrConfiguration, err)
			return
		}
		if c.quiet {
			logger = logging.WithLevelOverride(logger, slog.LevelWarn)
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// begin tags the command's context with the operation name and a fresh
// request ID.
func (c *commandContext) begin(cmd *cobra.Command, operation string) (context.Context, *slog.Logger, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithOperation(ctx, operation)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	return ctx, logger, nil
}

func (c *commandContext) probeCache(logger *slog.Logger) *probecache.Store {
	if c.cache != nil || c.config == nil || !c.config.Probe.CacheEnabled {
		return c.cache
	}
	store, err := probecache.Open(c.config.ProbeCachePath())
	if err != nil {
		logging.WarnWithContext(logger, "probe cache unavailable", "probe_cache_open",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache_dir permissions or set probe.cache_enabled = false"),
			logging.String(logging.FieldImpact, "recordings are probed without caching"),
		)
		return nil
	}
	c.cache = store
	return store
}

func (c *commandContext) ffmpegClient(logger *slog.Logger) (*ffmpeg.Client, error) {
	cfg := c.config
	opts := []ffmpeg.Option{
		ffmpeg.WithExecutor(c.executor),
		ffmpeg.WithLocator(c.locator),
		ffmpeg.WithLogger(logger),
		ffmpeg.WithProbeSeek(cfg.Probe.SeekSeconds),
		ffmpeg.WithFramePrefix(cfg.Extract.FramePrefix),
		ffmpeg.WithLockDir(cfg.LockDir()),
	}
	if store := c.probeCache(logger); store != nil {
		opts = append(opts, ffmpeg.WithCache(store))
	}
	return ffmpeg.New(cfg.Tools.FFmpeg, opts...)
}

func (c *commandContext) splitterClient(logger *slog.Logger) (*tssplitter.Client, error) {
	cfg := c.config
	return tssplitter.New(cfg.Tools.TsSplitter,
		tssplitter.WithExecutor(c.executor),
		tssplitter.WithLocator(c.locator),
		tssplitter.WithLogger(logger),
		tssplitter.WithFlags(cfg.Splitter.Flags),
		tssplitter.WithTrimThreshold(cfg.TrimThresholdBytes()),
	)
}

func (c *commandContext) captionClient(logger *slog.Logger) (*caption2ass.Client, error) {
	cfg := c.config
	opts := []caption2ass.Option{
		caption2ass.WithExecutor(c.executor),
		caption2ass.WithLocator(c.locator),
		caption2ass.WithLogger(logger),
		caption2ass.WithMaxAttempts(cfg.Subtitles.MaxAttempts),
	}
	if cfg.Subtitles.UseLocaleEmulator {
		opts = append(opts, caption2ass.WithLocaleEmulator(cfg.Tools.LocaleEmulator))
	}
	return caption2ass.New(cfg.Tools.Caption2Ass, opts...)
}

func (c *commandContext) epgClient(logger *slog.Logger) (*epgdump.Client, error) {
	cfg := c.config
	return epgdump.New(cfg.Tools.EPGDump,
		epgdump.WithExecutor(c.executor),
		epgdump.WithLocator(c.locator),
		epgdump.WithLogger(logger),
		epgdump.WithChannelsFile(cfg.EPG.ChannelsFile),
	)
}

// withFFmpeg runs fn with an ffmpeg client for operation and closes the
// probe cache afterwards.
func (c *commandContext) withFFmpeg(cmd *cobra.Command, operation string, fn func(context.Context, *slog.Logger, *ffmpeg.Client) error) error {
	ctx, logger, err := c.begin(cmd, operation)
	if err != nil {
		return err
	}
	client, err := c.ffmpegClient(logger)
	if err != nil {
		return err
	}
	defer c.closeCache(logger)
	return fn(ctx, logger, client)
}

func (c *commandContext) closeCache(logger *slog.Logger) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Close(); err != nil {
		logger.Debug("probe cache close failed", logging.Error(err))
	}
	c.cache = nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
