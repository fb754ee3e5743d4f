package epgdump

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tsutils/internal/deps"
	"tsutils/internal/fileutil"
	"tsutils/internal/logging"
	"tsutils/internal/procexec"
	"tsutils/internal/services"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec procexec.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLocator overrides how the dumper binary is located.
func WithLocator(locator deps.Locator) Option {
	return func(c *Client) {
		if locator != nil {
			c.locator = locator
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "epgdump")
	}
}

// WithChannelsFile names the channel list used to print channel names.
func WithChannelsFile(path string) Option {
	return func(c *Client) {
		c.channelsFile = strings.TrimSpace(path)
	}
}

// WithLocation sets the time zone broadcast times are printed in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.location = loc
		}
	}
}

// Client wraps mirakurun-epgdump.
type Client struct {
	binary       string
	channelsFile string
	location     *time.Location
	exec         procexec.Executor
	locator      deps.Locator
	logger       *slog.Logger
}

// New constructs an EPG dump client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("epgdump binary required")
	}
	client := &Client{
		binary:   binary,
		location: time.Local,
		exec:     procexec.CommandExecutor{},
		locator:  deps.NewCachedLocator(nil),
		logger:   logging.NewComponentLogger(nil, "epgdump"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Dump writes "<name>.epg" (the raw guide, reused when present) and
// "<name>.txt" (the summary of the recorded program) next to path. Both
// take the modification time of the recording.
func (c *Client) Dump(ctx context.Context, path string) (string, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("resolve input: %w", err)
	}
	if !fileutil.IsRegularFile(abs) {
		return "", "", services.NotFound(abs)
	}
	binary, err := deps.Require(c.locator, c.binary)
	if err != nil {
		return "", "", err
	}
	channels, err := LoadChannels(c.channelsFile)
	if err != nil {
		return "", "", services.Wrap(services.ErrConfiguration, "epg", "", "load channel list", err)
	}
	logger := logging.WithContext(ctx, c.logger).With(logging.Input(abs))

	stem := fileutil.StripExt(abs)
	epgPath, txtPath := stem+".epg", stem+".txt"
	if fileutil.IsRegularFile(epgPath) {
		logger.Info("reusing existing epg dump", logging.String("epg_path", epgPath))
	} else if err := c.runDump(ctx, binary, abs, epgPath); err != nil {
		return "", "", err
	}

	data, err := os.ReadFile(epgPath)
	if err != nil {
		return "", "", services.Wrap(services.ErrExternalTool, "epg", filepath.Base(abs), "no epg written", err)
	}
	event, ok, err := SelectEvent(data, filepath.Base(stem))
	if err != nil {
		logger.Debug("epg dump unreadable", logging.Error(err))
		ok = false
	}
	if !ok {
		_ = os.Remove(epgPath)
		return "", "", services.Invalid(abs)
	}

	if err := os.WriteFile(txtPath, []byte(Render(event, channels, c.location)), 0o644); err != nil {
		return "", "", fmt.Errorf("write summary: %w", err)
	}
	for _, out := range []string{epgPath, txtPath} {
		if err := fileutil.CopyModTime(abs, out); err != nil {
			return "", "", fmt.Errorf("copy modification time: %w", err)
		}
	}
	logger.Info("epg dumped",
		logging.String("program", event.Name),
		logging.Int("service_id", event.ServiceID),
		logging.Output(txtPath),
	)
	return epgPath, txtPath, nil
}

func (c *Client) runDump(ctx context.Context, binary, path, epgPath string) error {
	err := c.exec.Run(ctx, binary, []string{path, epgPath}, nil)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		_ = os.Remove(epgPath)
		return ctxErr
	}
	_ = os.Remove(epgPath)
	return services.Wrap(services.ErrExternalTool, "epg", filepath.Base(path), "epgdump failed", err)
}
