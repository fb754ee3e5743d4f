package caption2ass

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tsutils/internal/deps"
	"tsutils/internal/fileutil"
	"tsutils/internal/logging"
	"tsutils/internal/procexec"
	"tsutils/internal/services"
)

// DefaultMaxAttempts bounds how often the extractor is rerun while an output
// is still missing.
const DefaultMaxAttempts = 2

// Extensions lists the subtitle formats produced, in output order.
var Extensions = []string{".srt", ".ass"}

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

// WithLocator overrides how binaries are located.
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
		c.logger = logging.NewComponentLogger(logger, "caption2ass")
	}
}

// WithLocaleEmulator runs the extractor through the given launcher. An empty
// command runs it directly.
func WithLocaleEmulator(command string) Option {
	return func(c *Client) {
		c.emulator = strings.TrimSpace(command)
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// Client wraps Caption2AssC.
type Client struct {
	binary   string
	emulator string
	attempts int
	exec     procexec.Executor
	locator  deps.Locator
	logger   *slog.Logger
}

// New constructs a caption extractor client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("caption2ass binary required")
	}
	client := &Client{
		binary:   binary,
		attempts: DefaultMaxAttempts,
		exec:     procexec.CommandExecutor{},
		locator:  deps.NewCachedLocator(nil),
		logger:   logging.NewComponentLogger(nil, "caption2ass"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// OutputPaths returns the subtitle files Extract writes for path.
func OutputPaths(path string) []string {
	stem := fileutil.StripExt(path)
	out := make([]string, 0, len(Extensions))
	for _, ext := range Extensions {
		out = append(out, stem+ext)
	}
	return out
}

// Extract writes "<name>.srt" and "<name>.ass" next to path and returns the
// ones that exist and are non-empty. Recordings without captions yield an
// empty list.
func (c *Client) Extract(ctx context.Context, path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve input: %w", err)
	}
	if !fileutil.IsRegularFile(abs) {
		return nil, services.NotFound(abs)
	}
	extractor, err := deps.Require(c.locator, c.binary)
	if err != nil {
		return nil, err
	}
	binary, args := extractor, []string{"-format", "dual", abs}
	if c.emulator != "" {
		launcher, err := deps.Require(c.locator, c.emulator)
		if err != nil {
			return nil, err
		}
		binary, args = launcher, append([]string{extractor}, args...)
	}
	logger := logging.WithContext(ctx, c.logger).With(logging.Input(abs))

	outputs := OutputPaths(abs)
	for _, output := range outputs {
		if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale subtitles: %w", err)
		}
	}

	for attempt := 1; attempt <= c.attempts && !allExist(outputs); attempt++ {
		logger.Debug("running caption extractor", logging.Int("attempt", attempt))
		err := c.exec.Run(ctx, binary, args, nil)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !procexec.IsExitError(err) {
			return nil, services.Wrap(services.ErrExternalTool, "subtitles", filepath.Base(abs), "caption extractor failed", err)
		}
		logger.Debug("caption extractor exited non-zero", logging.Int("attempt", attempt), logging.Error(err))
	}

	var produced []string
	for _, output := range outputs {
		removed, err := fileutil.RemoveIfEmpty(output)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", filepath.Base(output), err)
		}
		if removed {
			logger.Debug("removed empty subtitles", logging.String("output_path", output))
			continue
		}
		if fileutil.IsRegularFile(output) {
			produced = append(produced, output)
		}
	}
	if len(produced) == 0 {
		logger.Info("no captions found")
		return nil, nil
	}
	logger.Info("captions extracted", logging.Int("outputs", len(produced)))
	return produced, nil
}

func allExist(paths []string) bool {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}
