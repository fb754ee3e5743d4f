package tssplitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"tsutils/internal/deps"
	"tsutils/internal/fileutil"
	"tsutils/internal/logging"
	"tsutils/internal/procexec"
	"tsutils/internal/services"
)

// DefaultTrimThreshold is the size below which a leading or trailing part is
// treated as a fragment of the neighbouring broadcast.
const DefaultTrimThreshold = 10 * 1024 * 1024

// DefaultFlags keep HD and CS services, split on program changes, and drop
// EIT, ECM, EMM, SD and one-segment streams.
var DefaultFlags = []string{"-EIT", "-ECM", "-EMM", "-SD", "-1SEG", "-SEP3", "-SEPA"}

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

// WithLocator overrides how the TsSplitter binary is located.
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
		c.logger = logging.NewComponentLogger(logger, "tssplitter")
	}
}

// WithFlags replaces the TsSplitter command-line flags.
func WithFlags(flags []string) Option {
	return func(c *Client) {
		if len(flags) > 0 {
			c.flags = slices.Clone(flags)
		}
	}
}

// WithTrimThreshold sets the fragment size limit in bytes.
func WithTrimThreshold(bytes int64) Option {
	return func(c *Client) {
		if bytes > 0 {
			c.threshold = bytes
		}
	}
}

// Client wraps TsSplitter CLI interactions.
type Client struct {
	binary    string
	flags     []string
	threshold int64
	exec      procexec.Executor
	locator   deps.Locator
	logger    *slog.Logger
}

// New constructs a TsSplitter client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("tssplitter binary required")
	}
	client := &Client{
		binary:    binary,
		flags:     slices.Clone(DefaultFlags),
		threshold: DefaultTrimThreshold,
		exec:      procexec.CommandExecutor{},
		locator:   deps.NewCachedLocator(nil),
		logger:    logging.NewComponentLogger(nil, "tssplitter"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Split runs TsSplitter on path and returns the HD/CS parts it wrote next to
// the input, sorted by name.
func (c *Client) Split(ctx context.Context, path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve input: %w", err)
	}
	if !fileutil.IsRegularFile(abs) {
		return nil, services.NotFound(abs)
	}
	binary, err := deps.Require(c.locator, c.binary)
	if err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, c.logger).With(logging.Input(abs))

	args := append(slices.Clone(c.flags), abs)
	err = c.exec.Run(ctx, binary, args, func(line string) {
		if line = strings.TrimSpace(line); line != "" {
			logger.Debug("tssplitter output", logging.String("line", line))
		}
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !procexec.IsExitError(err) {
			return nil, services.Wrap(services.ErrExternalTool, "split", filepath.Base(abs), "tssplitter failed", err)
		}
		logger.Debug("tssplitter exited non-zero", logging.Error(err))
	}

	parts, err := splitParts(abs)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, services.Invalid(abs)
	}
	logger.Info("recording split", logging.Int("outputs", len(parts)))
	return parts, nil
}

// splitParts lists "<stem>_*.ts" siblings of path whose stem marks an HD or
// CS service, ordered by stem so "x_HD" precedes "x_HD-1".
func splitParts(path string) ([]string, error) {
	stem := filepath.Base(fileutil.StripExt(path))
	candidates, err := fileutil.SortedEntries(filepath.Dir(path), "*.ts")
	if err != nil {
		return nil, fmt.Errorf("list split parts: %w", err)
	}
	var parts []string
	for _, candidate := range candidates {
		name := filepath.Base(fileutil.StripExt(candidate))
		if !strings.HasPrefix(name, stem+"_") {
			continue
		}
		if strings.Contains(name, "_HD") || strings.Contains(name, "_CS") {
			parts = append(parts, candidate)
		}
	}
	slices.SortFunc(parts, func(a, b string) int {
		return strings.Compare(fileutil.StripExt(a), fileutil.StripExt(b))
	})
	return parts, nil
}

// Trim splits path, drops leading and trailing parts smaller than the trim
// threshold, and concatenates the rest into output. An empty output means
// "<name>_trimmed.ts" next to the input. The parts are deleted afterwards and
// output takes the modification time of the input.
func (c *Client) Trim(ctx context.Context, path, output string) (string, error) {
	parts, err := c.Split(ctx, path)
	if err != nil {
		return "", err
	}
	logger := logging.WithContext(ctx, c.logger).With(logging.Input(path))

	kept, dropped, err := c.trimFragments(parts)
	if err != nil {
		return "", err
	}
	for _, part := range dropped {
		attrs := logging.DecisionAttrs("trim_fragment", "dropped", "smaller than the trim threshold")
		logger.Info("dropping fragment", logging.Args(append(attrs, logging.String("part", filepath.Base(part)))...)...)
		if err := os.Remove(part); err != nil {
			return "", fmt.Errorf("remove fragment: %w", err)
		}
	}
	if len(kept) == 0 {
		logging.ErrorWithContext(logger, "every split part is below the trim threshold", "trim_empty",
			logging.Int("fragments", len(dropped)),
			logging.Int64("threshold_bytes", c.threshold),
			logging.String(logging.FieldErrorHint, "lower splitter.trim_threshold_mib or check the recording"),
		)
		return "", services.Invalid(path)
	}

	if output == "" {
		output = fileutil.StripExt(path) + "_trimmed.ts"
	}
	if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("replace output: %w", err)
	}
	for _, part := range kept {
		if err := ctx.Err(); err != nil {
			_ = os.Remove(output)
			return "", err
		}
		if err := fileutil.AppendFile(output, part); err != nil {
			_ = os.Remove(output)
			return "", fmt.Errorf("concatenate parts: %w", err)
		}
		if err := os.Remove(part); err != nil {
			return "", fmt.Errorf("remove part: %w", err)
		}
	}
	if err := fileutil.CopyModTime(path, output); err != nil {
		return "", fmt.Errorf("copy modification time: %w", err)
	}

	logger.Info("recording trimmed",
		logging.Output(output),
		logging.Int("parts", len(kept)),
		logging.Int("fragments", len(dropped)),
	)
	return output, nil
}

// trimFragments peels undersized parts off both ends, starting at the front.
func (c *Client) trimFragments(parts []string) (kept, dropped []string, err error) {
	kept = parts
	for len(kept) > 0 {
		first, err := fileSize(kept[0])
		if err != nil {
			return nil, nil, err
		}
		if first < c.threshold {
			dropped = append(dropped, kept[0])
			kept = kept[1:]
			continue
		}
		last, err := fileSize(kept[len(kept)-1])
		if err != nil {
			return nil, nil, err
		}
		if last < c.threshold {
			dropped = append(dropped, kept[len(kept)-1])
			kept = kept[:len(kept)-1]
			continue
		}
		break
	}
	return kept, dropped, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat part: %w", err)
	}
	return info.Size(), nil
}
