package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tsutils/internal/deps"
	"tsutils/internal/fileutil"
	"tsutils/internal/logging"
	"tsutils/internal/media/ffdiag"
	"tsutils/internal/probecache"
	"tsutils/internal/procexec"
	"tsutils/internal/services"
)

// DefaultProbeSeek skips the start of a recording before probing. Broadcast
// recordings often begin inside the previous program; seeking past the end of
// a short file is harmless.
const DefaultProbeSeek = 30.0

// Cache memoizes probe results between runs.
type Cache interface {
	Get(ctx context.Context, key probecache.Key) (ffdiag.MediaInfo, bool, error)
	Put(ctx context.Context, key probecache.Key, info ffdiag.MediaInfo) error
}

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

// WithLocator overrides how the ffmpeg binary is located.
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
		c.logger = logging.NewComponentLogger(logger, "ffmpeg")
	}
}

// WithCache enables read-through caching of probe results.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithProbeSeek overrides the probe seek in seconds.
func WithProbeSeek(seconds float64) Option {
	return func(c *Client) {
		if seconds >= 0 {
			c.probeSeek = seconds
		}
	}
}

// WithFramePrefix sets the file name prefix of extracted bitmaps.
func WithFramePrefix(prefix string) Option {
	return func(c *Client) {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			c.framePrefix = prefix
		}
	}
}

// WithLockDir sets where output-directory lock files are kept.
func WithLockDir(dir string) Option {
	return func(c *Client) {
		c.lockDir = strings.TrimSpace(dir)
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary      string
	exec        procexec.Executor
	locator     deps.Locator
	logger      *slog.Logger
	cache       Cache
	probeSeek   float64
	framePrefix string
	lockDir     string
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary:      binary,
		exec:        procexec.CommandExecutor{},
		locator:     deps.NewCachedLocator(nil),
		logger:      logging.NewComponentLogger(nil, "ffmpeg"),
		probeSeek:   DefaultProbeSeek,
		framePrefix: "out",
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// prepare performs the checks every operation runs before spawning ffmpeg:
// the input must be a regular file and the binary must be locatable.
func (c *Client) prepare(path string) (string, error) {
	if !fileutil.IsRegularFile(path) {
		return "", services.NotFound(path)
	}
	return deps.Require(c.locator, c.binary)
}

// dispatcher routes each ffmpeg line to the preamble parser and, once the
// preamble has ended, to the progress tracker and the operation's own parser.
type dispatcher struct {
	parser   *ffdiag.InfoParser
	stage    string
	end      float64
	progress ffdiag.ProgressFunc
	consume  func(line string) error

	tracker *ffdiag.ProgressTracker
	invalid bool
	err     error
	stop    context.CancelFunc
}

func newDispatcher(stage string, end float64, progress ffdiag.ProgressFunc, consume func(string) error) *dispatcher {
	return &dispatcher{
		parser:   ffdiag.NewInfoParser(),
		stage:    stage,
		end:      end,
		progress: progress,
		consume:  consume,
	}
}

func (d *dispatcher) handle(line string) {
	if d.invalid || d.err != nil {
		return
	}
	if d.tracker == nil {
		done, err := d.parser.Feed(line)
		if err != nil {
			d.fail(err)
			return
		}
		if done && !d.startTracking() {
			return
		}
	}
	if d.tracker != nil {
		d.tracker.Observe(line)
	}
	if d.consume != nil {
		if err := d.consume(line); err != nil {
			d.fail(err)
		}
	}
}

// startTracking sizes the tracker from the preamble. It reports false and
// stops the process when the input has no usable program.
func (d *dispatcher) startTracking() bool {
	if _, ok := d.parser.Result(); !ok {
		d.invalid = true
		if d.stop != nil {
			d.stop()
		}
		return false
	}
	d.tracker = ffdiag.NewProgressTracker(d.stage, ffdiag.PlannedTotal(d.parser.Duration(), d.end), d.progress)
	return true
}

func (d *dispatcher) fail(err error) {
	d.err = err
	if d.stop != nil {
		d.stop()
	}
}

// run executes ffmpeg with args and returns the MediaInfo read from the run's
// own preamble. tolerateExit accepts a non-zero exit status, which ffmpeg
// reports whenever it is invoked without an output.
func (c *Client) run(ctx context.Context, binary, path string, args []string, d *dispatcher, tolerateExit bool) (ffdiag.MediaInfo, error) {
	logger := logging.WithContext(ctx, c.logger)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.stop = cancel

	logger.Debug("ffmpeg command", logging.String("binary", binary), logging.String("args", strings.Join(args, " ")))
	runErr := c.exec.Run(runCtx, binary, args, d.handle)

	if d.err != nil {
		if ffdiag.IsParseError(d.err) {
			logger.Debug("ffmpeg diagnostics unreadable", logging.Error(d.err))
			return ffdiag.MediaInfo{}, services.Invalid(path)
		}
		return ffdiag.MediaInfo{}, d.err
	}
	if d.invalid {
		return ffdiag.MediaInfo{}, services.Invalid(path)
	}
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ffdiag.MediaInfo{}, ctxErr
		}
		if !tolerateExit || !procexec.IsExitError(runErr) {
			return ffdiag.MediaInfo{}, services.Wrap(services.ErrExternalTool, d.stage, "", "ffmpeg failed", runErr)
		}
	}
	info, ok := d.parser.Result()
	if !ok {
		return ffdiag.MediaInfo{}, services.Invalid(path)
	}
	if d.tracker == nil {
		d.tracker = ffdiag.NewProgressTracker(d.stage, ffdiag.PlannedTotal(info.Duration, d.end), d.progress)
	}
	d.tracker.Finish()
	logger.Debug("ffmpeg finished",
		logging.String(logging.FieldProgressStage, d.stage),
		logging.Float64("planned_total", d.tracker.Total()),
	)
	return info, nil
}

// windowArgs returns the input seek options for [start, end].
func windowArgs(start, end float64) []string {
	args := []string{"-ss", ffdiag.FormatSeconds(max(start, 0))}
	if !ffdiag.IsUnbounded(end) && end > 0 {
		args = append(args, "-to", ffdiag.FormatSeconds(end))
	}
	return args
}

func validateWindow(start, end float64) error {
	if start < 0 {
		return fmt.Errorf("%w: start %s is negative", services.ErrValidation, ffdiag.FormatSeconds(start))
	}
	if !ffdiag.IsUnbounded(end) && end > 0 && end <= start {
		return fmt.Errorf("%w: end %s must be after start %s", services.ErrValidation, ffdiag.FormatSeconds(end), ffdiag.FormatSeconds(start))
	}
	return nil
}
