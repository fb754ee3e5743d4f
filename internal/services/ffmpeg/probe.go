package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tsutils/internal/logging"
	"tsutils/internal/media/ffdiag"
	"tsutils/internal/probecache"
)

// GetInfo probes path and returns the first program that carries audio.
func (c *Client) GetInfo(ctx context.Context, path string) (ffdiag.MediaInfo, error) {
	binary, err := c.prepare(path)
	if err != nil {
		return ffdiag.MediaInfo{}, err
	}
	return c.probe(ctx, binary, path)
}

func (c *Client) probe(ctx context.Context, binary, path string) (ffdiag.MediaInfo, error) {
	logger := logging.WithContext(ctx, c.logger).With(logging.Input(path))

	var key probecache.Key
	cacheable := false
	if c.cache != nil {
		k, err := probecache.KeyFor(path, c.probeSeek)
		if err == nil {
			key, cacheable = k, true
			info, ok, err := c.cache.Get(ctx, key)
			switch {
			case err != nil:
				logging.WarnWithContext(logger, "probe cache lookup failed", "probe_cache_read",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "delete the cache database if this repeats"),
					logging.String(logging.FieldImpact, "recording probed again"),
				)
			case ok:
				logger.Debug("probe cache hit", logging.Bool("cache_hit", true))
				return info, nil
			}
		}
	}

	args := []string{"-hide_banner", "-ss", ffdiag.FormatSeconds(c.probeSeek), "-i", path}
	d := newDispatcher("probe", ffdiag.Unbounded, nil, nil)
	info, err := c.run(ctx, binary, path, args, d, true)
	if err != nil {
		return ffdiag.MediaInfo{}, err
	}

	logSkippedPrograms(logger, d.parser.Programs())
	logger.Info("probe complete",
		logging.Seconds("duration", info.Duration),
		logging.String("resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)),
		logging.Float64("fps", info.FPS),
		logging.Int("sound_tracks", info.SoundTracks),
		logging.Bool("cache_hit", false),
	)

	if cacheable {
		if err := c.cache.Put(ctx, key, info); err != nil {
			logging.WarnWithContext(logger, "probe cache store failed", "probe_cache_write",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the cache directory"),
				logging.String(logging.FieldImpact, "next probe of this recording runs ffmpeg again"),
			)
		}
	}
	return info, nil
}

// logSkippedPrograms records the programs passed over by first-match
// selection. Multi-program broadcasts routinely carry data-only services.
func logSkippedPrograms(logger *slog.Logger, programs []ffdiag.Program) {
	if len(programs) < 2 {
		return
	}
	selected := false
	skipped := make([]string, 0, len(programs)-1)
	for _, prog := range programs {
		if !selected && prog.SoundTracks > 0 {
			selected = true
			continue
		}
		skipped = append(skipped, strings.TrimSpace(prog.ID))
	}
	logger.Debug("programs skipped",
		logging.Int("programs", len(programs)),
		logging.String("skipped", strings.Join(skipped, "; ")),
	)
}
