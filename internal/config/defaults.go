package config

const (
	defaultConfigPath       = "~/.config/tsutils/config.toml"
	defaultLogDir           = "~/.local/share/tsutils/logs"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultFFmpeg           = "ffmpeg"
	defaultTsSplitter       = "TsSplitter.exe"
	defaultCaption2Ass      = "Caption2AssC.exe"
	defaultLocaleEmulator   = "LEProc2.exe"
	defaultEPGDump          = "mirakurun-epgdump"
	defaultProbeSeekSeconds = 30
	defaultAreaFPS          = "1/2"
	defaultFramePrefix      = "out"
	defaultTrimThresholdMiB = 10
	defaultMinSilenceMS     = 800
	defaultSilenceThreshold = -80
	defaultSubtitleAttempts = 2
	defaultChannelsFile     = "~/.config/tsutils/channels.yml"
	envFFmpeg               = "TSUTILS_FFMPEG"
	envChannelsFile         = "TSUTILS_CHANNELS"
)

var defaultSplitterFlags = []string{"-EIT", "-ECM", "-EMM", "-SD", "-1SEG", "-SEP3", "-SEPA"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir(),
		},
		Tools: Tools{
			FFmpeg:         defaultFFmpeg,
			TsSplitter:     defaultTsSplitter,
			Caption2Ass:    defaultCaption2Ass,
			LocaleEmulator: defaultLocaleEmulator,
			EPGDump:        defaultEPGDump,
		},
		Probe: Probe{
			SeekSeconds:  defaultProbeSeekSeconds,
			CacheEnabled: true,
		},
		Extract: Extract{
			AreaFPS:     defaultAreaFPS,
			FramePrefix: defaultFramePrefix,
		},
		Splitter: Splitter{
			TrimThresholdMiB: defaultTrimThresholdMiB,
			Flags:            append([]string(nil), defaultSplitterFlags...),
		},
		Silence: Silence{
			MinSilenceMS: defaultMinSilenceMS,
			ThresholdDB:  defaultSilenceThreshold,
		},
		Subtitles: Subtitles{
			MaxAttempts:       defaultSubtitleAttempts,
			UseLocaleEmulator: true,
		},
		EPG: EPG{
			ChannelsFile: defaultChannelsFile,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
