// Package ffdiag interprets the human-readable diagnostics ffmpeg writes to
// stderr.
//
// ffmpeg has no machine-readable mode for the information tsutils needs while
// a transcode is running, so this package defines a small marker table over
// its console text:
//   - InfoParser consumes the input preamble ("Duration:", "Program ",
//     "Stream #") and produces a MediaInfo once the preamble ends.
//   - ProgressTracker turns "time=" status updates into monotonic Progress
//     events that always finish at the planned total.
//   - ParseFrameLine reads showinfo filter lines into FrameProperty values.
//   - SilenceParser reads silencedetect filter lines into SilencePeriod values.
//
// Everything here is pure text processing and is tested against captured
// transcripts in testdata/, independent of an installed ffmpeg.
package ffdiag
