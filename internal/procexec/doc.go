// Package procexec spawns external commands and streams their output line by
// line while they run.
//
// Executor is the seam every tool wrapper depends on; production code uses
// CommandExecutor and tests substitute a stub that replays captured
// transcripts. Lines are delimited by newlines and by the carriage returns
// ffmpeg uses to overwrite its status line.
package procexec
