// Package ffmpeg drives the ffmpeg binary to probe and extract from MPEG-TS
// recordings.
//
// Every operation spawns exactly one ffmpeg process (plus the probe run the
// extraction operations need for track counts and frame size) and consumes
// its diagnostics through a single dispatcher: lines feed the preamble parser
// until the input description is complete, after which the same stream drives
// progress and any operation-specific parser. The package never decodes media
// itself.
package ffmpeg
