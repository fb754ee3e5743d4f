// Package main hosts the tsutils CLI entrypoint and command graph.
//
// Each subcommand maps onto one operation of the internal tool wrappers:
// probing and extraction go through the ffmpeg client, recording
// post-processing through the TsSplitter, Caption2AssC and epgdump clients.
// The command context resolves configuration, logging, tool lookup and the
// probe cache once per invocation so subcommands only parse flags and render
// results.
package main
