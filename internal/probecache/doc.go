// Package probecache memoizes ffmpeg probe results in SQLite.
//
// Probing a recording spawns ffmpeg and reads its preamble, which takes about
// a second per file on network storage. Entries are keyed by absolute path,
// size, modification time, and probe seek, so a rewritten or re-split file is
// probed again. The cache is disposable: a schema change drops and recreates
// it.
package probecache
