// Package logs reads the daily JSON log files for `tsutils logs`.
//
// Last returns the tail of a file with bounded memory, Follow polls for
// appended lines until its context ends, and Latest picks the newest daily
// file in the log directory.
package logs
