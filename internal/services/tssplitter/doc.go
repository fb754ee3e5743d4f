// Package tssplitter wraps TsSplitter, which cuts a broadcast recording at
// program boundaries, and implements trimming of the short leading and
// trailing parts it produces.
package tssplitter
