// Package workspace manages the directories extraction operations write into.
//
// Output directories are destroyed and recreated on every run, so concurrent
// invocations targeting the same directory would corrupt each other. Lock
// serializes them across processes with an advisory file lock placed next to
// the directory; distinct directories never contend.
package workspace
