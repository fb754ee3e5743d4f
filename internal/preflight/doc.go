// Package preflight provides readiness checks for the external tools and
// filesystem paths tsutils depends on.
//
// The CLI "tsutils deps" command runs CheckSystemDeps and RunAll to display
// tool availability, the ffmpeg build in use, and directory health.
package preflight
