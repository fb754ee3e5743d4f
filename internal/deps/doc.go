// Package deps resolves the external binaries tsutils drives (ffmpeg,
// TsSplitter, Caption2AssC, mirakurun-epgdump) and reports their availability.
//
// Callers receive a Locator instead of consulting process-wide state; tests
// inject StaticLocator so no real binaries are required.
package deps
