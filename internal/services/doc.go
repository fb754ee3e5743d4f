// Package services defines shared utilities consumed by the external tool
// wrappers under internal/services/.
//
// Key responsibilities:
//   - The error taxonomy surfaced to callers: FileNotFound, InvalidFormat and
//     ExternalToolMissing markers, plus FileError which renders the
//     user-visible `"<name>" not found!` / `"<name>" is invalid!` messages.
//   - The Wrap helper that tags external tool failures with a marker and the
//     operation that produced them.
//   - Context helpers that stamp operation names and correlation identifiers
//     for logging.
package services
