package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrFileNotFound        = errors.New("file not found")
	ErrInvalidFormat       = errors.New("invalid transport stream")
	ErrExternalToolMissing = errors.New("external tool missing")
	ErrParse               = errors.New("diagnostic parse failure")
	ErrExternalTool        = errors.New("external tool error")
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
)

// FileError reports a problem with a specific input file. The message only
// carries the file's base name so it stays stable across machines.
type FileError struct {
	Kind error
	Name string
}

// NotFound builds the FileNotFound error for path.
func NotFound(path string) error {
	return &FileError{Kind: ErrFileNotFound, Name: filepath.Base(path)}
}

// Invalid builds the InvalidFormat error for path.
func Invalid(path string) error {
	return &FileError{Kind: ErrInvalidFormat, Name: filepath.Base(path)}
}

func (e *FileError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrFileNotFound):
		return fmt.Sprintf("%q not found!", e.Name)
	case errors.Is(e.Kind, ErrInvalidFormat):
		return fmt.Sprintf("%q is invalid!", e.Name)
	case e.Kind != nil:
		return fmt.Sprintf("%q: %v", e.Name, e.Kind)
	default:
		return fmt.Sprintf("%q: file error", e.Name)
	}
}

func (e *FileError) Unwrap() error { return e.Kind }

// ToolMissingError reports an external command that cannot be located.
type ToolMissingError struct {
	Command string
}

func (e *ToolMissingError) Error() string {
	return e.Command + " not found in $PATH!"
}

func (e *ToolMissingError) Unwrap() error { return ErrExternalToolMissing }

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker. The marker should be one of the exported sentinels.
func Wrap(marker error, operation, subject, message string, err error) error {
	detail := buildDetail(operation, subject, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps an operation error to the CLI process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrFileNotFound):
		return 2
	case errors.Is(err, ErrInvalidFormat), errors.Is(err, ErrParse):
		return 3
	case errors.Is(err, ErrExternalToolMissing):
		return 4
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return 5
	default:
		return 1
	}
}

func buildDetail(operation, subject, message string) string {
	parts := make([]string, 0, 3)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if subject = strings.TrimSpace(subject); subject != "" {
		parts = append(parts, subject)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
