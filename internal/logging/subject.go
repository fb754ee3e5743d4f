package logging

import (
	"path/filepath"
	"strings"
)

// FormatSubject builds the operation/input subject string used in console output.
func FormatSubject(operation, input string) string {
	operation = strings.TrimSpace(operation)
	input = strings.TrimSpace(input)
	if input != "" {
		input = filepath.Base(input)
	}
	switch {
	case operation != "" && input != "":
		return capitalizeASCII(operation) + " · " + input
	case operation != "":
		return capitalizeASCII(operation)
	default:
		return input
	}
}
