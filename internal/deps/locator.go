package deps

import (
	"errors"
	"strings"
	"sync"

	"tsutils/internal/services"
)

// Locator resolves an external command to an executable path.
type Locator interface {
	LookPath(command string) (string, error)
}

// CachedLocator memoizes successful lookups for the lifetime of the value.
// Failed lookups are not cached so a tool installed mid-run is picked up.
type CachedLocator struct {
	next  Locator
	mu    sync.Mutex
	found map[string]string
}

// NewCachedLocator wraps next (PATH lookup when nil) with a memo.
func NewCachedLocator(next Locator) *CachedLocator {
	if next == nil {
		next = PathLocator{}
	}
	return &CachedLocator{next: next, found: make(map[string]string)}
}

func (c *CachedLocator) LookPath(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if path, ok := c.found[command]; ok {
		return path, nil
	}
	path, err := c.next.LookPath(command)
	if err != nil {
		return "", err
	}
	c.found[command] = path
	return path, nil
}

// StaticLocator reports every command as available at its own name. Entries
// in Missing are reported as absent.
type StaticLocator struct {
	Missing []string
}

func (s StaticLocator) LookPath(command string) (string, error) {
	for _, name := range s.Missing {
		if name == command {
			return "", errors.New("not found")
		}
	}
	return command, nil
}

// Require resolves command or returns a ToolMissingError.
func Require(locator Locator, command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", &services.ToolMissingError{Command: "<unset>"}
	}
	if locator == nil {
		locator = PathLocator{}
	}
	path, err := locator.LookPath(command)
	if err != nil {
		return "", &services.ToolMissingError{Command: command}
	}
	return path, nil
}
