package testsupport

import (
	"context"
	"slices"
	"sync"
)

// Call records one executor invocation.
type Call struct {
	Binary string
	Args   []string
}

// ScriptedExecutor replays canned output lines instead of spawning a process.
// It satisfies procexec.Executor.
type ScriptedExecutor struct {
	// Lines are delivered to the line callback in order.
	Lines []string
	// Err is returned after all lines were delivered.
	Err error
	// Before runs ahead of the replay, for example to create output files.
	Before func(call Call) error
	// Script picks per-call output; it overrides Lines and Err when set.
	Script func(call Call) ([]string, error)

	mu    sync.Mutex
	calls []Call
}

func (s *ScriptedExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	call := Call{Binary: binary, Args: slices.Clone(args)}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()

	if s.Before != nil {
		if err := s.Before(call); err != nil {
			return err
		}
	}
	lines, runErr := s.Lines, s.Err
	if s.Script != nil {
		lines, runErr = s.Script(call)
	}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		if onLine != nil {
			onLine(line)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return runErr
}

// Calls returns the recorded invocations.
func (s *ScriptedExecutor) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// LastArgs returns the arguments of the most recent invocation.
func (s *ScriptedExecutor) LastArgs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return s.calls[len(s.calls)-1].Args
}
