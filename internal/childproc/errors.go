package childproc

import (
	"errors"
	"fmt"
	"strings"

	"gooze.dev/pkg/crucible/internal/ipc"
)

// ErrDisposed is returned for work submitted to, or pending on, a disposed proxy.
var ErrDisposed = errors.New("child process proxy is disposed")

// ChildProcessCrashedError reports a worker that exited or lost its channel
// while work was pending.
type ChildProcessCrashedError struct {
	PID      int
	ExitCode *int
	Signal   string
	Message  string
	Err      error
}

func (e *ChildProcessCrashedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ChildProcessCrashedError) Unwrap() error {
	return e.Err
}

// OutOfMemoryError is a crash whose output carried an out-of-memory marker.
type OutOfMemoryError struct {
	ChildProcessCrashedError
}

func newOutOfMemoryError(pid int, exitCode *int) *OutOfMemoryError {
	return &OutOfMemoryError{ChildProcessCrashedError{
		PID:      pid,
		ExitCode: exitCode,
		Message:  fmt.Sprintf("Child process [pid %d] ran out of memory.", pid),
	}}
}

// Unwrap exposes the embedded crash so errors.As finds *ChildProcessCrashedError.
func (e *OutOfMemoryError) Unwrap() error {
	return &e.ChildProcessCrashedError
}

// InitError reports that the worker failed to construct or initialise its plugin.
type InitError struct {
	PID   int
	Cause *ipc.SerializedError
}

func (e *InitError) Error() string {
	return fmt.Sprintf("Child process [pid %d] failed to initialize: %s", e.PID, e.Cause.String())
}

func (e *InitError) Unwrap() error {
	return e.Cause.Err()
}

// IsCrashed reports whether err is (or wraps) a worker crash, out-of-memory included.
func IsCrashed(err error) bool {
	var crashed *ChildProcessCrashedError
	return errors.As(err, &crashed)
}

// IsOutOfMemory reports whether err is (or wraps) an out-of-memory crash.
func IsOutOfMemory(err error) bool {
	var oom *OutOfMemoryError
	return errors.As(err, &oom)
}

// Output markers printed by runtimes that died from memory exhaustion.
var outOfMemoryMarkers = []string{
	"JavaScript heap out of memory",
	"FatalProcessOutOfMemory",
	"runtime: out of memory",
	"fatal error: out of memory",
}

func hasOutOfMemoryMarker(outputs ...string) bool {
	for _, out := range outputs {
		for _, marker := range outOfMemoryMarkers {
			if strings.Contains(out, marker) {
				return true
			}
		}
	}

	return false
}

const crashOutputTail = 2048

func crashMessage(pid int, exitCode int, signal, output string) string {
	sig := "without signal"
	if signal != "" {
		sig = "signal " + signal
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Child process [pid %d] exited unexpectedly with exit code %d (%s). ", pid, exitCode, sig)

	if strings.TrimSpace(output) == "" {
		b.WriteString("Stdout and stderr were empty.")
		return b.String()
	}

	if len(output) > crashOutputTail {
		output = output[len(output)-crashOutputTail:]
	}

	b.WriteString("Last part of stdout and stderr was:\n")

	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		b.WriteString("\t")
		b.WriteString(line)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
