package ipc

import (
	"fmt"
	"os"
)

// File descriptors of the message channel inside a worker process. They map
// to exec.Cmd.ExtraFiles[0] and [1] on the parent side.
const (
	WorkerInFD  = 3
	WorkerOutFD = 4
)

// OpenWorkerChannel returns the worker's ends of the message channel.
func OpenWorkerChannel() (in *os.File, out *os.File, err error) {
	// Descriptors inherited through ExtraFiles lack close-on-exec, and must
	// not leak into the test processes the worker starts.
	closeOnExec(WorkerInFD)
	closeOnExec(WorkerOutFD)

	in = os.NewFile(WorkerInFD, "crucible-in")
	out = os.NewFile(WorkerOutFD, "crucible-out")

	if in == nil || out == nil {
		return nil, nil, fmt.Errorf("worker channel descriptors %d/%d are not available", WorkerInFD, WorkerOutFD)
	}

	if _, err := in.Stat(); err != nil {
		return nil, nil, fmt.Errorf("worker input channel: %w", err)
	}

	if _, err := out.Stat(); err != nil {
		return nil, nil, fmt.Errorf("worker output channel: %w", err)
	}

	return in, out, nil
}
