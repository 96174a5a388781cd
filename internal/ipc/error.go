package ipc

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// SerializedError is an error as it travels over the wire.
type SerializedError struct {
	Message string `msgpack:"message"`
	Stack   string `msgpack:"stack,omitempty"`
}

// SerializeError converts err for transport. A nil error yields nil.
func SerializeError(err error) *SerializedError {
	if err == nil {
		return nil
	}

	se := &SerializedError{Message: err.Error()}

	var remote *RemoteError
	if errors.As(err, &remote) {
		se.Stack = remote.Stack
	}

	return se
}

// SerializePanic converts a recovered panic value, keeping the stack.
func SerializePanic(v any) *SerializedError {
	return &SerializedError{
		Message: fmt.Sprintf("panic: %v", v),
		Stack:   string(debug.Stack()),
	}
}

// RemoteError is an error reconstructed from a worker reply.
type RemoteError struct {
	Message string
	Stack   string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Err reconstructs the error on the receiving side.
func (se *SerializedError) Err() error {
	if se == nil {
		return &RemoteError{Message: "unknown error"}
	}

	return &RemoteError{Message: se.Message, Stack: se.Stack}
}

// String renders the message followed by the stack when present.
func (se *SerializedError) String() string {
	if se == nil {
		return ""
	}

	if se.Stack == "" {
		return se.Message
	}

	return se.Message + "\n" + se.Stack
}
