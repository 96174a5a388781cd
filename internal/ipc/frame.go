// Package ipc implements the parent/worker wire protocol: length-prefixed
// msgpack frames carrying tagged union messages.
package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// LengthPrefixSize is the size of the big-endian frame length prefix.
	LengthPrefixSize = 4
	// MaxFrameSize bounds a single frame, prefix included (16 MiB).
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is MaxFrameSize minus the prefix.
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
)

// ErrChannelClosed is returned when writing to a channel that was closed.
var ErrChannelClosed = errors.New("ipc channel closed")

// FrameErrorKind classifies frame errors.
type FrameErrorKind int

const (
	// FrameErrorPartial is a truncated frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge is a frame above MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode is a payload that is not valid msgpack for the target.
	FrameErrorDecode
)

// FrameError is a framing or decoding failure.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}

	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal is true for errors after which the stream cannot be resynchronised.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorPartial || e.Kind == FrameErrorTooLarge
}

// IsFatalFrameError reports whether err is a fatal *FrameError.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}

	return false
}

// Decoder reads frames from a stream.
type Decoder struct {
	r io.Reader
}

// NewDecoder creates a frame decoder on r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// ReadFrame reads the next raw payload. io.EOF means the stream ended cleanly.
func (d *Decoder) ReadFrame() ([]byte, error) {
	var prefix [LengthPrefixSize]byte

	if _, err := io.ReadFull(d.r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}

		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "failed to read length prefix", Err: err}
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", size, MaxPayloadSize),
		}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "failed to read payload", Err: err}
	}

	return payload, nil
}

// Decode reads the next frame into v.
func (d *Decoder) Decode(v any) error {
	payload, err := d.ReadFrame()
	if err != nil {
		return err
	}

	if err := msgpack.Unmarshal(payload, v); err != nil {
		return &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode frame", Err: err}
	}

	return nil
}

// Encoder writes frames to a stream. It is safe for concurrent use.
type Encoder struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

// NewEncoder creates a frame encoder on w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode marshals v and writes it as one frame.
func (e *Encoder) Encode(v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	if len(payload) > MaxPayloadSize {
		return &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}

	frame := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(frame[:LengthPrefixSize], uint32(len(payload))) // #nosec G115 - bounded above
	copy(frame[LengthPrefixSize:], payload)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrChannelClosed
	}

	if _, err := e.w.Write(frame); err != nil {
		return err
	}

	return nil
}

// Close marks the encoder closed and closes the writer when it is an io.Closer.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.closed = true

	if c, ok := e.w.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
