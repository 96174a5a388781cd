// Package worker serves a plugin inside a worker process, answering the
// parent's init, call and dispose messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"gooze.dev/pkg/crucible/internal/ipc"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// Dispatcher reads worker messages from in and writes replies to out.
type Dispatcher struct {
	registry  *plugin.Registry
	dec       *ipc.Decoder
	enc       *ipc.Encoder
	logOutput io.Writer
	log       *slog.Logger

	mu      sync.Mutex
	service Service
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogOutput sets where the worker's own logs go. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(d *Dispatcher) {
		d.logOutput = w
	}
}

// NewDispatcher creates a dispatcher serving plugins from registry.
func NewDispatcher(registry *plugin.Registry, in io.Reader, out io.Writer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		dec:       ipc.NewDecoder(in),
		enc:       ipc.NewEncoder(out),
		logOutput: os.Stderr,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.log = newLogger(d.logOutput, slog.LevelInfo)

	return d
}

// Serve announces readiness and handles messages until dispose or until the
// parent closes the channel.
func (d *Dispatcher) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := d.send(ipc.ParentMessage{Kind: ipc.KindReady}); err != nil {
		return fmt.Errorf("failed to announce worker: %w", err)
	}

	for {
		var msg ipc.WorkerMessage

		if err := d.dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				d.logger().Debug("Parent closed the channel")
				d.disposeService(ctx)

				return nil
			}

			if ipc.IsFatalFrameError(err) {
				return fmt.Errorf("worker channel failed: %w", err)
			}

			d.logger().Warn("Dropping undecodable message", "error", err)

			continue
		}

		if err := msg.Validate(); err != nil {
			d.logger().Warn("Ignoring invalid message", "error", err)
			continue
		}

		switch msg.Kind {
		case ipc.KindInit:
			d.init(ctx, msg.Init)
		case ipc.KindCall:
			go d.call(ctx, *msg.Call)
		case ipc.KindDispose:
			d.disposeService(ctx)

			if err := d.send(ipc.ParentMessage{Kind: ipc.KindDisposeCompleted}); err != nil {
				d.logger().Debug("Failed to confirm dispose", "error", err)
			}

			return nil
		}
	}
}

func (d *Dispatcher) init(ctx context.Context, init *ipc.InitMessage) {
	d.mu.Lock()
	already := d.service != nil
	d.mu.Unlock()

	if already {
		d.logger().Warn("Ignoring repeated init", "plugin", init.PluginName)
		return
	}

	logger := newLogger(d.logOutput, slog.Level(init.Logging.Level)).With("plugin", init.PluginName)

	d.mu.Lock()
	d.log = logger
	d.mu.Unlock()

	service, err := d.createService(ctx, init)
	if err != nil {
		d.logger().Error("Failed to create plugin", "error", err)
		d.reply(ipc.ParentMessage{Kind: ipc.KindInitError, Error: ipc.SerializeError(err)})

		return
	}

	d.mu.Lock()
	d.service = service
	d.mu.Unlock()

	d.logger().Debug("Plugin created", "kind", init.PluginKind)
	d.reply(ipc.ParentMessage{Kind: ipc.KindInitialized})
}

func (d *Dispatcher) createService(_ context.Context, init *ipc.InitMessage) (svc Service, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(ipc.SerializePanic(r).String())
		}
	}()

	initCtx := plugin.InitContext{
		Options:    init.Options,
		WorkingDir: init.WorkingDir,
		Files:      init.Files,
		Logger:     d.logger(),
	}

	switch init.PluginKind {
	case ipc.PluginTestRunner:
		factory, err := d.registry.TestRunner(init.PluginName)
		if err != nil {
			return nil, err
		}

		runner, err := factory(initCtx)
		if err != nil {
			return nil, err
		}

		return NewTestRunnerService(runner), nil
	case ipc.PluginChecker:
		factory, err := d.registry.Checker(init.PluginName)
		if err != nil {
			return nil, err
		}

		checker, err := factory(initCtx)
		if err != nil {
			return nil, err
		}

		return NewCheckerService(checker), nil
	default:
		return nil, fmt.Errorf("unknown plugin kind %q", init.PluginKind)
	}
}

func (d *Dispatcher) call(ctx context.Context, call ipc.CallMessage) {
	result, serr := d.invoke(ctx, call)
	if serr != nil {
		d.reply(ipc.ParentMessage{Kind: ipc.KindCallRejection, CorrelationID: call.CorrelationID, Error: serr})
		return
	}

	d.reply(ipc.ParentMessage{Kind: ipc.KindCallResult, CorrelationID: call.CorrelationID, Result: result})
}

func (d *Dispatcher) invoke(ctx context.Context, call ipc.CallMessage) (result msgpack.RawMessage, serr *ipc.SerializedError) {
	defer func() {
		if r := recover(); r != nil {
			d.logger().Error("Plugin call panicked", "method", call.Method, "panic", r)
			serr = ipc.SerializePanic(r)
		}
	}()

	d.mu.Lock()
	service := d.service
	d.mu.Unlock()

	if service == nil {
		return nil, ipc.SerializeError(fmt.Errorf("cannot call %q before the plugin is initialized", call.Method))
	}

	value, err := service.Handle(ctx, call.Method, call.Args)
	if err != nil {
		return nil, ipc.SerializeError(err)
	}

	if value == nil {
		return nil, nil
	}

	b, err := msgpack.Marshal(value)
	if err != nil {
		return nil, ipc.SerializeError(fmt.Errorf("failed to encode %s result: %w", call.Method, err))
	}

	return b, nil
}

func (d *Dispatcher) disposeService(ctx context.Context) {
	d.mu.Lock()
	service := d.service
	d.service = nil
	d.mu.Unlock()

	if service == nil {
		return
	}

	if err := service.Dispose(ctx); err != nil {
		d.logger().Warn("Plugin dispose failed", "error", err)
	}
}

func (d *Dispatcher) reply(msg ipc.ParentMessage) {
	if err := d.send(msg); err != nil {
		d.logger().Warn("Failed to send reply", "kind", msg.Kind, "error", err)
	}
}

func (d *Dispatcher) send(msg ipc.ParentMessage) error {
	return d.enc.Encode(msg)
}

func (d *Dispatcher) logger() *slog.Logger {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.log
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
