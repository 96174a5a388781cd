// Package childproc runs plugins in worker processes and exposes them
// through an in-process RPC proxy.
package childproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"gooze.dev/pkg/crucible/internal/ipc"
	"gooze.dev/pkg/crucible/internal/metrics"
)

// DefaultDisposeTimeout bounds how long Dispose waits for the worker to confirm.
const DefaultDisposeTimeout = 2 * time.Second

// LevelTrace is below slog.LevelDebug and enables worker output echoing.
const LevelTrace = slog.Level(-8)

const initTaskID = -1

// Options configure a ChildProcessProxy.
type Options struct {
	Spawner        Spawner
	Spawn          SpawnOptions
	Init           ipc.InitMessage
	DisposeTimeout time.Duration
	Logger         *slog.Logger
	Metrics        metrics.Collector
}

// ChildProcessProxy owns one worker process and multiplexes calls to it.
type ChildProcessProxy struct {
	mu sync.Mutex

	proc        Process
	pid         int
	kind        string
	initMessage ipc.WorkerMessage
	initSent    bool
	initTask    *Task[msgpack.RawMessage]
	disposeTask *Task[msgpack.RawMessage]

	tasks       []*Task[msgpack.RawMessage]
	outstanding map[int]*Task[msgpack.RawMessage]

	fatalErr    error
	brokenFatal bool // fatalErr came from a broken channel; the close event replaces it
	disposed    bool
	ignoreClose bool

	stdout bytes.Buffer
	stderr bytes.Buffer

	disposeTimeout time.Duration
	log            *slog.Logger
	metrics        metrics.Collector
}

// New spawns a worker. The init message is sent once the worker reports
// ready. When spawning fails the returned proxy is already failed and every
// call on it returns the spawn error.
func New(opts Options) (*ChildProcessProxy, error) {
	if opts.Spawner == nil {
		opts.Spawner = ExecSpawner{}
	}

	if opts.DisposeTimeout <= 0 {
		opts.DisposeTimeout = DefaultDisposeTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &ChildProcessProxy{
		kind:           string(opts.Init.PluginKind),
		initMessage:    ipc.NewInit(opts.Init),
		initTask:       NewTask[msgpack.RawMessage](),
		outstanding:    map[int]*Task[msgpack.RawMessage]{},
		disposeTimeout: opts.DisposeTimeout,
		metrics:        metrics.OrNoop(opts.Metrics),
	}
	p.outstanding[initTaskID] = p.initTask

	// Transport callbacks block on mu until proc is set.
	p.mu.Lock()

	proc, err := opts.Spawner.Spawn(opts.Spawn, Events{
		OnMessage: p.handleMessage,
		OnStdout:  p.handleStdout,
		OnStderr:  p.handleStderr,
		OnClose:   p.handleClose,
		OnError:   p.handleError,
	})
	if err != nil {
		p.mu.Unlock()
		return failed(err, logger.With("plugin", opts.Init.PluginName)), err
	}

	p.proc = proc
	p.pid = proc.PID()
	p.log = logger.With("pid", p.pid, "plugin", opts.Init.PluginName)
	p.mu.Unlock()

	p.metrics.WorkerSpawned(p.kind)
	p.log.Debug("Started worker process", "kind", p.kind)

	return p, nil
}

// failed returns a proxy that rejects every call with err.
func failed(err error, logger *slog.Logger) *ChildProcessProxy {
	p := &ChildProcessProxy{
		initTask:    NewTask[msgpack.RawMessage](),
		outstanding: map[int]*Task[msgpack.RawMessage]{},
		fatalErr:    err,
		disposed:    true,
		log:         logger,
		metrics:     metrics.NewNoopCollector(),
	}
	p.initTask.Reject(err)

	return p
}

// PID returns the worker process id, or 0 when it never started.
func (p *ChildProcessProxy) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.pid
}

// Ready is closed once the worker's plugin has been initialised or has failed to.
func (p *ChildProcessProxy) Ready() <-chan struct{} {
	return p.initTask.Done()
}

// Output returns everything the worker has written to stdout and stderr.
func (p *ChildProcessProxy) Output() (stdout, stderr string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stdout.String(), p.stderr.String()
}

// Call invokes method on the worker's plugin and returns the encoded result.
// Cancelling ctx stops the wait; it does not reach into the worker.
func (p *ChildProcessProxy) Call(ctx context.Context, method string, args ...any) (msgpack.RawMessage, error) {
	start := time.Now()

	result, err := p.call(ctx, method, args)
	p.metrics.CallCompleted(p.kind, method, time.Since(start), err)

	return result, err
}

func (p *ChildProcessProxy) call(ctx context.Context, method string, args []any) (msgpack.RawMessage, error) {
	p.mu.Lock()

	if p.fatalErr != nil {
		err := p.fatalErr
		p.mu.Unlock()

		return nil, err
	}

	if p.disposed {
		p.mu.Unlock()
		return nil, ErrDisposed
	}

	id := len(p.tasks)
	task := NewTask[msgpack.RawMessage]()
	p.tasks = append(p.tasks, task)
	p.outstanding[id] = task
	proc := p.proc
	p.mu.Unlock()

	msg, err := ipc.NewCall(id, method, args...)
	if err != nil {
		p.forget(id)
		return nil, err
	}

	select {
	case <-p.initTask.Done():
	case <-ctx.Done():
		p.forget(id)
		return nil, ctx.Err()
	}

	if _, err := p.initTask.Wait(context.Background()); err != nil {
		p.forget(id)
		return nil, err
	}

	// A close or transport failure may have rejected the task while waiting for init.
	if task.Settled() {
		return task.Wait(ctx)
	}

	if err := proc.Send(msg); err != nil {
		p.handleError(err)
	}

	return task.Wait(ctx)
}

// Invoke calls method and decodes the result into T.
func Invoke[T any](ctx context.Context, p *ChildProcessProxy, method string, args ...any) (T, error) {
	var out T

	raw, err := p.Call(ctx, method, args...)
	if err != nil {
		return out, err
	}

	if len(raw) == 0 {
		return out, nil
	}

	if err := msgpack.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s result: %w", method, err)
	}

	return out, nil
}

// Dispose asks the worker to shut down, waits briefly for confirmation and
// then kills it. Pending calls are rejected with ErrDisposed. Dispose is
// idempotent.
func (p *ChildProcessProxy) Dispose(ctx context.Context) error {
	p.mu.Lock()

	if p.disposed {
		p.mu.Unlock()
		return nil
	}

	p.disposed = true
	p.ignoreClose = true
	p.disposeTask = NewTask[msgpack.RawMessage]()
	task := p.disposeTask
	proc := p.proc
	p.mu.Unlock()

	p.log.Debug("Disposing worker process")

	defer func() {
		if err := proc.Kill(); err != nil {
			p.log.Debug("Failed to kill worker process", "error", err)
		}

		p.rejectOutstanding(ErrDisposed)
	}()

	if err := proc.Send(ipc.NewDispose()); err != nil {
		p.log.Debug("Worker did not accept dispose", "error", err)
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.disposeTimeout)
	defer cancel()

	if _, err := task.Wait(waitCtx); err != nil {
		p.log.Debug("Worker did not confirm dispose in time", "timeout", p.disposeTimeout)
	}

	return nil
}

func (p *ChildProcessProxy) handleMessage(msg ipc.ParentMessage) {
	switch msg.Kind {
	case ipc.KindReady:
		p.mu.Lock()
		if p.initSent {
			p.mu.Unlock()
			return
		}

		p.initSent = true
		proc := p.proc
		p.mu.Unlock()

		if err := proc.Send(p.initMessage); err != nil {
			p.handleError(err)
		}
	case ipc.KindInitialized:
		p.settle(initTaskID, nil, nil)
	case ipc.KindInitError:
		p.initFailed(msg.Error)
	case ipc.KindCallResult:
		p.settle(msg.CorrelationID, msg.Result, nil)
	case ipc.KindCallRejection:
		p.settle(msg.CorrelationID, nil, msg.Error.Err())
	case ipc.KindDisposeCompleted:
		p.mu.Lock()
		task := p.disposeTask
		p.mu.Unlock()

		if task != nil {
			task.Resolve(nil)
		}
	default:
		p.log.Warn("Ignoring unknown worker message", "kind", msg.Kind)
	}
}

func (p *ChildProcessProxy) initFailed(cause *ipc.SerializedError) {
	if cause == nil {
		cause = &ipc.SerializedError{Message: "unknown error"}
	}

	p.mu.Lock()
	err := &InitError{PID: p.pid, Cause: cause}
	p.fatalErr = err
	p.mu.Unlock()

	p.log.Error("Worker failed to initialize", "error", cause.Message)
	p.metrics.WorkerCrashed(p.kind, "init_error")
	p.rejectOutstanding(err)

	// Dispose waits on messages delivered by this goroutine.
	go func() {
		_ = p.Dispose(context.Background())
	}()
}

func (p *ChildProcessProxy) settle(id int, result msgpack.RawMessage, err error) {
	p.mu.Lock()

	var task *Task[msgpack.RawMessage]

	switch {
	case id == initTaskID:
		task = p.initTask
	case id >= 0 && id < len(p.tasks):
		task = p.tasks[id]
	default:
		p.mu.Unlock()
		p.log.Warn("Ignoring reply for unknown call", "correlationId", id)

		return
	}

	delete(p.outstanding, id)
	p.mu.Unlock()

	// A task already rejected by a crash or dispose stays rejected.
	if err != nil {
		task.Reject(err)
		return
	}

	task.Resolve(result)
}

func (p *ChildProcessProxy) forget(id int) {
	p.mu.Lock()
	delete(p.outstanding, id)
	p.mu.Unlock()
}

func (p *ChildProcessProxy) handleStdout(chunk []byte) {
	p.mu.Lock()
	p.stdout.Write(chunk)
	p.mu.Unlock()

	p.log.Log(context.Background(), LevelTrace, "Worker stdout", "output", string(chunk))
}

func (p *ChildProcessProxy) handleStderr(chunk []byte) {
	p.mu.Lock()
	p.stderr.Write(chunk)
	p.mu.Unlock()

	p.log.Log(context.Background(), LevelTrace, "Worker stderr", "output", string(chunk))
}

func (p *ChildProcessProxy) handleClose(exitCode int, signal string) {
	p.mu.Lock()

	if p.ignoreClose {
		p.mu.Unlock()
		return
	}

	p.disposed = true
	stdout, stderr := p.stdout.String(), p.stderr.String()

	var err error

	reason := "crash"
	if hasOutOfMemoryMarker(stdout, stderr) {
		err = newOutOfMemoryError(p.pid, &exitCode)
		reason = "oom"
	} else {
		err = &ChildProcessCrashedError{
			PID:      p.pid,
			ExitCode: &exitCode,
			Signal:   signal,
			Message:  crashMessage(p.pid, exitCode, signal, stderr+stdout),
		}
	}

	if p.fatalErr == nil || p.brokenFatal {
		p.fatalErr = err
		p.brokenFatal = false
	}
	p.mu.Unlock()

	p.log.Warn("Worker process exited unexpectedly", "exitCode", exitCode, "signal", signal, "reason", reason)
	p.metrics.WorkerCrashed(p.kind, reason)
	p.rejectOutstanding(err)
}

func (p *ChildProcessProxy) handleError(err error) {
	if isChannelBroken(err) {
		p.mu.Lock()
		pid := p.pid
		crashed := &ChildProcessCrashedError{
			PID:     pid,
			Message: fmt.Sprintf("Child process [pid %d] has crashed", pid),
			Err:     err,
		}

		// Later calls fail fast instead of writing to the dead channel.
		if p.fatalErr == nil {
			p.fatalErr = crashed
			p.brokenFatal = true
		}
		p.mu.Unlock()

		p.log.Warn("Worker channel is broken", "error", err)
		p.metrics.WorkerCrashed(p.kind, "broken_pipe")
		p.rejectOutstanding(crashed)

		return
	}

	p.log.Warn("Worker transport error", "error", err)
	p.rejectOutstanding(err)
}

func (p *ChildProcessProxy) rejectOutstanding(err error) {
	p.mu.Lock()
	pending := make([]*Task[msgpack.RawMessage], 0, len(p.outstanding))

	for id, task := range p.outstanding {
		pending = append(pending, task)
		delete(p.outstanding, id)
	}
	p.mu.Unlock()

	for _, task := range pending {
		task.Reject(err)
	}
}

func isChannelBroken(err error) bool {
	return isBrokenPipe(err) ||
		errors.Is(err, ipc.ErrChannelClosed) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		ipc.IsFatalFrameError(err)
}
