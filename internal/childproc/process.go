package childproc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"gooze.dev/pkg/crucible/internal/ipc"
)

// WorkerCommand is the hidden subcommand a worker binary serves on.
const WorkerCommand = "worker"

// Events are the callbacks a Process delivers. Each callback runs on a
// transport goroutine; OnClose is always the last one delivered.
type Events struct {
	OnMessage func(ipc.ParentMessage)
	OnStdout  func([]byte)
	OnStderr  func([]byte)
	OnClose   func(exitCode int, signal string)
	OnError   func(error)
}

// Process is a started worker process.
type Process interface {
	PID() int
	Send(msg ipc.WorkerMessage) error
	Kill() error
}

// SpawnOptions describe how to start a worker.
type SpawnOptions struct {
	Path string
	Args []string
	Env  []string
	Dir  string
}

// DefaultSpawnOptions re-executes the current binary as a worker.
func DefaultSpawnOptions(dir string) (SpawnOptions, error) {
	self, err := os.Executable()
	if err != nil {
		return SpawnOptions{}, fmt.Errorf("failed to resolve worker executable: %w", err)
	}

	return SpawnOptions{
		Path: self,
		Args: []string{WorkerCommand},
		Env:  os.Environ(),
		Dir:  dir,
	}, nil
}

// Spawner starts worker processes.
type Spawner interface {
	Spawn(opts SpawnOptions, events Events) (Process, error)
}

// ExecSpawner starts workers with os/exec and a pair of pipes on fd 3/4.
type ExecSpawner struct{}

// Spawn implements Spawner.
func (ExecSpawner) Spawn(opts SpawnOptions, events Events) (Process, error) {
	toChildR, toChildW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create worker input pipe: %w", err)
	}

	fromChildR, fromChildW, err := os.Pipe()
	if err != nil {
		closeAll(toChildR, toChildW)
		return nil, fmt.Errorf("failed to create worker output pipe: %w", err)
	}

	cmd := exec.Command(opts.Path, opts.Args...) // #nosec G204 - path is our own executable
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.ExtraFiles = []*os.File{toChildR, fromChildW}
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		closeAll(toChildR, toChildW, fromChildR, fromChildW)
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		closeAll(toChildR, toChildW, fromChildR, fromChildW)
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		closeAll(toChildR, toChildW, fromChildR, fromChildW)
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	// The child owns these ends now.
	closeAll(toChildR, fromChildW)

	proc := &execProcess{cmd: cmd, enc: ipc.NewEncoder(toChildW)}

	var readers sync.WaitGroup

	readers.Add(3)

	go func() {
		defer readers.Done()
		readMessages(fromChildR, events)
	}()

	go func() {
		defer readers.Done()
		pump(stdout, events.OnStdout)
	}()

	go func() {
		defer readers.Done()
		pump(stderr, events.OnStderr)
	}()

	go func() {
		readers.Wait()

		// Wait must follow the last read from the std pipes.
		_ = cmd.Wait()
		_ = proc.enc.Close()
		_ = fromChildR.Close()

		code, signal := exitStatus(cmd.ProcessState)
		if events.OnClose != nil {
			events.OnClose(code, signal)
		}
	}()

	return proc, nil
}

type execProcess struct {
	cmd *exec.Cmd
	enc *ipc.Encoder
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Send(msg ipc.WorkerMessage) error {
	return p.enc.Encode(msg)
}

func (p *execProcess) Kill() error {
	_ = p.enc.Close()

	err := killProcessGroup(p.cmd)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}

	return err
}

func readMessages(r io.Reader, events Events) {
	dec := ipc.NewDecoder(r)

	for {
		var msg ipc.ParentMessage

		err := dec.Decode(&msg)
		if err == nil {
			if events.OnMessage != nil {
				events.OnMessage(msg)
			}

			continue
		}

		if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
			return
		}

		if events.OnError != nil {
			events.OnError(err)
		}

		if ipc.IsFatalFrameError(err) {
			// Drain so the child never blocks on a full pipe before it exits.
			_, _ = io.Copy(io.Discard, r)
			return
		}
	}
}

func pump(r io.Reader, sink func([]byte)) {
	buf := make([]byte, 32*1024)

	for {
		n, err := r.Read(buf)
		if n > 0 && sink != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			sink(chunk)
		}

		if err != nil {
			return
		}
	}
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
