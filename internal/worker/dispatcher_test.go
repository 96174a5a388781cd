package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"gooze.dev/pkg/crucible/internal/ipc"
	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
	pluginmocks "gooze.dev/pkg/crucible/internal/plugin/mocks"
)

type harness struct {
	enc  *ipc.Encoder
	dec  *ipc.Decoder
	done chan error
}

func startDispatcher(t *testing.T, registry *plugin.Registry) *harness {
	t.Helper()

	toWorkerR, toWorkerW := io.Pipe()
	fromWorkerR, fromWorkerW := io.Pipe()

	d := NewDispatcher(registry, toWorkerR, fromWorkerW, WithLogOutput(io.Discard))
	h := &harness{
		enc:  ipc.NewEncoder(toWorkerW),
		dec:  ipc.NewDecoder(fromWorkerR),
		done: make(chan error, 1),
	}

	go func() {
		h.done <- d.Serve(context.Background())
		_ = fromWorkerW.Close()
	}()

	t.Cleanup(func() {
		_ = toWorkerW.Close()
		_ = fromWorkerR.Close()
	})

	assert.Equal(t, ipc.KindReady, h.next(t).Kind)

	return h
}

func (h *harness) send(t *testing.T, msg ipc.WorkerMessage) {
	t.Helper()
	require.NoError(t, h.enc.Encode(msg))
}

func (h *harness) call(t *testing.T, id int, method string, args ...any) {
	t.Helper()

	msg, err := ipc.NewCall(id, method, args...)
	require.NoError(t, err)
	h.send(t, msg)
}

func (h *harness) next(t *testing.T) ipc.ParentMessage {
	t.Helper()

	var msg ipc.ParentMessage
	require.NoError(t, h.dec.Decode(&msg))

	return msg
}

func registryWith(runner plugin.TestRunner) *plugin.Registry {
	registry := plugin.NewRegistry()
	registry.RegisterTestRunner("fake", func(plugin.InitContext) (plugin.TestRunner, error) {
		return runner, nil
	})

	return registry
}

func initFake(t *testing.T, h *harness) {
	t.Helper()

	h.send(t, ipc.NewInit(ipc.InitMessage{PluginKind: ipc.PluginTestRunner, PluginName: "fake"}))
	assert.Equal(t, ipc.KindInitialized, h.next(t).Kind)
}

func TestDispatcher_InitCallDispose(t *testing.T) {
	runner := pluginmocks.NewMockTestRunner(t)
	runner.EXPECT().Capabilities(mock.Anything).Return(m.Capabilities{ReloadEnvironment: true}, nil).Once()
	runner.EXPECT().MutantRun(mock.Anything, mock.MatchedBy(func(o m.MutantRunOptions) bool {
		return o.ActiveMutant.ID == "7"
	})).Return(m.MutantRunResult{Status: m.MutantRunKilled, KilledBy: []string{"TestX"}, NrOfTests: 1}, nil).Once()
	runner.EXPECT().Dispose(mock.Anything).Return(nil).Once()

	h := startDispatcher(t, registryWith(runner))
	initFake(t, h)

	h.call(t, 0, ipc.MethodCapabilities)

	reply := h.next(t)
	require.Equal(t, ipc.KindCallResult, reply.Kind)
	assert.Equal(t, 0, reply.CorrelationID)

	var caps m.Capabilities
	require.NoError(t, msgpack.Unmarshal(reply.Result, &caps))
	assert.True(t, caps.ReloadEnvironment)

	h.call(t, 1, ipc.MethodMutantRun, m.MutantRunOptions{ActiveMutant: m.Mutant{ID: "7"}, Timeout: time.Second})

	reply = h.next(t)
	require.Equal(t, ipc.KindCallResult, reply.Kind)
	assert.Equal(t, 1, reply.CorrelationID)

	var result m.MutantRunResult
	require.NoError(t, msgpack.Unmarshal(reply.Result, &result))
	assert.Equal(t, m.MutantRunKilled, result.Status)
	assert.Equal(t, []string{"TestX"}, result.KilledBy)

	h.send(t, ipc.NewDispose())
	assert.Equal(t, ipc.KindDisposeCompleted, h.next(t).Kind)
	assert.NoError(t, <-h.done)
}

func TestDispatcher_UnknownPluginIsInitError(t *testing.T) {
	h := startDispatcher(t, plugin.NewRegistry())

	h.send(t, ipc.NewInit(ipc.InitMessage{PluginKind: ipc.PluginTestRunner, PluginName: "missing"}))

	reply := h.next(t)
	require.Equal(t, ipc.KindInitError, reply.Kind)
	require.NotNil(t, reply.Error)
	assert.Contains(t, reply.Error.Message, `"missing"`)
}

func TestDispatcher_FactoryErrorIsInitError(t *testing.T) {
	registry := plugin.NewRegistry()
	registry.RegisterChecker("broken", func(plugin.InitContext) (plugin.Checker, error) {
		return nil, errors.New("no compiler")
	})

	h := startDispatcher(t, registry)
	h.send(t, ipc.NewInit(ipc.InitMessage{PluginKind: ipc.PluginChecker, PluginName: "broken"}))

	reply := h.next(t)
	require.Equal(t, ipc.KindInitError, reply.Kind)
	assert.Equal(t, "no compiler", reply.Error.Message)
}

func TestDispatcher_RejectsFailingAndUnknownCalls(t *testing.T) {
	runner := pluginmocks.NewMockTestRunner(t)
	runner.EXPECT().Init(mock.Anything).Return(errors.New("setup failed")).Once()
	runner.EXPECT().Dispose(mock.Anything).Return(nil).Maybe()

	h := startDispatcher(t, registryWith(runner))
	initFake(t, h)

	h.call(t, 0, ipc.MethodInit)

	reply := h.next(t)
	require.Equal(t, ipc.KindCallRejection, reply.Kind)
	assert.Equal(t, 0, reply.CorrelationID)
	assert.Equal(t, "setup failed", reply.Error.Message)

	h.call(t, 1, "explode")

	reply = h.next(t)
	require.Equal(t, ipc.KindCallRejection, reply.Kind)
	assert.Equal(t, 1, reply.CorrelationID)
	assert.Contains(t, reply.Error.Message, `"explode"`)
}

func TestDispatcher_PanicBecomesRejection(t *testing.T) {
	runner := pluginmocks.NewMockTestRunner(t)
	runner.EXPECT().DryRun(mock.Anything, mock.Anything).
		RunAndReturn(func(context.Context, m.DryRunOptions) (m.DryRunResult, error) {
			panic("nil map write")
		}).Once()
	runner.EXPECT().Dispose(mock.Anything).Return(nil).Maybe()

	h := startDispatcher(t, registryWith(runner))
	initFake(t, h)

	h.call(t, 0, ipc.MethodDryRun, m.DryRunOptions{})

	reply := h.next(t)
	require.Equal(t, ipc.KindCallRejection, reply.Kind)
	assert.Contains(t, reply.Error.Message, "panic: nil map write")
	assert.NotEmpty(t, reply.Error.Stack)
}

func TestDispatcher_CallBeforeInitIsRejected(t *testing.T) {
	h := startDispatcher(t, plugin.NewRegistry())

	h.call(t, 0, ipc.MethodCapabilities)

	reply := h.next(t)
	require.Equal(t, ipc.KindCallRejection, reply.Kind)
	assert.Contains(t, reply.Error.Message, "before the plugin is initialized")
}

func TestDispatcher_DisposeWithoutInit(t *testing.T) {
	h := startDispatcher(t, plugin.NewRegistry())

	h.send(t, ipc.NewDispose())

	assert.Equal(t, ipc.KindDisposeCompleted, h.next(t).Kind)
	assert.NoError(t, <-h.done)
}
