package ipc

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	m "gooze.dev/pkg/crucible/internal/model"
)

// WorkerMessageKind tags messages sent from the parent to a worker.
type WorkerMessageKind string

// Parent to worker message kinds.
const (
	KindInit    WorkerMessageKind = "init"
	KindCall    WorkerMessageKind = "call"
	KindDispose WorkerMessageKind = "dispose"
)

// ParentMessageKind tags messages sent from a worker to the parent.
type ParentMessageKind string

// Worker to parent message kinds.
const (
	KindReady            ParentMessageKind = "ready"
	KindInitialized      ParentMessageKind = "initialized"
	KindCallResult       ParentMessageKind = "callResult"
	KindCallRejection    ParentMessageKind = "callRejection"
	KindDisposeCompleted ParentMessageKind = "disposeCompleted"
	KindInitError        ParentMessageKind = "initError"
)

// PluginKind selects which family of plugin the worker hosts.
type PluginKind string

// Plugin kinds.
const (
	PluginTestRunner PluginKind = "TestRunner"
	PluginChecker    PluginKind = "Checker"
)

// Plugin method names carried in CallMessage.Method.
const (
	MethodInit         = "init"
	MethodDispose      = "dispose"
	MethodCapabilities = "capabilities"
	MethodDryRun       = "dryRun"
	MethodMutantRun    = "mutantRun"
	MethodCheck        = "check"
)

// LoggingContext carries the parent's logging settings into the worker.
type LoggingContext struct {
	Level int `msgpack:"level"`
}

// InitMessage asks the worker to construct its plugin.
type InitMessage struct {
	PluginKind PluginKind         `msgpack:"pluginKind"`
	PluginName string             `msgpack:"pluginName"`
	Logging    LoggingContext     `msgpack:"logging"`
	Options    msgpack.RawMessage `msgpack:"options,omitempty"`
	Files      m.FileDescriptions `msgpack:"files,omitempty"`
	WorkingDir string             `msgpack:"workingDir"`
}

// CallMessage invokes a plugin method.
type CallMessage struct {
	CorrelationID int                  `msgpack:"correlationId"`
	Method        string               `msgpack:"methodName"`
	Args          []msgpack.RawMessage `msgpack:"args"`
}

// WorkerMessage is the parent to worker tagged union.
type WorkerMessage struct {
	Kind WorkerMessageKind `msgpack:"kind"`
	Init *InitMessage      `msgpack:"init,omitempty"`
	Call *CallMessage      `msgpack:"call,omitempty"`
}

// ParentMessage is the worker to parent tagged union.
type ParentMessage struct {
	Kind          ParentMessageKind  `msgpack:"kind"`
	CorrelationID int                `msgpack:"correlationId"`
	Result        msgpack.RawMessage `msgpack:"result,omitempty"`
	Error         *SerializedError   `msgpack:"error,omitempty"`
}

// NewInit builds an init message.
func NewInit(init InitMessage) WorkerMessage {
	return WorkerMessage{Kind: KindInit, Init: &init}
}

// NewCall builds a call message, encoding each argument.
func NewCall(correlationID int, method string, args ...any) (WorkerMessage, error) {
	raw := make([]msgpack.RawMessage, 0, len(args))

	for i, arg := range args {
		b, err := msgpack.Marshal(arg)
		if err != nil {
			return WorkerMessage{}, fmt.Errorf("failed to encode argument %d of %s: %w", i, method, err)
		}

		raw = append(raw, b)
	}

	return WorkerMessage{
		Kind: KindCall,
		Call: &CallMessage{CorrelationID: correlationID, Method: method, Args: raw},
	}, nil
}

// NewDispose builds a dispose message.
func NewDispose() WorkerMessage {
	return WorkerMessage{Kind: KindDispose}
}

// Validate checks that the payload matching Kind is present.
func (msg WorkerMessage) Validate() error {
	switch msg.Kind {
	case KindInit:
		if msg.Init == nil {
			return fmt.Errorf("init message without payload")
		}
	case KindCall:
		if msg.Call == nil {
			return fmt.Errorf("call message without payload")
		}
	case KindDispose:
	default:
		return fmt.Errorf("unknown worker message kind %q", msg.Kind)
	}

	return nil
}
