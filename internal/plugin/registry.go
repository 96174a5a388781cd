package plugin

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"gooze.dev/pkg/crucible/internal/ipc"
	m "gooze.dev/pkg/crucible/internal/model"
)

// InitContext is handed to a plugin factory inside the worker process.
type InitContext struct {
	Options    msgpack.RawMessage
	WorkingDir string
	Files      m.FileDescriptions
	Logger     *slog.Logger
}

// DecodeOptions unmarshals the plugin options into v. Empty options leave v untouched.
func (c InitContext) DecodeOptions(v any) error {
	if len(c.Options) == 0 {
		return nil
	}

	if err := msgpack.Unmarshal(c.Options, v); err != nil {
		return fmt.Errorf("failed to decode plugin options: %w", err)
	}

	return nil
}

// TestRunnerFactory constructs a test runner.
type TestRunnerFactory func(ctx InitContext) (TestRunner, error)

// CheckerFactory constructs a checker.
type CheckerFactory func(ctx InitContext) (Checker, error)

// Registry resolves plugin names to factories.
type Registry struct {
	mu          sync.RWMutex
	testRunners map[string]TestRunnerFactory
	checkers    map[string]CheckerFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		testRunners: map[string]TestRunnerFactory{},
		checkers:    map[string]CheckerFactory{},
	}
}

// RegisterTestRunner adds a test runner factory under name.
func (r *Registry) RegisterTestRunner(name string, factory TestRunnerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.testRunners[name] = factory
}

// RegisterChecker adds a checker factory under name.
func (r *Registry) RegisterChecker(name string, factory CheckerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.checkers[name] = factory
}

// TestRunner resolves a test runner factory.
func (r *Registry) TestRunner(name string) (TestRunnerFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.testRunners[name]
	if !ok {
		return nil, fmt.Errorf("no %s plugin named %q (known: %v)", ipc.PluginTestRunner, name, sortedKeys(r.testRunners))
	}

	return factory, nil
}

// Checker resolves a checker factory.
func (r *Registry) Checker(name string) (CheckerFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.checkers[name]
	if !ok {
		return nil, fmt.Errorf("no %s plugin named %q (known: %v)", ipc.PluginChecker, name, sortedKeys(r.checkers))
	}

	return factory, nil
}

func sortedKeys[V any](in map[string]V) []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
