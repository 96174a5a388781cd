package adapter

import "gooze.dev/pkg/crucible/internal/plugin"

// RegisterPlugins adds the built-in Go toolchain plugins to r.
func RegisterPlugins(r *plugin.Registry, fs SourceFSAdapter) {
	r.RegisterTestRunner(GoTestRunnerName, NewGoTestRunnerFactory(fs))
	r.RegisterChecker(GoBuildCheckerName, NewGoBuildCheckerFactory(fs))
}

// DefaultRegistry returns a registry with the built-in plugins on the local disk.
func DefaultRegistry() *plugin.Registry {
	r := plugin.NewRegistry()
	RegisterPlugins(r, NewLocalSourceFSAdapter())

	return r
}
