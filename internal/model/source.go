package model

// Path represents a file system path.
type Path string

// FileDescription tells a plugin how to treat one file of the project.
type FileDescription struct {
	Mutate bool `msgpack:"mutate" yaml:"mutate"`
}

// FileDescriptions maps project-relative file names to their description.
type FileDescriptions map[Path]FileDescription

// Capabilities are the optional features a test runner reports.
type Capabilities struct {
	// ReloadEnvironment is true when the runner can reset global state
	// between runs without a process restart.
	ReloadEnvironment bool `msgpack:"reloadEnvironment"`
}
