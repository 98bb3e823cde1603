// Package app defines the runtime contract shared by the cmd/* entrypoints
// (API server, migration runner).
package app

// Runner represents a runnable application component.
type Runner interface {
	Run() error
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func() error

// Run calls f.
func (f RunnerFunc) Run() error {
	return f()
}
