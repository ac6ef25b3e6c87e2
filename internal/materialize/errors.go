package materialize

import "fmt"

// IOError reports a failure after the source was opened: creating,
// writing, syncing or closing the destination, or reading the source.
type IOError struct {
	Op   string // "create", "read", "write", "sync" or "close"
	Path string // destination path
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("materialize %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
