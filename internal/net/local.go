package net

import "context"

// Local is an in-process remote store. Sessions sharing one Local behave
// like clients of one hub, which makes it the remote of choice for tests and
// for a single machine with several boards open.
type Local struct {
	slots *Slots
}

// NewLocal returns an empty in-process store.
func NewLocal() *Local {
	return &Local{slots: NewSlots()}
}

// Write replaces the value at path.
func (l *Local) Write(ctx context.Context, path string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.slots.Write(path, value)
}

// Subscribe calls fn with the current value at path and every later write.
func (l *Local) Subscribe(ctx context.Context, path string, fn func([]byte)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.slots.Subscribe(path, fn)
}

// Close stops all subscriptions.
func (l *Local) Close() error {
	l.slots.Close()
	return nil
}
