package tree

import (
	"github.com/npillmayer/laytree/worker"
	"github.com/npillmayer/schuko/tracing"
)

// Option is a type to help initializing trees at creation time.
type Option func(*Tree)

// QueueLimit bounds the number of requests pending for the layout worker.
// n ≤ 0 means unbounded, which is the default.
//
// Use it like this:
//
//     t := tree.New(QueueLimit(64), Overflow(worker.Reject))
//
func QueueLimit(n int) Option {
	return func(t *Tree) {
		t.conf.QueueLimit = max(0, n)
	}
}

// Overflow sets what happens if a request is enqueued while a bounded
// queue is full: worker.Block waits for room, worker.Reject fails with
// ErrQueueFull. Without QueueLimit the policy has no effect.
func Overflow(policy worker.Policy) Option {
	return func(t *Tree) {
		t.conf.Overflow = policy
	}
}

// WithEngine replaces the default flexbox engine. The engine is handed to
// the layout worker and must not be used by the client afterwards.
func WithEngine(eng worker.Engine) Option {
	return func(t *Tree) {
		if eng != nil {
			t.engine = eng
		}
	}
}

// traceKeys are the tracing keys of all packages of this module.
var traceKeys = []string{"laytree.tree", "laytree.worker", "laytree.engine", "laytree.layoutdbg"}

// TraceLevel sets the trace level of all packages of this module. level is
// one of "debug", "info" or "error". Trace levels are global and outlive
// the tree.
func TraceLevel(level string) Option {
	return func(*Tree) {
		if err := SetTraceLevel(level); err != nil {
			tracer().Errorf("tree option: %v", err)
		}
	}
}

// SetTraceLevel sets the trace level of all packages of this module. It
// fails with ErrConfig for an unknown level.
func SetTraceLevel(level string) error {
	var set func(tracing.Trace)
	switch level {
	case "debug":
		set = func(t tracing.Trace) { t.SetTraceLevel(tracing.LevelDebug) }
	case "info":
		set = func(t tracing.Trace) { t.SetTraceLevel(tracing.LevelInfo) }
	case "error":
		set = func(t tracing.Trace) { t.SetTraceLevel(tracing.LevelError) }
	default:
		return configError("unknown trace level %q", level)
	}
	for _, key := range traceKeys {
		set(tracing.Select(key))
	}
	return nil
}
