package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"schemevm/types"
)

// Tracer provides execution tracing for the bytecode interpreter.
// Adapted from the teacher's verb-call tracer: same mutex-guarded,
// glob-filtered io.Writer shape, retargeted at VM dispatch/call/handler
// events instead of MOO verb calls.
type Tracer struct {
	enabled bool
	filters []string
	writer  io.Writer
	mu      sync.Mutex
}

// New builds an enabled tracer writing to w (os.Stderr if nil), only
// emitting events whose name matches one of filters (all events if
// filters is empty).
func New(filters []string, w io.Writer) *Tracer {
	if w == nil {
		w = os.Stderr
	}
	return &Tracer{enabled: true, filters: filters, writer: w}
}

// NewDisabled returns a Tracer whose methods are all no-ops; the zero
// cost path vm.New takes when no -trace flag is given.
func NewDisabled() *Tracer {
	return &Tracer{enabled: false}
}

func (t *Tracer) matchesFilter(name string) bool {
	if len(t.filters) == 0 {
		return true
	}
	for _, pattern := range t.filters {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// Dispatch logs a single opcode step: name is op.String(), pc is the
// instruction's starting offset. The hottest of the trace points, so it
// bails before taking the lock when tracing is off or filtered out.
func (t *Tracer) Dispatch(name string, pc int) {
	if t == nil || !t.enabled || !t.matchesFilter(name) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE] %04d %s\n", pc, name)
}

// Call logs entry into a closure or primitive, tail identifies a
// TAIL_INVOKE (reused activation record) versus an INVOKE (pushed one).
func (t *Tracer) Call(name string, nargs int, tail bool) {
	if t == nil || !t.enabled || !t.matchesFilter(name) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	kind := "call"
	if tail {
		kind = "tail-call"
	}
	fmt.Fprintf(t.writer, "[TRACE] %s %s nargs=%d\n", kind, name, nargs)
}

// Return logs a RETURN/RETURN_FROM_PRIMITIVE producing result.
func (t *Tracer) Return(name string, result types.Value) {
	if t == nil || !t.enabled || !t.matchesFilter(name) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	resultStr := "#<void>"
	if result != nil {
		resultStr = result.String()
	}
	fmt.Fprintf(t.writer, "[TRACE] return %s => %s\n", name, resultStr)
}

// HandlerPush logs a PUSH_HANDLER installing proc as the new innermost
// handler, resuming at resumePC on return or escape.
func (t *Tracer) HandlerPush(proc types.Value, resumePC int) {
	if t == nil || !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE] push-handler %s resume=%04d\n", proc.String(), resumePC)
}

// HandlerPop logs a POP_HANDLER uninstalling the innermost handler.
func (t *Tracer) HandlerPop() {
	if t == nil || !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE] pop-handler\n")
}

// Raise logs a condition being raised and the depth of the handler
// chain it searched, before the matching handler (if any) runs.
func (t *Tracer) Raise(kind string, depth int) {
	if t == nil || !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE] raise %s chain-depth=%d\n", kind, depth)
}

// ContinuationCapture logs a %make-continuation call.
func (t *Tracer) ContinuationCapture(fresh bool) {
	if t == nil || !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE] capture-continuation fresh=%v\n", fresh)
}

// ContinuationRestore logs a %restore-continuation call, marking the
// invoked continuation no longer fresh.
func (t *Tracer) ContinuationRestore() {
	if t == nil || !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE] restore-continuation\n")
}
