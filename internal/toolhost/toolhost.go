// Package toolhost exposes retrieval and portal-scraping operations as
// named, remotely-callable tools, fanned out concurrently per call with
// an individual timeout, per spec §4.12.
package toolhost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// Handler executes one tool call and returns its result or an error.
// Handlers must respect ctx cancellation; the Host applies the per-call
// timeout before invoking them.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Call is one tool invocation requested by the agent.
type Call struct {
	Name string
	Args map[string]interface{}
}

// Result is the outcome of one Call. Status is "ok" or "error"; a failed
// or timed-out call never aborts its siblings.
type Result struct {
	Name   string
	Value  interface{}
	Err    error
	Status string
}

// Host registers tool handlers by name and dispatches batches of calls
// concurrently, each bounded by Timeout.
type Host struct {
	mu      sync.RWMutex
	tools   map[string]Handler
	timeout time.Duration
	logger  arbor.ILogger
}

const defaultCallTimeout = 120 * time.Second

// New creates a Host. A zero timeout uses the default 120s tool-call
// timeout from the wire contract.
func New(timeout time.Duration, logger arbor.ILogger) *Host {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Host{tools: make(map[string]Handler), timeout: timeout, logger: logger}
}

// Register adds or replaces the handler for name.
func (h *Host) Register(name string, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tools[name] = handler
}

// Call executes a single named tool with the host's timeout.
func (h *Host) Call(ctx context.Context, name string, args map[string]interface{}) Result {
	h.mu.RLock()
	handler, ok := h.tools[name]
	h.mu.RUnlock()

	if !ok {
		return Result{Name: name, Status: "error", Err: fmt.Errorf("unknown tool %q", name)}
	}

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	value, err := handler(callCtx, args)
	if err != nil {
		if callCtx.Err() != nil {
			err = fmt.Errorf("tool %q timed out after %s: %w", name, h.timeout, err)
		}
		h.logger.Warn().Err(err).Str("tool", name).Msg("tool call failed")
		return Result{Name: name, Status: "error", Err: err}
	}
	return Result{Name: name, Status: "ok", Value: value}
}

// CallBatch executes every call in parallel and joins once all complete.
// Order of results matches the order of calls; a failure in one call
// never prevents the others from running to completion.
func (h *Host) CallBatch(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))

	var wg sync.WaitGroup
	wg.Add(len(calls))
	for i, call := range calls {
		go func(i int, call Call) {
			defer wg.Done()
			results[i] = h.Call(ctx, call.Name, call.Args)
		}(i, call)
	}
	wg.Wait()

	return results
}
