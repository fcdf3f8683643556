package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// State is the lifecycle state of the Handle.
type State int32

const (
	StateUninitialized State = iota
	StateStarting
	StateReady
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateStopped:
		return "stopped"
	}
	return "invalid"
}

// ErrStopped is returned by EnsureStarted after Shutdown.
var ErrStopped = errors.New("runtime: handle stopped")

// StartFunc establishes the connection to the primary agent runtime.
type StartFunc func(ctx context.Context) (Client, error)

// shutdownGrace bounds how long Shutdown waits for a graceful close.
const shutdownGrace = 5 * time.Second

// Handle owns the single long-lived runtime connection for the process.
// It starts lazily on first use; concurrent first callers share one start
// attempt, and a failed start clears the in-flight state so a later call
// retries from scratch.
type Handle struct {
	start  StartFunc
	logger *log.Logger

	flight singleflight.Group

	mu     sync.Mutex
	state  State
	client Client
}

// NewHandle creates an uninitialized Handle. logger may be nil.
func NewHandle(start StartFunc, logger *log.Logger) *Handle {
	if logger == nil {
		logger = log.Default()
	}
	return &Handle{start: start, logger: logger}
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// EnsureStarted returns the ready client, starting the runtime if needed.
// All concurrent callers during a start observe the outcome of the same
// single attempt.
func (h *Handle) EnsureStarted(ctx context.Context) (Client, error) {
	h.mu.Lock()
	switch h.state {
	case StateReady:
		client := h.client
		h.mu.Unlock()
		return client, nil
	case StateStopped:
		h.mu.Unlock()
		return nil, ErrStopped
	}
	h.mu.Unlock()

	ch := h.flight.DoChan("start", func() (any, error) {
		return h.doStart(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Client), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// doStart runs the single start attempt. It is serialized by the
// singleflight group; the state transitions bracket the attempt so failure
// rewinds to uninitialized for a later retry.
func (h *Handle) doStart(ctx context.Context) (Client, error) {
	h.mu.Lock()
	switch h.state {
	case StateReady:
		client := h.client
		h.mu.Unlock()
		return client, nil
	case StateStopped:
		h.mu.Unlock()
		return nil, ErrStopped
	}
	h.state = StateStarting
	h.mu.Unlock()

	client, err := h.start(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.state = StateUninitialized
		return nil, fmt.Errorf("runtime start: %w", err)
	}
	if h.state == StateStopped {
		// Shutdown raced the start; don't leak the fresh connection.
		go func() { _ = client.Close(context.Background()) }()
		return nil, ErrStopped
	}
	h.state = StateReady
	h.client = client
	h.logger.Info("primary runtime ready")
	return client, nil
}

// Shutdown tears the runtime down. It never returns an error: it runs from
// the signal path where there is no recovery, so close failures are logged
// and swallowed. After Shutdown the handle refuses to restart.
func (h *Handle) Shutdown(ctx context.Context) {
	h.mu.Lock()
	client := h.client
	h.state = StateStopped
	h.client = nil
	h.mu.Unlock()

	if client == nil {
		return
	}

	closeCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	if err := client.Close(closeCtx); err != nil {
		h.logger.Warn("graceful runtime close failed, forcing", "error", err)
		if fc, ok := client.(interface{ ForceClose() }); ok {
			fc.ForceClose()
		}
	}
}
