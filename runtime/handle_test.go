package runtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	closed   atomic.Int32
	closeErr error
	forced   atomic.Int32
}

func (f *fakeClient) NewSession(context.Context, SessionConfig) (Session, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) Close(context.Context) error {
	f.closed.Add(1)
	return f.closeErr
}

func (f *fakeClient) ForceClose() {
	f.forced.Add(1)
}

func TestHandle_EnsureStarted(t *testing.T) {
	client := &fakeClient{}
	h := NewHandle(func(context.Context) (Client, error) { return client, nil }, nil)

	assert.Equal(t, StateUninitialized, h.State())

	got, err := h.EnsureStarted(context.Background())
	require.NoError(t, err)
	assert.Same(t, Client(client), got)
	assert.Equal(t, StateReady, h.State())
}

func TestHandle_ConcurrentFirstCallersShareOneStart(t *testing.T) {
	var starts atomic.Int32
	client := &fakeClient{}
	release := make(chan struct{})

	h := NewHandle(func(context.Context) (Client, error) {
		starts.Add(1)
		<-release
		return client, nil
	}, nil)

	const n = 16
	results := make([]Client, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.EnsureStarted(context.Background())
		}(i)
	}

	// Give every goroutine a chance to pile onto the in-flight start.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), starts.Load(), "start routine must execute once")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, Client(client), results[i])
	}
}

func TestHandle_FailedStartAllowsRetry(t *testing.T) {
	var starts atomic.Int32
	client := &fakeClient{}

	h := NewHandle(func(context.Context) (Client, error) {
		if starts.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return client, nil
	}, nil)

	_, err := h.EnsureStarted(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime start")
	assert.Equal(t, StateUninitialized, h.State(), "failure must rewind for retry")

	got, err := h.EnsureStarted(context.Background())
	require.NoError(t, err)
	assert.Same(t, Client(client), got)
	assert.Equal(t, int32(2), starts.Load())
}

func TestHandle_ConcurrentCallersObserveSameFailure(t *testing.T) {
	var starts atomic.Int32
	release := make(chan struct{})

	h := NewHandle(func(context.Context) (Client, error) {
		starts.Add(1)
		<-release
		return nil, errors.New("boom")
	}, nil)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.EnsureStarted(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), starts.Load())
	for i := 0; i < n; i++ {
		assert.Error(t, errs[i])
	}
}

func TestHandle_EnsureStartedRespectsContext(t *testing.T) {
	h := NewHandle(func(ctx context.Context) (Client, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := h.EnsureStarted(ctx)
	assert.Error(t, err)
}

func TestHandle_ShutdownClosesClient(t *testing.T) {
	client := &fakeClient{}
	h := NewHandle(func(context.Context) (Client, error) { return client, nil }, nil)

	_, err := h.EnsureStarted(context.Background())
	require.NoError(t, err)

	h.Shutdown(context.Background())
	assert.Equal(t, StateStopped, h.State())
	assert.Equal(t, int32(1), client.closed.Load())
}

func TestHandle_ShutdownSwallowsCloseFailure(t *testing.T) {
	client := &fakeClient{closeErr: errors.New("hang")}
	h := NewHandle(func(context.Context) (Client, error) { return client, nil }, nil)

	_, err := h.EnsureStarted(context.Background())
	require.NoError(t, err)

	h.Shutdown(context.Background()) // must not panic or propagate
	assert.Equal(t, int32(1), client.forced.Load(), "failed graceful close falls back to force")
}

func TestHandle_EnsureStartedAfterShutdown(t *testing.T) {
	h := NewHandle(func(context.Context) (Client, error) { return &fakeClient{}, nil }, nil)

	h.Shutdown(context.Background())
	_, err := h.EnsureStarted(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestHandle_ShutdownBeforeStartIsNoop(t *testing.T) {
	h := NewHandle(func(context.Context) (Client, error) { return &fakeClient{}, nil }, nil)
	h.Shutdown(context.Background())
	assert.Equal(t, StateStopped, h.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "invalid", State(9).String())
}
