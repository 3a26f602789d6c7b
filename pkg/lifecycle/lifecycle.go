// Package lifecycle coordinates named startup checks and shutdown hooks
// across the systems a process owns.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

// Coordinator runs startup hooks concurrently as they are registered and
// defers shutdown hooks until Shutdown is called.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup sync.WaitGroup

	mu       sync.RWMutex
	ready    bool
	failures map[string]error
	shutdown []hook
}

type hook struct {
	name string
	fn   func(context.Context) error
}

// New creates a Coordinator whose context is cancelled by Shutdown.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:      ctx,
		cancel:   cancel,
		failures: make(map[string]error),
	}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in the background. A returned error is recorded
// against name and keeps the coordinator from reporting ready.
func (c *Coordinator) OnStartup(name string, fn func(context.Context) error) {
	c.startup.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.failures[name] = err
			c.mu.Unlock()
		}
	})
}

// OnShutdown registers fn to run when Shutdown is called. Hooks run
// concurrently and receive a context bounded by the shutdown timeout.
func (c *Coordinator) OnShutdown(name string, fn func(context.Context) error) {
	c.mu.Lock()
	c.shutdown = append(c.shutdown, hook{name: name, fn: fn})
	c.mu.Unlock()
}

// WaitForStartup blocks until every startup hook has returned. It
// returns the joined startup failures.
func (c *Coordinator) WaitForStartup() error {
	c.startup.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = len(c.failures) == 0
	return joinFailures(c.failures)
}

// Ready reports whether startup finished without failures.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Failures returns a copy of the startup failures keyed by hook name.
func (c *Coordinator) Failures() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.failures)
}

// Shutdown cancels the coordinator context and runs every shutdown hook
// within timeout. Hook errors and a timeout are joined in the result.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	c.mu.Lock()
	c.ready = false
	hooks := c.shutdown
	c.shutdown = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs = make(map[string]error)
	)
	for _, h := range hooks {
		wg.Go(func() {
			if err := h.fn(ctx); err != nil {
				mu.Lock()
				errs[h.name] = err
				mu.Unlock()
			}
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}

	mu.Lock()
	defer mu.Unlock()
	return joinFailures(errs)
}

func joinFailures(failures map[string]error) error {
	errs := make([]error, 0, len(failures))
	for name, err := range failures {
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return errors.Join(errs...)
}
