package slidecap

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one capture can run.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent Chrome processes (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned when capturing through a closed pool.
var ErrPoolClosed = errors.New("capturer pool is closed")

// CapturerPool bounds the number of simultaneous captures.
// Each capture still launches and closes its own browser; the pool never
// keeps a browser alive between requests.
type CapturerPool struct {
	capturer *Capturer
	size     int
	slots    chan struct{}
	mu       sync.Mutex
	closed   bool
	done     chan struct{}
}

// NewCapturerPool creates a pool allowing n concurrent captures through capt.
func NewCapturerPool(capt *Capturer, n int) *CapturerPool {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	return &CapturerPool{
		capturer: capt,
		size:     n,
		slots:    make(chan struct{}, n),
		done:     make(chan struct{}),
	}
}

// Acquire reserves a capture slot, blocking while all slots are in use.
// Returns ctx.Err() if ctx ends first, ErrPoolClosed after Close.
func (p *CapturerPool) Acquire(ctx context.Context) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPoolClosed
	}

	select {
	case p.slots <- struct{}{}:
		return nil
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot reserved by Acquire.
func (p *CapturerPool) Release() {
	select {
	case <-p.slots:
	default:
	}
}

// Capture runs capturer.Capture inside a pool slot.
func (p *CapturerPool) Capture(ctx context.Context, req CaptureRequest) (*Result, error) {
	if err := p.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.Release()
	return p.capturer.Capture(ctx, req)
}

// Capturer returns the pooled capturer.
func (p *CapturerPool) Capturer() *Capturer {
	return p.capturer
}

// Close stops handing out slots. Captures already running finish normally.
func (p *CapturerPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)
	return nil
}

// InUse returns the number of reserved slots.
func (p *CapturerPool) InUse() int {
	return len(p.slots)
}

// Size returns the pool capacity.
func (p *CapturerPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the optimal pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
