package landmark

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go-face-palette/internal/analyzer"
	"go-face-palette/pkg/models"
)

// ErrPoolClosed is returned by Detect after Close
var ErrPoolClosed = errors.New("detector pool is closed")

// Pool owns a fixed set of detector instances and lends one to each call,
// so a detector with internal state never serves two requests at once.
type Pool struct {
	idle chan analyzer.LandmarkDetector
	all  []analyzer.LandmarkDetector

	mu     sync.RWMutex
	closed bool
}

// NewPool builds size detectors with newDetector
func NewPool(size int, newDetector func() (analyzer.LandmarkDetector, error)) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("detector pool size must be > 0 (got %d)", size)
	}

	p := &Pool{idle: make(chan analyzer.LandmarkDetector, size)}
	for i := 0; i < size; i++ {
		d, err := newDetector()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to create detector %d: %w", i, err)
		}
		p.all = append(p.all, d)
		p.idle <- d
	}
	return p, nil
}

// Size reports the number of pooled detectors
func (p *Pool) Size() int {
	return len(p.all)
}

// Detect waits for a free detector or for ctx to end
func (p *Pool) Detect(ctx context.Context, buf *analyzer.PixelBuffer) (models.LandmarkSet, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case d := <-p.idle:
		defer func() { p.idle <- d }()
		return d.Detect(ctx, buf)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes every pooled detector
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for _, d := range p.all {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
