package landmark

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-face-palette/internal/analyzer"
	"go-face-palette/pkg/models"
)

// exclusiveDetector fails the test if two callers use it at once
type exclusiveDetector struct {
	t      *testing.T
	inUse  atomic.Bool
	closed atomic.Bool
}

func (d *exclusiveDetector) Detect(ctx context.Context, buf *analyzer.PixelBuffer) (models.LandmarkSet, error) {
	if !d.inUse.CompareAndSwap(false, true) {
		d.t.Error("Detector used concurrently")
	}
	time.Sleep(2 * time.Millisecond)
	d.inUse.Store(false)
	return models.LandmarkSet{{X: 0.1, Y: 0.1}}, nil
}

func (d *exclusiveDetector) Close() error {
	d.closed.Store(true)
	return nil
}

func TestPool_ExclusiveCheckout(t *testing.T) {
	var created []*exclusiveDetector
	pool, err := NewPool(2, func() (analyzer.LandmarkDetector, error) {
		d := &exclusiveDetector{t: t}
		created = append(created, d)
		return d, nil
	})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	if pool.Size() != 2 {
		t.Errorf("Expected size 2, got %d", pool.Size())
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pool.Detect(context.Background(), testBuffer()); err != nil {
				t.Errorf("Detect() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	for i, d := range created {
		if !d.closed.Load() {
			t.Errorf("Detector %d was not closed", i)
		}
	}
	if _, err := pool.Detect(context.Background(), testBuffer()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_WaitHonorsContext(t *testing.T) {
	block := make(chan struct{})
	pool, err := NewPool(1, func() (analyzer.LandmarkDetector, error) {
		return &blockingDetector{release: block}, nil
	})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	go pool.Detect(context.Background(), testBuffer())
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := pool.Detect(ctx, testBuffer()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded while pool is busy, got %v", err)
	}
	close(block)
}

type blockingDetector struct {
	release chan struct{}
}

func (d *blockingDetector) Detect(ctx context.Context, buf *analyzer.PixelBuffer) (models.LandmarkSet, error) {
	<-d.release
	return nil, analyzer.ErrNoFace
}

func (d *blockingDetector) Close() error { return nil }

func TestNewPool_Errors(t *testing.T) {
	if _, err := NewPool(0, func() (analyzer.LandmarkDetector, error) { return &StaticDetector{}, nil }); err == nil {
		t.Error("Expected error for empty pool")
	}

	boom := errors.New("model load failed")
	n := 0
	_, err := NewPool(3, func() (analyzer.LandmarkDetector, error) {
		n++
		if n == 2 {
			return nil, boom
		}
		return &StaticDetector{}, nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected factory error, got %v", err)
	}
}

func TestStaticDetector(t *testing.T) {
	d := &StaticDetector{}
	if _, err := d.Detect(context.Background(), testBuffer()); !errors.Is(err, analyzer.ErrNoFace) {
		t.Errorf("Expected ErrNoFace without landmarks, got %v", err)
	}

	parsed, err := ParseStaticDetector([]byte(twoPointFace))
	if err != nil {
		t.Fatalf("ParseStaticDetector() error = %v", err)
	}
	got, err := parsed.Detect(context.Background(), testBuffer())
	if err != nil || len(got) != 2 {
		t.Fatalf("Expected 2 landmarks, got %v (%v)", got, err)
	}
	got[0].X = 99
	again, _ := parsed.Detect(context.Background(), testBuffer())
	if again[0].X == 99 {
		t.Error("Expected Detect to return a copy")
	}

	if _, err := ParseStaticDetector([]byte("{")); err == nil {
		t.Error("Expected error for malformed file")
	}
}
