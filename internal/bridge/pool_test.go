package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPoolSubmit(t *testing.T) {
	p := NewPool(2, 4)
	defer p.Close()

	ch, err := p.Submit(context.Background(), func() *InvocationResult {
		return &InvocationResult{Success: true, CapturedOutput: "hi"}
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case result := <-ch:
		if !result.Success || result.CapturedOutput != "hi" {
			t.Errorf("result = %+v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(2, 8)
	defer p.Close()

	var mu sync.Mutex
	running, peak := 0, 0
	block := make(chan struct{})

	var chans []<-chan *InvocationResult
	for i := 0; i < 6; i++ {
		ch, err := p.Submit(context.Background(), func() *InvocationResult {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()
			<-block
			mu.Lock()
			running--
			mu.Unlock()
			return &InvocationResult{Success: true}
		})
		if err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		chans = append(chans, ch)
	}

	time.Sleep(50 * time.Millisecond)
	close(block)
	for _, ch := range chans {
		<-ch
	}

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestPoolSubmitAfterClose(t *testing.T) {
	p := NewPool(1, 1)
	p.Close()

	_, err := p.Submit(context.Background(), func() *InvocationResult {
		return &InvocationResult{}
	})
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("err = %v, want ErrPoolClosed", err)
	}
}

func TestPoolSubmitHonorsContext(t *testing.T) {
	p := NewPool(1, 1)
	defer p.Close()

	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker and fill the queue.
	p.Submit(context.Background(), func() *InvocationResult {
		<-block
		return &InvocationResult{}
	})
	p.Submit(context.Background(), func() *InvocationResult {
		return &InvocationResult{}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Submit(ctx, func() *InvocationResult {
		return &InvocationResult{}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestPoolCloseIdempotent(t *testing.T) {
	p := NewPool(1, 1)
	p.Close()
	p.Close()
}
