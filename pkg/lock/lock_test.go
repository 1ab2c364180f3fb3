package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedMutexExcludesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, "bpk/2024-02-01")
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				old := atomic.LoadInt32(&maxInside)
				if n <= old || atomic.CompareAndSwapInt32(&maxInside, old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after all unlocks, want 0", m.Len())
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := m.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("Lock(a) error = %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := m.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("Lock(b) error = %v, want no blocking on a different key", err)
	}
	unlockB()
}

func TestKeyedMutexContextCancel(t *testing.T) {
	m := NewKeyedMutex()

	unlock, err := m.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Lock() error = %v, want DeadlineExceeded", err)
	}

	unlock()
	unlock() // second call is a no-op
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}

	again, err := m.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("Lock() after release error = %v", err)
	}
	again()
}

func TestNewRedisLockerOptions(t *testing.T) {
	l := NewRedisLocker(nil, WithTTL(time.Second), WithKeyPrefix("test:"), WithTTL(0))
	if l.ttl != time.Second {
		t.Errorf("ttl = %v, want 1s", l.ttl)
	}
	if l.prefix != "test:" {
		t.Errorf("prefix = %q, want test:", l.prefix)
	}
}
