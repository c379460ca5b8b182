package parallel

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestManagerBoundsParallelism(t *testing.T) {
	m := NewConcurrencyManager(3, 2, 2)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Acquire(ctx, CategoryGeneral); err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			if active := m.Active(); active > 3 {
				t.Errorf("active = %d, exceeds cap 3", active)
			}
			time.Sleep(5 * time.Millisecond)
			m.Release(CategoryGeneral)
		}()
	}
	wg.Wait()

	if m.Active() != 0 {
		t.Errorf("active = %d after all work done, want 0", m.Active())
	}
	if peak := m.Peak(); peak > 3 {
		t.Errorf("peak = %d, want at most 3", peak)
	}
}

func TestManagerPeakTracking(t *testing.T) {
	m := NewConcurrencyManager(3, 2, 2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := m.Acquire(ctx, CategoryGeneral); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
	}
	if m.Active() != 3 {
		t.Errorf("active = %d with all slots held, want 3", m.Active())
	}
	for i := 0; i < 3; i++ {
		m.Release(CategoryGeneral)
	}

	if m.Peak() != 3 {
		t.Errorf("peak = %d, want 3", m.Peak())
	}
	if m.Active() != 0 {
		t.Errorf("active = %d after release, want 0", m.Active())
	}
}

func TestManagerCategoryPools(t *testing.T) {
	m := NewConcurrencyManager(3, 1, 2)
	ctx := context.Background()

	// One LLM slot: the second acquire must block until release.
	if err := m.Acquire(ctx, CategoryLLM); err != nil {
		t.Fatalf("first llm acquire failed: %v", err)
	}

	blockedCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := m.Acquire(blockedCtx, CategoryLLM); err == nil {
		t.Error("second llm acquire should block with pool size 1")
		m.Release(CategoryLLM)
	}

	m.Release(CategoryLLM)
	if m.Active() != 0 {
		t.Errorf("active = %d, want 0", m.Active())
	}

	// The blocked category acquire must not leak a general slot.
	for i := 0; i < 3; i++ {
		if err := m.Acquire(ctx, CategoryGeneral); err != nil {
			t.Fatalf("general acquire %d failed: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		m.Release(CategoryGeneral)
	}
}

func TestManagerAcquireHonorsContext(t *testing.T) {
	m := NewConcurrencyManager(1, 1, 1)
	ctx := context.Background()

	if err := m.Acquire(ctx, CategoryGeneral); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer m.Release(CategoryGeneral)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := m.Acquire(cancelled, CategoryGeneral); err == nil {
		t.Error("acquire with cancelled context should fail")
	}
}

func TestManagerDefaults(t *testing.T) {
	m := NewConcurrencyManager(0, -1, 0)
	ctx := context.Background()

	// Defaults must allow at least the documented capacity.
	for i := 0; i < DefaultMaxConcurrent; i++ {
		if err := m.Acquire(ctx, CategoryGeneral); err != nil {
			t.Fatalf("acquire %d failed under defaults: %v", i, err)
		}
	}
	for i := 0; i < DefaultMaxConcurrent; i++ {
		m.Release(CategoryGeneral)
	}
}
