package parallel

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxConcurrent        = 3
	DefaultMaxLLMConcurrent     = 2
	DefaultMaxBrowserConcurrent = 2
)

// Category selects which capacity pool a unit of work draws from.
type Category string

const (
	CategoryGeneral Category = "general"
	CategoryLLM     Category = "llm"
	CategoryBrowser Category = "browser"
)

// ConcurrencyManager bounds in-flight work with a general pool plus
// narrower per-category pools. LLM and browser work holds a category
// slot and a general slot simultaneously.
type ConcurrencyManager struct {
	general *semaphore.Weighted
	llm     *semaphore.Weighted
	browser *semaphore.Weighted

	mu     sync.Mutex
	active int
	peak   int
}

func NewConcurrencyManager(maxConcurrent, maxLLM, maxBrowser int) *ConcurrencyManager {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxLLM <= 0 {
		maxLLM = DefaultMaxLLMConcurrent
	}
	if maxBrowser <= 0 {
		maxBrowser = DefaultMaxBrowserConcurrent
	}
	return &ConcurrencyManager{
		general: semaphore.NewWeighted(int64(maxConcurrent)),
		llm:     semaphore.NewWeighted(int64(maxLLM)),
		browser: semaphore.NewWeighted(int64(maxBrowser)),
	}
}

// Acquire blocks until a slot is free or ctx is done. Category slots
// are taken before the general slot so a saturated general pool cannot
// strand a held category slot.
func (m *ConcurrencyManager) Acquire(ctx context.Context, category Category) error {
	switch category {
	case CategoryLLM:
		if err := m.llm.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("acquire llm slot: %w", err)
		}
		if err := m.general.Acquire(ctx, 1); err != nil {
			m.llm.Release(1)
			return fmt.Errorf("acquire general slot: %w", err)
		}
	case CategoryBrowser:
		if err := m.browser.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("acquire browser slot: %w", err)
		}
		if err := m.general.Acquire(ctx, 1); err != nil {
			m.browser.Release(1)
			return fmt.Errorf("acquire general slot: %w", err)
		}
	default:
		if err := m.general.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("acquire general slot: %w", err)
		}
	}

	m.mu.Lock()
	m.active++
	if m.active > m.peak {
		m.peak = m.active
	}
	m.mu.Unlock()
	return nil
}

// Release frees the slots taken by a matching Acquire. The category
// must match or pool accounting breaks.
func (m *ConcurrencyManager) Release(category Category) {
	m.mu.Lock()
	m.active--
	m.mu.Unlock()

	m.general.Release(1)
	switch category {
	case CategoryLLM:
		m.llm.Release(1)
	case CategoryBrowser:
		m.browser.Release(1)
	}
}

func (m *ConcurrencyManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *ConcurrencyManager) Peak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}
