package parallel

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunAllCollectsEveryResult(t *testing.T) {
	r := NewRunner(NewConcurrencyManager(2, 2, 2), zap.NewNop())

	tasks := map[string]TaskFunc{
		"ok":   func(ctx context.Context) (any, error) { return 42, nil },
		"fail": func(ctx context.Context) (any, error) { return nil, errors.New("boom") },
		"slow": func(ctx context.Context) (any, error) {
			time.Sleep(5 * time.Millisecond)
			return "done", nil
		},
	}

	results := r.RunAll(context.Background(), tasks, CategoryGeneral)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if !results["ok"].Success || results["ok"].Result != 42 {
		t.Errorf("ok result = %+v", results["ok"])
	}
	if results["fail"].Success || results["fail"].Error == "" {
		t.Errorf("fail result = %+v, want recorded error", results["fail"])
	}
	if !results["slow"].Success {
		t.Errorf("slow result = %+v", results["slow"])
	}
	if results["slow"].DurationMS <= 0 {
		t.Errorf("duration = %v, want positive", results["slow"].DurationMS)
	}
}

func TestRunAllEmpty(t *testing.T) {
	r := NewRunner(NewConcurrencyManager(2, 2, 2), zap.NewNop())
	results := r.RunAll(context.Background(), nil, CategoryGeneral)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
