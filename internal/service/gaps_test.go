package service

import (
	"testing"

	"github.com/pds-ultimate/research/internal/domain"
)

func TestAnalyzeShortAnswerShortCircuits(t *testing.T) {
	a := NewGapAnalyzer()

	// Every other signal would also fire here, but the short answer wins alone.
	gaps := a.Analyze("сколько стоит доставка", "мало", 10, 0.1)
	if len(gaps) != 1 {
		t.Fatalf("expected exactly 1 gap, got %d", len(gaps))
	}
	if gaps[0].Type != domain.GapMissingData {
		t.Errorf("gap type = %v, want %v", gaps[0].Type, domain.GapMissingData)
	}
	if gaps[0].Priority != PriorityMissingData {
		t.Errorf("priority = %v, want %v", gaps[0].Priority, PriorityMissingData)
	}
	if gaps[0].SuggestedQuery != "сколько стоит доставка" {
		t.Errorf("suggested query should echo the original, got %q", gaps[0].SuggestedQuery)
	}
}

func TestAnalyzeNumericGap(t *testing.T) {
	a := NewGapAnalyzer()

	gaps := a.Analyze(
		"Курс доллара к манату",
		"Курс постоянно меняется и зависит от многих факторов на рынке.",
		2, 0.8,
	)
	found := false
	for _, g := range gaps {
		if g.Type == domain.GapNoNumbers {
			found = true
			if g.Priority != PriorityNoNumbers {
				t.Errorf("priority = %v, want %v", g.Priority, PriorityNoNumbers)
			}
		}
	}
	if !found {
		t.Error("expected a no_numbers gap for a rate query without digits")
	}

	// Digits present, no gap.
	gaps = a.Analyze(
		"Курс доллара к манату",
		"Официальный курс составляет 3.5 TMT за доллар по данным ЦБ.",
		2, 0.8,
	)
	for _, g := range gaps {
		if g.Type == domain.GapNoNumbers {
			t.Error("answer with digits should not flag no_numbers")
		}
	}
}

func TestAnalyzeNoSourceGap(t *testing.T) {
	a := NewGapAnalyzer()

	gaps := a.Analyze("как работает таможня", "Таможенное оформление проходит в несколько этапов и занимает время.", 0, 0.8)
	found := false
	for _, g := range gaps {
		if g.Type == domain.GapNoSource {
			found = true
		}
	}
	if !found {
		t.Error("expected no_source gap when source count is zero")
	}
}

func TestAnalyzeVagueAnswer(t *testing.T) {
	a := NewGapAnalyzer()

	gaps := a.Analyze(
		"когда придёт груз",
		"Возможно на следующей неделе, но это зависит от погоды, трудно сказать точнее.",
		2, 0.8,
	)
	found := false
	for _, g := range gaps {
		if g.Type == domain.GapVague {
			found = true
		}
	}
	if !found {
		t.Error("expected vague gap with two or more hedging markers")
	}
}

func TestAnalyzeLowConfidence(t *testing.T) {
	a := NewGapAnalyzer()

	gaps := a.Analyze("что выгоднее", "Однозначно выгоднее второй вариант при текущих условиях рынка.", 2, 0.4)
	found := false
	for _, g := range gaps {
		if g.Type == domain.GapIncomplete && g.Priority == PriorityLowConfidence {
			found = true
		}
	}
	if !found {
		t.Error("expected low-confidence gap below the cutoff")
	}
}

func TestAnalyzeSortsByPriority(t *testing.T) {
	a := NewGapAnalyzer()

	gaps := a.Analyze(
		"сколько стоит доставка контейнера из Китая в Ашхабад",
		"Стоимость зависит от сезона, возможно дорого, может быть дешевле.",
		0, 0.3,
	)
	if len(gaps) < 2 {
		t.Fatalf("expected multiple gaps, got %d", len(gaps))
	}
	for i := 1; i < len(gaps); i++ {
		if gaps[i].Priority > gaps[i-1].Priority {
			t.Errorf("gaps not sorted: %v before %v", gaps[i-1].Priority, gaps[i].Priority)
		}
	}
	if gaps[0].Type != domain.GapNoNumbers {
		t.Errorf("highest priority gap = %v, want no_numbers", gaps[0].Type)
	}
}
