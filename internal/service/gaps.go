package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pds-ultimate/research/internal/domain"
)

const (
	MinAnswerLength         = 20
	ShortAnswerLength       = 100
	ComplexQueryWords       = 5
	VagueMarkerThreshold    = 2
	LowConfidenceGapCutoff  = 0.5
	PriorityMissingData     = 1.0
	PriorityNoNumbers       = 0.8
	PriorityNoSource        = 0.7
	PriorityLowConfidence   = 0.65
	PriorityIncomplete      = 0.6
	PriorityVague           = 0.5
)

// Query wordings that imply a numeric answer.
var numericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`сколько|цена|стоимость|курс|rate|price|cost|количество`),
	regexp.MustCompile(`how much|how many|percentage|процент|прибыль|расход`),
}

var digitRe = regexp.MustCompile(`\d`)

var vagueMarkers = []string{
	"возможно", "вероятно", "может быть", "трудно сказать",
	"зависит от", "по-разному", "maybe", "perhaps",
}

// GapAnalyzer inspects a candidate answer against its query and flags
// the categories of information that are missing.
type GapAnalyzer struct{}

func NewGapAnalyzer() *GapAnalyzer {
	return &GapAnalyzer{}
}

// Analyze returns detected gaps sorted by priority descending. An empty
// or sub-20-character answer short-circuits into a single missing-data
// gap regardless of every other signal.
func (a *GapAnalyzer) Analyze(query, answer string, sourceCount int, confidence float64) []domain.InformationGap {
	var gaps []domain.InformationGap

	if len(strings.TrimSpace(answer)) < MinAnswerLength {
		return []domain.InformationGap{{
			Type:           domain.GapMissingData,
			Description:    "Ответ слишком короткий или пустой",
			SuggestedQuery: query,
			Priority:       PriorityMissingData,
		}}
	}

	if a.needsNumbers(query) && !digitRe.MatchString(answer) {
		gaps = append(gaps, domain.InformationGap{
			Type:           domain.GapNoNumbers,
			Description:    "Запрос подразумевает числа, но их нет в ответе",
			SuggestedQuery: query + " точные цифры данные",
			Priority:       PriorityNoNumbers,
		})
	}

	if sourceCount == 0 {
		gaps = append(gaps, domain.InformationGap{
			Type:           domain.GapNoSource,
			Description:    "Нет подтверждающих источников",
			SuggestedQuery: query,
			Priority:       PriorityNoSource,
		})
	}

	if len(answer) < ShortAnswerLength && len(strings.Fields(query)) > ComplexQueryWords {
		gaps = append(gaps, domain.InformationGap{
			Type:           domain.GapIncomplete,
			Description:    "Ответ может быть неполным для сложного вопроса",
			SuggestedQuery: query + " подробно детально",
			Priority:       PriorityIncomplete,
		})
	}

	lower := strings.ToLower(answer)
	vagueCount := 0
	for _, m := range vagueMarkers {
		if strings.Contains(lower, m) {
			vagueCount++
		}
	}
	if vagueCount >= VagueMarkerThreshold {
		gaps = append(gaps, domain.InformationGap{
			Type:           domain.GapVague,
			Description:    "Ответ содержит много размытых формулировок",
			SuggestedQuery: query + " конкретно точно",
			Priority:       PriorityVague,
		})
	}

	if confidence < LowConfidenceGapCutoff {
		gaps = append(gaps, domain.InformationGap{
			Type:           domain.GapIncomplete,
			Description:    fmt.Sprintf("Низкая уверенность (%.0f%%)", confidence*100),
			SuggestedQuery: query + " verified reliable",
			Priority:       PriorityLowConfidence,
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Priority > gaps[j].Priority
	})
	return gaps
}

func (a *GapAnalyzer) needsNumbers(query string) bool {
	lower := strings.ToLower(query)
	for _, p := range numericPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}
