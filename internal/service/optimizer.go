package service

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pds-ultimate/research/internal/domain"
)

const MaxKeyTerms = 10

// stopWords covers Russian and English function words skipped during
// term extraction.
var stopWords = buildWordSet(
	"и", "в", "на", "с", "по", "для", "из", "что", "это", "как",
	"не", "но", "от", "к", "за", "то", "он", "она", "мы", "вы",
	"я", "ты", "его", "её", "их", "мой", "свой", "все", "так",
	"да", "нет", "уже", "ещё", "бы", "ли", "же", "если", "когда",
	"этот", "тот", "такой", "каждый", "весь", "сам", "только",
	"при", "до", "после", "между", "через", "без", "под", "над",
	"перед", "у", "о", "об", "про",
	"a", "the", "is", "in", "on", "at", "to", "for", "of", "and",
	"or", "but", "it", "this", "that", "with", "from", "by", "be",
	"are", "was", "were", "been", "will", "would", "can", "could",
	"an", "as", "if", "so", "no", "not", "do", "does", "did",
	"has", "have", "had", "shall", "should", "may", "might", "its",
	"he", "she", "they", "we", "you", "i", "me", "my",
)

// noiseWords are conversational fillers that add nothing to a search.
var noiseWords = buildWordSet(
	"пожалуйста", "скажи", "подскажи", "расскажи", "мне", "нужно",
	"хочу", "узнать", "найти", "please", "tell", "find", "show",
	"need", "want", "знаешь", "можешь", "помоги", "help",
)

var wordRe = regexp.MustCompile(`[а-яёa-z0-9]{2,}`)

func buildWordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// QueryOptimizer strips conversational noise from user queries and
// extracts the terms worth searching for.
type QueryOptimizer struct {
	expander *QueryExpander
}

func NewQueryOptimizer(expander *QueryExpander) *QueryOptimizer {
	return &QueryOptimizer{expander: expander}
}

// Optimize removes noise words. When every word is noise the original
// query comes back untouched rather than an empty string.
func (o *QueryOptimizer) Optimize(query string) string {
	words := strings.Fields(query)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if noiseWords[strings.ToLower(strings.Trim(w, ",.!?"))] {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return query
	}
	return strings.Join(kept, " ")
}

// ExtractKeyTerms tokenizes, drops stop and noise words, and returns up
// to MaxKeyTerms terms ordered by frequency then first occurrence.
func (o *QueryOptimizer) ExtractKeyTerms(text string) []string {
	tokens := wordRe.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, tok := range tokens {
		if stopWords[tok] || noiseWords[tok] {
			continue
		}
		if _, ok := counts[tok]; !ok {
			firstSeen[tok] = i
		}
		counts[tok]++
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return firstSeen[terms[i]] < firstSeen[terms[j]]
	})
	if len(terms) > MaxKeyTerms {
		terms = terms[:MaxKeyTerms]
	}
	return terms
}

// SuggestAlternatives runs the optimized query through the lexical
// strategies and keeps the rewrites that changed something.
func (o *QueryOptimizer) SuggestAlternatives(query string) []string {
	optimized := o.Optimize(query)
	strategies := []domain.ExpansionStrategy{
		domain.StrategySynonym,
		domain.StrategySpecific,
		domain.StrategyBroad,
	}
	var out []string
	for _, s := range strategies {
		eq := o.expander.Expand(optimized, s, "", DefaultMaxExpansions)
		if eq.Changed() {
			out = append(out, eq.Expanded)
		}
	}
	return out
}
