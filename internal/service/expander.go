package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pds-ultimate/research/internal/domain"
)

const (
	DefaultMaxExpansions      = 3
	DefaultContextualMax      = 3
	DefaultRelatedMax         = 2
	ConfidenceTermsAdded      = 0.7
	ConfidenceNoChange        = 0.3
	ConfidenceContextualAdded = 0.8
	ConfidenceTemporalAdded   = 0.75
	ConfidenceSpecificAdded   = 0.6
	ConfidenceNeutral         = 0.5
)

// Bilingual business synonym table. Keys are single lowercase query
// tokens; values are candidate substitutes.
var synonymTable = map[string][]string{
	"цена":      {"стоимость", "прайс", "расценка"},
	"доставка":  {"логистика", "транспортировка", "отгрузка"},
	"поставщик": {"продавец", "supplier", "вендор"},
	"заказ":     {"ордер", "order", "закупка"},
	"оплата":    {"платёж", "перевод", "payment"},
	"товар":     {"продукт", "изделие", "product"},
	"клиент":    {"заказчик", "покупатель", "customer"},
	"прибыль":   {"профит", "доход", "revenue", "profit"},
	"расход":    {"затраты", "expense", "cost"},
	"курс":      {"rate", "обменный курс", "exchange rate"},
	"склад":     {"warehouse", "хранилище"},
	"контракт":  {"договор", "соглашение", "contract"},
	"price":     {"cost", "pricing", "rate"},
	"delivery":  {"shipping", "logistics", "transport"},
	"supplier":  {"vendor", "provider", "seller"},
	"order":     {"purchase", "procurement"},
	"payment":   {"transaction", "transfer"},
}

// Trigger phrases that pull in trade-context terms when they appear in
// the query or its surrounding context.
var contextualExpansions = map[string][]string{
	"туркменистан": {"TMT", "манат", "Ашхабад"},
	"китай":        {"CNY", "юань", "КНР", "China"},
	"импорт":       {"таможня", "пошлина", "сертификат"},
	"экспорт":      {"таможня", "лицензия", "сертификат"},
}

var contextTermRe = regexp.MustCompile(`[а-яёa-z]{4,}`)

// QueryExpander produces alternate phrasings of a search query. Pure
// lookup-table rewriting, no I/O.
type QueryExpander struct{}

func NewQueryExpander() *QueryExpander {
	return &QueryExpander{}
}

// Expand rewrites the query using one strategy. The returned confidence
// is a heuristic signal of how much was actually added, not a probability.
func (e *QueryExpander) Expand(query string, strategy domain.ExpansionStrategy, contextText string, maxExpansions int) domain.ExpandedQuery {
	if maxExpansions <= 0 {
		maxExpansions = DefaultMaxExpansions
	}
	switch strategy {
	case domain.StrategyContextual:
		return e.expandContextual(query, contextText)
	case domain.StrategyTemporal:
		return e.expandTemporal(query)
	case domain.StrategySpecific:
		return e.expandSpecific(query, contextText)
	case domain.StrategyBroad:
		return e.expandBroad(query)
	case domain.StrategyRelated:
		return e.expandRelated(query)
	default:
		return e.expandSynonyms(query, maxExpansions)
	}
}

// ExpandMulti fans a query through several strategies and keeps only the
// ones that produced an actual change. A nil strategy list means the
// default set: synonym, contextual, temporal.
func (e *QueryExpander) ExpandMulti(query string, strategies []domain.ExpansionStrategy, contextText string) []domain.ExpandedQuery {
	if strategies == nil {
		strategies = []domain.ExpansionStrategy{
			domain.StrategySynonym,
			domain.StrategyContextual,
			domain.StrategyTemporal,
		}
	}
	var out []domain.ExpandedQuery
	for _, s := range strategies {
		eq := e.Expand(query, s, contextText, DefaultMaxExpansions)
		if eq.Changed() {
			out = append(out, eq)
		}
	}
	return out
}

func (e *QueryExpander) expandSynonyms(query string, maxN int) domain.ExpandedQuery {
	lower := strings.ToLower(query)
	var added []string
	for _, word := range strings.Fields(lower) {
		for _, syn := range synonymTable[word] {
			if !strings.Contains(lower, strings.ToLower(syn)) {
				added = append(added, syn)
				if len(added) >= maxN {
					break
				}
			}
		}
		if len(added) >= maxN {
			break
		}
	}
	return domain.ExpandedQuery{
		Original:   query,
		Expanded:   joinTerms(query, added),
		Strategy:   domain.StrategySynonym,
		AddedTerms: added,
		Confidence: pick(len(added) > 0, ConfidenceTermsAdded, ConfidenceNoChange),
	}
}

func (e *QueryExpander) expandContextual(query, contextText string) domain.ExpandedQuery {
	combined := strings.ToLower(query + " " + contextText)
	var added []string
	for trigger, expansions := range contextualExpansions {
		if !strings.Contains(combined, trigger) {
			continue
		}
		for _, exp := range expansions {
			if !strings.Contains(combined, strings.ToLower(exp)) {
				added = append(added, exp)
			}
		}
	}
	if len(added) > DefaultContextualMax {
		added = added[:DefaultContextualMax]
	}
	return domain.ExpandedQuery{
		Original:   query,
		Expanded:   joinTerms(query, added),
		Strategy:   domain.StrategyContextual,
		AddedTerms: added,
		Confidence: pick(len(added) > 0, ConfidenceContextualAdded, ConfidenceNoChange),
	}
}

func (e *QueryExpander) expandTemporal(query string) domain.ExpandedQuery {
	year := time.Now().Year()
	for y := 2020; y <= year+1; y++ {
		if strings.Contains(query, fmt.Sprintf("%d", y)) {
			return domain.ExpandedQuery{
				Original:   query,
				Expanded:   query,
				Strategy:   domain.StrategyTemporal,
				Confidence: ConfidenceNeutral,
			}
		}
	}
	added := []string{fmt.Sprintf("%d", year), "актуально"}
	return domain.ExpandedQuery{
		Original:   query,
		Expanded:   joinTerms(query, added),
		Strategy:   domain.StrategyTemporal,
		AddedTerms: added,
		Confidence: ConfidenceTemporalAdded,
	}
}

func (e *QueryExpander) expandSpecific(query, contextText string) domain.ExpandedQuery {
	var specifics []string
	if contextText != "" {
		lowerQuery := strings.ToLower(query)
		seen := make(map[string]bool)
		for _, term := range contextTermRe.FindAllString(strings.ToLower(contextText), -1) {
			if stopWords[term] || strings.Contains(lowerQuery, term) || seen[term] {
				continue
			}
			seen[term] = true
			specifics = append(specifics, term)
			if len(specifics) >= DefaultContextualMax {
				break
			}
		}
	}
	return domain.ExpandedQuery{
		Original:   query,
		Expanded:   joinTerms(query, specifics),
		Strategy:   domain.StrategySpecific,
		AddedTerms: specifics,
		Confidence: pick(len(specifics) > 0, ConfidenceSpecificAdded, ConfidenceNoChange),
	}
}

// expandBroad drops the trailing two words of an over-constrained query.
func (e *QueryExpander) expandBroad(query string) domain.ExpandedQuery {
	words := strings.Fields(query)
	expanded := query
	var removed []string
	if len(words) > 4 {
		removed = words[len(words)-2:]
		expanded = strings.Join(words[:len(words)-2], " ")
	}
	return domain.ExpandedQuery{
		Original:     query,
		Expanded:     expanded,
		Strategy:     domain.StrategyBroad,
		RemovedTerms: removed,
		Confidence:   ConfidenceNeutral,
	}
}

// expandRelated reverse-looks-up the synonym table: a query word found
// among a key's synonyms pulls in the key term.
func (e *QueryExpander) expandRelated(query string) domain.ExpandedQuery {
	lower := strings.ToLower(query)
	var added []string
	for _, word := range strings.Fields(lower) {
		for key, syns := range synonymTable {
			if containsString(syns, word) && !strings.Contains(lower, key) {
				added = append(added, key)
				break
			}
		}
		if len(added) >= DefaultRelatedMax {
			break
		}
	}
	return domain.ExpandedQuery{
		Original:   query,
		Expanded:   joinTerms(query, added),
		Strategy:   domain.StrategyRelated,
		AddedTerms: added,
		Confidence: pick(len(added) > 0, ConfidenceSpecificAdded, ConfidenceNoChange),
	}
}

func joinTerms(query string, terms []string) string {
	if len(terms) == 0 {
		return query
	}
	return strings.TrimSpace(query + " " + strings.Join(terms, " "))
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
