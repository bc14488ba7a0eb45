// Package retrieval ranks catalog records against a free-text query using
// an additive keyword score over a synonym-expanded term set.
package retrieval

import (
	"sort"
	"strings"
	"unicode"

	"github.com/vinayprograms/toolrouter/catalog"
)

// ScoredMatch is a catalog record with its relevance score.
type ScoredMatch struct {
	Record   catalog.ToolRecord `json:"record"`
	Score    int                `json:"score"`
	Position int                `json:"position"` // index in the catalog
}

// Retriever scores catalog records against queries. It holds only
// immutable data and is safe for concurrent use.
type Retriever struct {
	records  []indexedRecord
	synonyms *catalog.SynonymTable
	weights  Weights
}

// indexedRecord caches the lowercase forms scoring needs.
type indexedRecord struct {
	record     catalog.ToolRecord
	name       string
	keywords   []string
	descTokens map[string]struct{}
	shortDesc  string
	category   string
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithWeights replaces DefaultWeights.
func WithWeights(w Weights) Option {
	return func(r *Retriever) {
		r.weights = w
	}
}

// New prepares a retriever over cat. syn may be nil.
func New(cat *catalog.Catalog, syn *catalog.SynonymTable, opts ...Option) *Retriever {
	r := &Retriever{
		synonyms: syn,
		weights:  DefaultWeights,
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, rec := range cat.Records() {
		ir := indexedRecord{
			record:     rec,
			name:       strings.ToLower(rec.Name),
			descTokens: make(map[string]struct{}),
			shortDesc:  strings.ToLower(rec.ShortDescription),
			category:   strings.ToLower(rec.Category),
		}
		for _, kw := range rec.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				ir.keywords = append(ir.keywords, kw)
			}
		}
		for _, tok := range Tokenize(rec.Description) {
			ir.descTokens[tok] = struct{}{}
		}
		r.records = append(r.records, ir)
	}
	return r
}

// Tokenize lower-cases s and splits it into maximal runs of letters and
// digits.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Expand returns the distinct query tokens followed by the distinct
// synonyms of those tokens, in first-seen order.
func (r *Retriever) Expand(query string) []string {
	tokens := Tokenize(query)
	seen := make(map[string]bool, len(tokens))
	terms := make([]string, 0, len(tokens))
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	for _, t := range tokens {
		add(t)
	}
	for _, t := range tokens {
		for _, s := range r.synonyms.Lookup(t) {
			add(s)
		}
	}
	return terms
}

// Retrieve returns every record with a positive score, best first, ties
// in catalog order. A query without any word characters matches nothing.
func (r *Retriever) Retrieve(query string) []ScoredMatch {
	terms := r.Expand(query)
	if len(terms) == 0 {
		return nil
	}
	lowered := strings.ToLower(strings.TrimSpace(query))

	var matches []ScoredMatch
	for i := range r.records {
		if s := r.score(&r.records[i], lowered, terms); s > 0 {
			matches = append(matches, ScoredMatch{
				Record:   cloneRecord(r.records[i].record),
				Score:    s,
				Position: i,
			})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return matches
}

// Score computes one record's score for query. It is Retrieve's scoring
// rule exposed for auditing individual records.
func (r *Retriever) Score(position int, query string) int {
	terms := r.Expand(query)
	if len(terms) == 0 || position < 0 || position >= len(r.records) {
		return 0
	}
	return r.score(&r.records[position], strings.ToLower(strings.TrimSpace(query)), terms)
}

func (r *Retriever) score(rec *indexedRecord, query string, terms []string) int {
	w := r.weights
	total := 0

	if strings.Contains(rec.name, query) {
		total += w.NameContainsQuery
	}

	for _, kw := range rec.keywords {
		for _, t := range terms {
			if strings.Contains(kw, t) {
				total += w.TermInKeyword
			}
		}
		if strings.Contains(query, kw) {
			total += w.KeywordInQuery
		}
	}

	for _, t := range terms {
		if _, ok := rec.descTokens[t]; ok {
			total += w.DescriptionToken
		}
	}

	if containsAny(rec.shortDesc, terms) {
		total += w.ShortDescription
	}
	if containsAny(rec.category, terms) {
		total += w.Category
	}
	return total
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func cloneRecord(rec catalog.ToolRecord) catalog.ToolRecord {
	rec.Keywords = append([]string(nil), rec.Keywords...)
	return rec
}
