package catalog

import "strings"

// SynonymTable maps a lowercase term to alternative phrasings. It is
// immutable after construction.
type SynonymTable struct {
	entries map[string][]string
}

// NewSynonymTable builds a table from raw entries. Keys and values are
// lower-cased and trimmed; blank values are dropped and the input is copied.
func NewSynonymTable(raw map[string][]string) *SynonymTable {
	t := &SynonymTable{entries: make(map[string][]string, len(raw))}
	for k, vs := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		for _, v := range vs {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" {
				t.entries[key] = append(t.entries[key], v)
			}
		}
	}
	return t
}

// Lookup returns the synonyms for term, or nil. The returned slice must
// not be modified.
func (t *SynonymTable) Lookup(term string) []string {
	if t == nil {
		return nil
	}
	return t.entries[term]
}

// Len returns the number of keys.
func (t *SynonymTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
