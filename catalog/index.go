package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// minSuggestTermLen keeps very short tokens ("a", "to") out of fuzzy
// matching, where edit distance 1 would match almost anything.
const minSuggestTermLen = 3

// Index is an in-memory full-text index over a catalog, used to offer
// "did you mean" suggestions when exact scoring finds nothing.
type Index struct {
	index bleve.Index
	names []string // by catalog position
}

type indexedTool struct {
	Name        string `json:"name"`
	Keywords    string `json:"keywords"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func buildIndexMapping() mapping.IndexMapping {
	toolMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	toolMapping.AddFieldMappingsAt("name", textFieldMapping)
	toolMapping.AddFieldMappingsAt("keywords", textFieldMapping)
	toolMapping.AddFieldMappingsAt("description", textFieldMapping)
	toolMapping.AddFieldMappingsAt("category", textFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = toolMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// NewIndex indexes every record of cat in memory.
func NewIndex(cat *Catalog) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}

	batch := idx.NewBatch()
	names := make([]string, 0, cat.Len())
	for i, r := range cat.Records() {
		names = append(names, r.Name)
		doc := indexedTool{
			Name:        r.Name,
			Keywords:    strings.Join(r.Keywords, " "),
			Description: r.Description + " " + r.ShortDescription,
			Category:    strings.ReplaceAll(r.Category, "_", " ") + " " + r.NavigationCategory,
		}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			idx.Close()
			return nil, fmt.Errorf("failed to index %q: %w", r.Name, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("failed to build catalog index: %w", err)
	}

	return &Index{index: idx, names: names}, nil
}

// Suggest returns up to limit distinct tool names whose indexed text is
// within one edit of a query term, best first. A query with no usable
// terms yields nil.
func (ix *Index) Suggest(text string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}

	var terms []query.Query
	seen := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(tok) < minSuggestTermLen || seen[tok] {
			continue
		}
		seen[tok] = true
		fq := bleve.NewFuzzyQuery(tok)
		fq.SetFuzziness(1)
		terms = append(terms, fq)
	}
	if len(terms) == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(terms...))
	req.Size = limit
	res, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("suggest search failed: %w", err)
	}

	var out []string
	dup := make(map[string]bool)
	for _, hit := range res.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil || pos < 0 || pos >= len(ix.names) {
			continue
		}
		name := ix.names[pos]
		if dup[name] {
			continue
		}
		dup[name] = true
		out = append(out, name)
	}
	return out, nil
}

// Close releases the index.
func (ix *Index) Close() error {
	return ix.index.Close()
}
