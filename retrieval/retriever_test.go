package retrieval

import (
	"reflect"
	"testing"

	"github.com/vinayprograms/toolrouter/catalog"
)

func smallCatalog(t *testing.T) (*catalog.Catalog, *catalog.SynonymTable) {
	t.Helper()
	cat, err := catalog.New([]catalog.ToolRecord{
		{
			Name: "Text Counter", Category: "text_tools",
			Description: "Counts words and characters.",
			Keywords:    []string{"word count", "character count"},
			NavigationCategory: "Text Tools", NavigationTool: "Text Counter",
			ShortDescription: "Count words",
		},
		{
			Name: "Image Resizer", Category: "image_tools",
			Description: "Resize images to any size.",
			Keywords:    []string{"resize image", "scale image"},
			NavigationCategory: "Image Tools", NavigationTool: "Image Resizer",
			ShortDescription: "Resize pictures",
		},
		{
			Name: "Word Cloud", Category: "text_tools",
			Description: "Draws a cloud of words.",
			Keywords:    []string{"word cloud"},
			NavigationCategory: "Text Tools", NavigationTool: "Word Cloud",
			ShortDescription: "Visualize words",
		},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat, catalog.NewSynonymTable(map[string][]string{"resize": {"scale"}})
}

type ranked struct {
	name  string
	score int
}

func names(matches []ScoredMatch) []ranked {
	out := make([]ranked, len(matches))
	for i, m := range matches {
		out[i] = ranked{m.Record.Name, m.Score}
	}
	return out
}

func TestRetrieve_Scores(t *testing.T) {
	cat, syn := smallCatalog(t)
	r := New(cat, syn)

	tests := []struct {
		query string
		want  []ranked
	}{
		// keyword pairs 10+10+15+10, short description 8
		{"word count", []ranked{{"Text Counter", 53}, {"Word Cloud", 18}}},
		// name 50, keyword pairs 10+10 (via synonym), description 5, short description 8
		{"resize", []ranked{{"Image Resizer", 83}}},
		// equal scores keep catalog order
		{"words", []ranked{{"Text Counter", 13}, {"Word Cloud", 13}}},
		{"Resize", []ranked{{"Image Resizer", 83}}},
		{"audio", []ranked{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := names(r.Retrieve(tt.query))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Retrieve(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestRetrieve_NoTokens(t *testing.T) {
	cat, syn := smallCatalog(t)
	r := New(cat, syn)
	for _, q := range []string{"", "   ", "?!", "--"} {
		if got := r.Retrieve(q); len(got) != 0 {
			t.Errorf("Retrieve(%q) = %v, want empty", q, names(got))
		}
	}
}

func TestRetrieve_PositionAndScore(t *testing.T) {
	cat, syn := smallCatalog(t)
	r := New(cat, syn)

	matches := r.Retrieve("resize")
	if matches[0].Position != 1 {
		t.Errorf("Position = %d, want 1", matches[0].Position)
	}
	if got := r.Score(0, "word count"); got != 53 {
		t.Errorf("Score(0) = %d, want 53", got)
	}
	if got := r.Score(9, "word count"); got != 0 {
		t.Errorf("Score(out of range) = %d, want 0", got)
	}
}

func TestRetrieve_DoesNotMutateCatalog(t *testing.T) {
	cat, syn := smallCatalog(t)
	before := cat.Records()
	r := New(cat, syn)

	m := r.Retrieve("word count")
	m[0].Record.Keywords[0] = "changed"

	if !reflect.DeepEqual(before, cat.Records()) {
		t.Error("catalog changed")
	}
	if r.Retrieve("word count")[0].Record.Keywords[0] != "word count" {
		t.Error("retriever state leaked through results")
	}
}

func TestWithWeights(t *testing.T) {
	cat, syn := smallCatalog(t)
	r := New(cat, syn, WithWeights(Weights{NameContainsQuery: 1}))
	got := names(r.Retrieve("resize"))
	if !reflect.DeepEqual(got, []ranked{{"Image Resizer", 1}}) {
		t.Errorf("Retrieve = %v", got)
	}
}

func TestExpand(t *testing.T) {
	r := New(catalog.MustNew(nil), catalog.NewSynonymTable(map[string][]string{
		"resize": {"scale", "shrink"},
		"image":  {"picture", "scale"},
	}))
	got := r.Expand("Resize the image, resize!")
	want := []string{"resize", "the", "image", "scale", "shrink", "picture"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand = %v, want %v", got, want)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Convert PNG→JPG, 2025 café_menu!")
	want := []string{"convert", "png", "jpg", "2025", "café", "menu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestScore_MonotonicInKeywords(t *testing.T) {
	base := catalog.ToolRecord{
		Name: "Resizer", Category: "image_tools", NavigationCategory: "Image Tools",
		Description: "Makes images smaller.", ShortDescription: "Resize",
		Keywords: []string{"thumbnail"},
	}
	extended := base
	extended.Keywords = []string{"thumbnail", "shrink photo"}

	for _, q := range []string{"shrink", "shrink photo now", "resize", "photo"} {
		without := New(catalog.MustNew([]catalog.ToolRecord{base}), nil).Score(0, q)
		with := New(catalog.MustNew([]catalog.ToolRecord{extended}), nil).Score(0, q)
		if with < without {
			t.Errorf("query %q: adding keyword lowered score %d -> %d", q, without, with)
		}
	}
}

func TestDefaultCatalog_ToolNameRanksFirst(t *testing.T) {
	cat, syn := catalog.Default()
	r := New(cat, syn)
	for _, rec := range cat.Records() {
		matches := r.Retrieve(rec.Name)
		if len(matches) == 0 || matches[0].Record.Name != rec.Name {
			t.Errorf("Retrieve(%q) top = %v", rec.Name, names(matches))
		}
	}
}

func TestDefaultCatalog_SortedNonIncreasing(t *testing.T) {
	cat, syn := catalog.Default()
	r := New(cat, syn)
	for _, q := range []string{"resize my photo", "convert image to png", "count words", "latest ai news", "secure password"} {
		matches := r.Retrieve(q)
		for i := 1; i < len(matches); i++ {
			prev, cur := matches[i-1], matches[i]
			if cur.Score > prev.Score || (cur.Score == prev.Score && cur.Position < prev.Position) {
				t.Errorf("%q: order broken at %d: %v", q, i, names(matches))
				break
			}
		}
	}

	got := names(r.Retrieve("resize my photo"))
	want := []ranked{{"Image Resizer", 88}, {"Image Filters", 20}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Retrieve(resize my photo) = %v, want %v", got, want)
	}
}
