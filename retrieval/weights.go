package retrieval

// Weights is the scoring table. Every signal is additive and integral so
// rankings are reproducible across platforms.
type Weights struct {
	// NameContainsQuery fires once when the whole trimmed query is a
	// substring of the tool name. It dominates every other signal.
	NameContainsQuery int
	// TermInKeyword fires per (expanded term, keyword) pair where the
	// term is a substring of the keyword.
	TermInKeyword int
	// KeywordInQuery fires per keyword that appears verbatim in the query.
	KeywordInQuery int
	// DescriptionToken fires per expanded term that is also a token of
	// the description.
	DescriptionToken int
	// ShortDescription fires once if any expanded term occurs in the
	// short description.
	ShortDescription int
	// Category fires once if any expanded term occurs in the category id.
	Category int
}

// DefaultWeights is the production scoring table.
var DefaultWeights = Weights{
	NameContainsQuery: 50,
	TermInKeyword:     10,
	KeywordInQuery:    15,
	DescriptionToken:  5,
	ShortDescription:  8,
	Category:          3,
}
