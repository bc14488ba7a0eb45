package compose

import "strings"

// Persona names the product being guided and its creator. Both appear in
// fallback answers; the creator also drives attribution.
type Persona struct {
	Product      string `toml:"product"`
	Creator      string `toml:"creator"`
	AboutSection string `toml:"about_section"` // Where users learn about the creator
}

// DefaultPersona returns the stock persona.
func DefaultPersona() Persona {
	return Persona{
		Product:      "InOneBox",
		Creator:      "Vatsal Varshney",
		AboutSection: "Portfolio",
	}
}

// Terms returns lowercase words that mark a question about the product
// itself: the product name and the creator's first name.
func (p Persona) Terms() []string {
	var terms []string
	if p.Product != "" {
		terms = append(terms, strings.ToLower(p.Product))
	}
	if first := p.creatorFirstName(); first != "" {
		terms = append(terms, first)
	}
	return terms
}

func (p Persona) creatorFirstName() string {
	fields := strings.Fields(strings.ToLower(p.Creator))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (p Persona) product() string {
	if p.Product == "" {
		return "the toolkit"
	}
	return p.Product
}

// creatorLine is appended to fallback answers when a creator is set.
func (p Persona) creatorLine() string {
	if p.Creator == "" {
		return ""
	}
	line := "\n\nThis toolkit was created by **" + p.Creator + "**"
	if p.AboutSection != "" {
		line += ". Visit the " + p.AboutSection + " section to learn more"
	}
	return line + "."
}

var creatorQueryTerms = []string{"who made", "creator", "author", "portfolio", "about"}

// attribute appends a creator note to answer when query asks about the
// creator and answer does not already name them.
func (p Persona) attribute(query, answer string) string {
	first := p.creatorFirstName()
	if first == "" {
		return answer
	}

	q := strings.ToLower(query)
	asked := strings.Contains(q, first)
	for _, term := range creatorQueryTerms {
		if strings.Contains(q, term) {
			asked = true
			break
		}
	}
	if !asked || strings.Contains(strings.ToLower(answer), first) {
		return answer
	}
	return answer + p.creatorLine()
}
