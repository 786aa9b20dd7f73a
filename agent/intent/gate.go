package intent

import "strings"

// DefaultKeywords is the in-domain vocabulary for insurance product queries.
var DefaultKeywords = []string{
	"insurance",
	"policy",
	"annuity",
	"retirement",
	"inflation",
	"pension",
	"income",
	"protection",
}

type Config struct {
	Keywords []string `envconfig:"KEYWORDS" split_words:"true"`
}

// Gate is a cheap keyword pre-filter run before any remote call.
type Gate struct {
	keywords []string
}

func NewGate(keywords ...string) *Gate {
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			normalized = append(normalized, k)
		}
	}
	if len(normalized) == 0 {
		normalized = append(normalized, DefaultKeywords...)
	}
	return &Gate{keywords: normalized}
}

func (g *Gate) Accepts(text string) bool {
	t := strings.ToLower(text)
	for _, k := range g.keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

func (g *Gate) Keywords() []string {
	return append([]string(nil), g.keywords...)
}
