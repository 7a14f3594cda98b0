package crawler

import "strings"

// Scorer rates a URL's relevance; higher scores are crawled first.
type Scorer interface {
	Score(link string) float64
}

// KeywordScorer scores a URL by the fraction of keywords it contains,
// scaled by Weight. Matching is a case-insensitive substring test.
type KeywordScorer struct {
	keywords []string
	weight   float64
}

// NewKeywordScorer creates a scorer. Empty keywords are dropped.
func NewKeywordScorer(keywords []string, weight float64) *KeywordScorer {
	s := &KeywordScorer{weight: weight}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			s.keywords = append(s.keywords, k)
		}
	}
	return s
}

// Score implements Scorer.
func (s *KeywordScorer) Score(link string) float64 {
	if len(s.keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(link)
	matches := 0
	for _, k := range s.keywords {
		if strings.Contains(lower, k) {
			matches++
		}
	}
	return float64(matches) / float64(len(s.keywords)) * s.weight
}
