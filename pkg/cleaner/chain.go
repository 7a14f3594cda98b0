package cleaner

import (
	"fmt"
	"strings"
)

// ChainCleaner applies multiple cleaners in sequence.
type ChainCleaner struct {
	cleaners []Cleaner
}

// NewChain creates a new cleaner that applies multiple cleaners in sequence.
// Cleaners are applied in the order provided; nil entries are skipped.
//
// Example:
//
//	chain := cleaner.NewChain(
//	    cleaner.NewPage(cleaner.DefaultPageConfig()),
//	    cleaner.NewNavigation(nil),
//	    cleaner.LinkResolver{BaseURL: pageURL},
//	)
func NewChain(cleaners ...Cleaner) *ChainCleaner {
	c := &ChainCleaner{}
	for _, cl := range cleaners {
		if cl != nil {
			c.cleaners = append(c.cleaners, cl)
		}
	}
	return c
}

// Clean applies all cleaners in sequence. The first failing stage stops the
// chain and its error is returned wrapped with the stage name.
func (c *ChainCleaner) Clean(content string) (string, error) {
	var err error
	for _, cl := range c.cleaners {
		content, err = cl.Clean(content)
		if err != nil {
			return "", fmt.Errorf("%s: %w", cl.Name(), err)
		}
	}
	return content, nil
}

// Len returns the number of stages in the chain.
func (c *ChainCleaner) Len() int {
	return len(c.cleaners)
}

// Name returns the names of all chained cleaners.
func (c *ChainCleaner) Name() string {
	names := make([]string, len(c.cleaners))
	for i, cl := range c.cleaners {
		names[i] = cl.Name()
	}
	return "chain(" + strings.Join(names, "->") + ")"
}
