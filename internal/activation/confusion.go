package activation

import (
	"slices"
	"strings"
	"sync"
)

// ConfusionPair counts how often Predicted was chosen when Expected was wanted.
type ConfusionPair struct {
	Expected  string `json:"expected"`
	Predicted string `json:"predicted"`
	Count     int    `json:"count"`
}

type pairKey struct{ expected, predicted string }

// Confusion tracks expected -> predicted mix-ups. Safe for concurrent use.
type Confusion struct {
	mu     sync.Mutex
	counts map[pairKey]int
	order  []pairKey
}

func NewConfusion() *Confusion {
	return &Confusion{counts: map[pairKey]int{}}
}

// Record counts every predicted name against every expected name of one
// case, skipping pairs that name the same skill in any letter case.
func (c *Confusion) Record(expected, predicted []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range expected {
		for _, p := range predicted {
			if strings.EqualFold(p, e) {
				continue
			}
			k := pairKey{e, p}
			if _, ok := c.counts[k]; !ok {
				c.order = append(c.order, k)
			}
			c.counts[k]++
		}
	}
}

// Count returns the count for one pair.
func (c *Confusion) Count(expected, predicted string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[pairKey{expected, predicted}]
}

// Top returns the n most frequent pairs by count, ties in first-seen order.
// A non-positive n returns every pair.
func (c *Confusion) Top(n int) []ConfusionPair {
	c.mu.Lock()
	pairs := make([]ConfusionPair, 0, len(c.order))
	for _, k := range c.order {
		pairs = append(pairs, ConfusionPair{Expected: k.expected, Predicted: k.predicted, Count: c.counts[k]})
	}
	c.mu.Unlock()

	slices.SortStableFunc(pairs, func(a, b ConfusionPair) int { return b.Count - a.Count })
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}
