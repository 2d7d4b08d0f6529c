package aggregate

import "sort"

// ProductTotals maps product name (verbatim, case-sensitive) to the
// cumulative price seen for it. Not safe for concurrent mutation; each
// worker builds its own map and the merge is single-threaded.
type ProductTotals map[string]float64

// Add accumulates price for product.
func (t ProductTotals) Add(product string, price float64) {
	t[product] += price
}

// Merge folds other into t, summing shared products.
func (t ProductTotals) Merge(other ProductTotals) {
	for product, total := range other {
		t[product] += total
	}
}

// Products returns the product names sorted ascending. Map iteration
// order is not reproducible, and output files must be byte-identical
// across reruns, so everything that writes totals goes through this.
func (t ProductTotals) Products() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
