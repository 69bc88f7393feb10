package encounter

import (
	"cmp"
	"slices"
)

// Fill is the best achievable spend for a budget and count limit.
type Fill struct {
	Spent int    `json:"spent"`
	Picks []Pick `json:"picks"`
}

// BestFill finds the largest total cost <= budget reachable with at most
// maxCount distinct candidates, and one set of picks that reaches it.
// It is the ceiling a random fill can be measured against.
//
// Plain 0/1 knapsack over (count, spend); candidates with a cost above the
// budget are skipped. The spend axis is bounded by the smaller of budget and
// the sum of the maxCount largest costs, so a huge budget over a small pool
// stays cheap. A nil costOf uses DefaultCostTable.
func BestFill(budget int, pool []Candidate, maxCount int, costOf CostFunc) Fill {
	if budget <= 0 || maxCount <= 0 || len(pool) == 0 {
		return Fill{}
	}
	if costOf == nil {
		costOf = DefaultCostTable().Cost
	}

	type item struct {
		c    Candidate
		cost int
	}
	seen := make(map[string]bool, len(pool))
	var items []item
	for _, c := range pool {
		cost := costOf(c.Level)
		if seen[c.ID] || cost < 0 || cost > budget {
			continue
		}
		seen[c.ID] = true
		items = append(items, item{c: c, cost: cost})
	}
	if len(items) == 0 {
		return Fill{}
	}
	maxCount = min(maxCount, len(items))

	costs := make([]int, len(items))
	for i, it := range items {
		costs[i] = it.cost
	}
	slices.SortFunc(costs, func(a, b int) int { return cmp.Compare(b, a) })
	width := 0
	for _, c := range costs[:maxCount] {
		width += c
	}
	width = min(width, budget)

	// from[k][s] = index of the item that last reached spend s with k picks,
	// -1 when unreachable; prev[k][s] is the spend before adding it.
	const unreached = -1
	from := make([][]int, maxCount+1)
	prev := make([][]int, maxCount+1)
	for k := range from {
		from[k] = make([]int, width+1)
		prev[k] = make([]int, width+1)
		for s := range from[k] {
			from[k][s] = unreached
		}
	}
	// the empty set reaches spend 0; len(items) marks it
	from[0][0] = len(items)

	// snapshot per item so each item is used at most once along any path
	type step struct{ k, s, fromS int }
	for i, it := range items {
		var updates []step
		for k := maxCount - 1; k >= 0; k-- {
			for s := width - it.cost; s >= 0; s-- {
				if from[k][s] == unreached || from[k+1][s+it.cost] != unreached {
					continue
				}
				updates = append(updates, step{k: k + 1, s: s + it.cost, fromS: s})
			}
		}
		for _, u := range updates {
			if from[u.k][u.s] == unreached {
				from[u.k][u.s] = i
				prev[u.k][u.s] = u.fromS
			}
		}
	}

	bestK, bestS := 0, 0
	for k := 0; k <= maxCount; k++ {
		for s := width; s > bestS; s-- {
			if from[k][s] != unreached {
				bestK, bestS = k, s
				break
			}
		}
	}

	fill := Fill{Spent: bestS}
	for k, s := bestK, bestS; k > 0; k-- {
		it := items[from[k][s]]
		fill.Picks = append(fill.Picks, Pick{Candidate: it.c, Cost: it.cost})
		s = prev[k][s]
	}
	return fill
}
