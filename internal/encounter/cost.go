package encounter

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultCost is charged for levels missing from the table.
const DefaultCost = 40

// CostFunc maps a creature level to its point cost.
type CostFunc func(level int) int

// CostTable is a fixed level -> cost lookup with a fallback for
// levels outside the table.
type CostTable struct {
	Costs   map[int]int
	Default int
}

// DefaultCostTable returns the reference table covering levels -4..24.
func DefaultCostTable() CostTable {
	costs := map[int]int{
		-4: 10, -3: 15, -2: 20, -1: 30,
		0: 40, 1: 60, 2: 80, 3: 120, 4: 160,
	}
	// 5..24 climb by 40 per level from 200
	for level := 5; level <= 24; level++ {
		costs[level] = 200 + (level-5)*40
	}
	return CostTable{Costs: costs, Default: DefaultCost}
}

// Cost returns the cost for level, or t.Default when the level is absent.
func (t CostTable) Cost(level int) int {
	if c, ok := t.Costs[level]; ok {
		return c
	}
	return t.Default
}

// Validate reports negative costs.
func (t CostTable) Validate() error {
	var errs []string
	if t.Default < 0 {
		errs = append(errs, "default cost must be >= 0")
	}
	levels := make([]int, 0, len(t.Costs))
	for level := range t.Costs {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	for _, level := range levels {
		if t.Costs[level] < 0 {
			errs = append(errs, fmt.Sprintf("cost for level %d must be >= 0", level))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(errs, "; "))
	}
	return nil
}
