package encounter

import (
	"math"
	"sort"
)

// SimParams describes the selection repeated by RunMonteCarlo.
type SimParams struct {
	Budget       int
	Pool         []Candidate
	DesiredCount int
	CostOf       CostFunc
}

// Stats summarizes simulation results.
type Stats struct {
	Trials    int     `json:"trials"`
	Mean      float64 `json:"mean"`
	Var       float64 `json:"var"`
	StdDev    float64 `json:"stddev"`
	P50       float64 `json:"p50"`
	P90       float64 `json:"p90"`
	P99       float64 `json:"p99"`
	MeanPicks float64 `json:"mean_picks"`
	// PickRate is the share of trials in which each candidate ID was picked.
	PickRate map[string]float64 `json:"pick_rate,omitempty"`
	// Samples holds the spent budget of every trial.
	Samples []int `json:"-"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	// mean
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Trials:  n,
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// RunMonteCarlo repeats SelectEncounter trials times against one source
// and summarizes the spent budget. A nil rng uses DefaultRNG.
func RunMonteCarlo(p SimParams, trials int, rng RandomSource) (Stats, error) {
	if trials <= 0 {
		return Stats{}, nil
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	samples := make([]int, trials)
	picked := make(map[string]int)
	totalPicks := 0
	for i := 0; i < trials; i++ {
		res, err := SelectEncounter(p.Budget, p.Pool, p.DesiredCount, p.CostOf, rng)
		if err != nil {
			return Stats{}, err
		}
		samples[i] = res.TotalSpent
		totalPicks += len(res.Picks)
		for _, pick := range res.Picks {
			picked[pick.Candidate.ID]++
		}
	}

	stats := calcStats(samples)
	stats.MeanPicks = float64(totalPicks) / float64(trials)
	stats.PickRate = make(map[string]float64, len(picked))
	for id, n := range picked {
		stats.PickRate[id] = float64(n) / float64(trials)
	}
	return stats, nil
}
