package kmedoids

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// sampleIndices draws b distinct indices uniformly from [0, n) using a
// partial Fisher-Yates shuffle. Pools drawn by separate calls are
// independent, so references can repeat across bandit rounds even though
// each round's pool is without replacement.
func sampleIndices(rng *rand.Rand, n, b int) []int {
	if b > n {
		b = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < b; i++ {
		j := i + rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:b]
}

// buildSigma estimates, for every candidate arm, the standard deviation of
// the BUILD reward over a shared batch of reference points. With useAbsolute
// (first medoid) the reward is the raw distance to the reference; afterwards
// it is the improvement min(d, best) - best, which is always <= 0.
func buildSigma(ctx *fitContext, cache *distCache, batchSize int, useAbsolute bool) []float64 {
	n := ctx.ds.n
	refs := sampleIndices(ctx.rng, n, batchSize)
	sigma := make([]float64, n)

	parallelRanges(n, ctx.workers, func(start, end int) {
		sample := make([]float64, len(refs))
		for a := start; a < end; a++ {
			for j, r := range refs {
				cost := ctx.loss.dist(ctx.ds, a, r)
				if useAbsolute {
					sample[j] = cost
				} else {
					if cost < cache.best[r] {
						sample[j] = cost - cache.best[r]
					} else {
						sample[j] = 0
					}
				}
			}
			sigma[a] = stat.StdDev(sample, nil)
		}
	})

	ctx.log.logBuildSigma(sigma)
	return sigma
}

// swapSigma estimates the reward standard deviation for every
// (medoid slot, candidate) pair, flattened as cand*k + slot. A reference
// assigned to the slot being replaced falls back to its second-best medoid
// unless the candidate is closer; any other reference keeps its current
// medoid unless the candidate beats it.
func swapSigma(ctx *fitContext, cache *distCache, k, batchSize int) []float64 {
	n := ctx.ds.n
	refs := sampleIndices(ctx.rng, n, batchSize)
	sigma := make([]float64, k*n)

	parallelRanges(k*n, ctx.workers, func(start, end int) {
		sample := make([]float64, len(refs))
		for arm := start; arm < end; arm++ {
			cand := arm / k
			slot := arm % k
			for j, r := range refs {
				cost := ctx.loss.dist(ctx.ds, cand, r)
				if slot == cache.assignment[r] {
					if cost < cache.second[r] {
						sample[j] = cost
					} else {
						sample[j] = cache.second[r]
					}
				} else {
					if cost < cache.best[r] {
						sample[j] = cost
					} else {
						sample[j] = cache.best[r]
					}
				}
				sample[j] -= cache.best[r]
			}
			sigma[arm] = stat.StdDev(sample, nil)
		}
	})

	ctx.log.logSwapSigma(sigma)
	return sigma
}
