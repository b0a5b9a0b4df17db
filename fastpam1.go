package kmedoids

import "math"

// swapFastPAM1 is the exact swap phase with the Δ-TD decomposition: one pass
// over the points per candidate produces the reward of all k swap pairs at
// once. A shared accumulator collects min(d(cand,x) - best[x], 0), the
// contribution a candidate makes to any slot it does not replace; a per-slot
// correction replaces that term for the slot each point is assigned to,
// where the point may fall back to its second-best medoid. Results are
// identical to swapNaive.
func swapFastPAM1(ctx *fitContext, medoids []int, cache *distCache, maxIter int) int {
	n := ctx.ds.n
	k := len(medoids)
	member := memberMask(medoids, n)

	bestReward := make([]float64, n)
	bestSlot := make([]int, n)
	steps := 0

	for steps < maxIter {
		parallelRanges(n, ctx.workers, func(start, end int) {
			deltaTD := make([]float64, k)
			for cand := start; cand < end; cand++ {
				if member[cand] {
					bestReward[cand] = math.Inf(1)
					continue
				}
				for s := range deltaTD {
					deltaTD[s] = 0
				}
				shared := 0.0
				for x := 0; x < n; x++ {
					cost := ctx.loss.dist(ctx.ds, cand, x)
					gain := cost - cache.best[x]
					if gain > 0 {
						gain = 0
					}
					shared += gain

					// Correction for the slot x is assigned to: there the
					// reassignment target is second[x], not best[x].
					reassign := cache.second[x]
					if cost < reassign {
						reassign = cost
					}
					deltaTD[cache.assignment[x]] += reassign - cache.best[x] - gain
				}
				bestReward[cand] = shared + deltaTD[0]
				bestSlot[cand] = 0
				for s := 1; s < k; s++ {
					if r := shared + deltaTD[s]; r < bestReward[cand] {
						bestReward[cand] = r
						bestSlot[cand] = s
					}
				}
			}
		})

		cand, reward := argminReward(bestReward)
		if reward >= 0 {
			break
		}
		applySwap(ctx, medoids, cache, member, bestSlot[cand], cand)
		steps++
	}

	return steps
}
