package kmedoids

import "math"

// buildExact runs the greedy BUILD phase shared by the naive and FastPAM1
// variants: each round scores every non-medoid candidate over all n points
// and appends the one minimizing the summed nearest distance. Ties break
// toward the smaller index.
func buildExact(ctx *fitContext, k int) ([]int, *distCache) {
	n := ctx.ds.n
	cache := newDistCache(n)
	medoids := make([]int, 0, k)
	member := make([]bool, n)
	scores := make([]float64, n)

	for t := 0; t < k; t++ {
		parallelRanges(n, ctx.workers, func(start, end int) {
			for a := start; a < end; a++ {
				if member[a] {
					scores[a] = math.Inf(1)
					continue
				}
				var total float64
				for x := 0; x < n; x++ {
					cost := ctx.loss.dist(ctx.ds, a, x)
					if best := cache.best[x]; best < cost {
						cost = best
					}
					total += cost
				}
				scores[a] = total
			}
		})

		bestArm := -1
		bestScore := math.Inf(1)
		for a := 0; a < n; a++ {
			if scores[a] < bestScore {
				bestScore = scores[a]
				bestArm = a
			}
		}
		if bestArm == -1 {
			// All scores NaN (degenerate kernel): take the first non-medoid
			// so the medoid set stays distinct.
			for a := 0; a < n; a++ {
				if !member[a] {
					bestArm = a
					break
				}
			}
		}

		cache.addMedoid(ctx, bestArm, len(medoids))
		member[bestArm] = true
		medoids = append(medoids, bestArm)
	}

	return medoids, cache
}

// swapNaive evaluates every (slot, candidate) swap exactly each iteration
// and applies the best strictly-improving one, until no swap improves or
// maxIter swaps have been applied. medoids is mutated in place; the cache is
// rebuilt after every applied swap.
func swapNaive(ctx *fitContext, medoids []int, cache *distCache, maxIter int) int {
	n := ctx.ds.n
	k := len(medoids)
	member := memberMask(medoids, n)

	bestReward := make([]float64, n)
	bestSlot := make([]int, n)
	steps := 0

	for steps < maxIter {
		parallelRanges(n, ctx.workers, func(start, end int) {
			rewards := make([]float64, k)
			for cand := start; cand < end; cand++ {
				if member[cand] {
					bestReward[cand] = math.Inf(1)
					continue
				}
				for s := range rewards {
					rewards[s] = 0
				}
				for x := 0; x < n; x++ {
					cost := ctx.loss.dist(ctx.ds, cand, x)
					assigned := cache.assignment[x]
					for s := 0; s < k; s++ {
						ref := cache.best[x]
						if s == assigned {
							ref = cache.second[x]
						}
						if cost < ref {
							ref = cost
						}
						rewards[s] += ref - cache.best[x]
					}
				}
				bestReward[cand] = rewards[0]
				bestSlot[cand] = 0
				for s := 1; s < k; s++ {
					if rewards[s] < bestReward[cand] {
						bestReward[cand] = rewards[s]
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

func memberMask(medoids []int, n int) []bool {
	member := make([]bool, n)
	for _, m := range medoids {
		member[m] = true
	}
	return member
}

// argminReward scans candidates in ascending index order with a strict
// comparison, so ties resolve to the smallest candidate index regardless of
// worker count.
func argminReward(rewards []float64) (int, float64) {
	best := 0
	bestVal := math.Inf(1)
	for i, v := range rewards {
		if v < bestVal {
			bestVal = v
			best = i
		}
	}
	return best, bestVal
}

// applySwap replaces medoids[slot] with cand and rebuilds the cache.
func applySwap(ctx *fitContext, medoids []int, cache *distCache, member []bool, slot, cand int) {
	member[medoids[slot]] = false
	member[cand] = true
	medoids[slot] = cand
	cache.recompute(ctx, medoids)
	ctx.log.logSwapLoss(cache.totalLoss())
}
