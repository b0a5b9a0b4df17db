package kmedoids

import "math"

// Bandit arm bookkeeping for one BUILD round or one SWAP iteration. All of
// it is discarded when the round's winner is chosen.
type banditState struct {
	estimate []float64
	count    []int
	exact    []bool
}

func newBanditState(arms int) *banditState {
	return &banditState{
		estimate: make([]float64, arms),
		count:    make([]int, arms),
		exact:    make([]bool, arms),
	}
}

func (b *banditState) allExact(arms []int) bool {
	for _, a := range arms {
		if !b.exact[a] {
			return false
		}
	}
	return true
}

// nextBatch clamps the round's batch size so no arm samples past n points.
// Arms that still sample share the same count; exact arms are skipped.
func (b *banditState) nextBatch(arms []int, batchSize, n int) int {
	for _, a := range arms {
		if !b.exact[a] {
			if remaining := n - b.count[a]; batchSize > remaining {
				return remaining
			}
			return batchSize
		}
	}
	return 0
}

// winner picks the surviving arm with the smallest estimate, scanning in
// ascending order so ties resolve to the smallest arm index.
func (b *banditState) winner(arms []int) int {
	best := arms[0]
	for _, a := range arms[1:] {
		if b.estimate[a] < b.estimate[best] {
			best = a
		}
	}
	return best
}

// prune removes arms whose lower confidence bound exceeds the smallest upper
// confidence bound. cb holds each arm's confidence radius. If numerical ties
// would eliminate everything, the previous arm set is kept.
func (b *banditState) prune(arms []int, cb []float64) []int {
	minUCB := math.Inf(1)
	for _, a := range arms {
		if u := b.estimate[a] + cb[a]; u < minUCB {
			minUCB = u
		}
	}
	survivors := make([]int, 0, len(arms))
	for _, a := range arms {
		if b.estimate[a]-cb[a] <= minUCB {
			survivors = append(survivors, a)
		}
	}
	if len(survivors) == 0 {
		return arms
	}
	return survivors
}

// buildBandit runs the bandit-accelerated BUILD phase. Each round seeds
// per-arm confidence radii from buildSigma, then alternates batched sampling
// with UCB/LCB elimination until one arm survives or every survivor has been
// evaluated exactly.
func buildBandit(ctx *fitContext, k, batchSize int, confidence float64) ([]int, *distCache) {
	n := ctx.ds.n
	cache := newDistCache(n)
	medoids := make([]int, 0, k)
	member := make([]bool, n)
	logN := math.Log(float64(n))

	for t := 0; t < k; t++ {
		useAbsolute := t == 0
		sigma := buildSigma(ctx, cache, batchSize, useAbsolute)

		state := newBanditState(n)
		cb := make([]float64, n)
		arms := make([]int, 0, n)
		for a := 0; a < n; a++ {
			if !member[a] {
				arms = append(arms, a)
			}
		}

		for len(arms) > 1 && !state.allExact(arms) {
			refs := sampleIndices(ctx.rng, n, state.nextBatch(arms, batchSize, n))

			parallelRanges(len(arms), ctx.workers, func(start, end int) {
				for i := start; i < end; i++ {
					a := arms[i]
					if state.exact[a] {
						continue
					}
					if state.count[a]+len(refs) >= n {
						state.estimate[a] = exactBuildMean(ctx, cache, a, useAbsolute)
						state.count[a] = n
						state.exact[a] = true
						continue
					}
					var sum float64
					for _, r := range refs {
						sum += buildReward(ctx, cache, a, r, useAbsolute)
					}
					total := float64(state.count[a] + len(refs))
					state.estimate[a] = (state.estimate[a]*float64(state.count[a]) + sum) / total
					state.count[a] += len(refs)
				}
			})

			for _, a := range arms {
				switch {
				case state.exact[a]:
					cb[a] = 0
				case math.IsNaN(sigma[a]):
					// Non-discriminable arm: freeze it at its observed mean.
					state.exact[a] = true
					cb[a] = 0
				default:
					cb[a] = sigma[a] * math.Sqrt(confidence*logN/float64(state.count[a]))
				}
			}
			arms = state.prune(arms, cb)
		}

		win := state.winner(arms)
		cache.addMedoid(ctx, win, len(medoids))
		member[win] = true
		medoids = append(medoids, win)
	}

	return medoids, cache
}

// buildReward is the BUILD arm reward for a single reference: the raw
// distance when choosing the first medoid, otherwise how much adding the arm
// would improve the reference's best distance (always <= 0).
func buildReward(ctx *fitContext, cache *distCache, arm, ref int, useAbsolute bool) float64 {
	cost := ctx.loss.dist(ctx.ds, arm, ref)
	if useAbsolute {
		return cost
	}
	if cost < cache.best[ref] {
		return cost - cache.best[ref]
	}
	return 0
}

// exactBuildMean evaluates an arm's true mean reward over all n points.
func exactBuildMean(ctx *fitContext, cache *distCache, arm int, useAbsolute bool) float64 {
	var sum float64
	for x := 0; x < ctx.ds.n; x++ {
		sum += buildReward(ctx, cache, arm, x, useAbsolute)
	}
	return sum / float64(ctx.ds.n)
}

// swapBandit runs the bandit-accelerated SWAP phase. Arms are the
// (slot, candidate) pairs, flattened as cand*k + slot; pairs whose candidate
// is already a medoid are excluded. Unless the winning pair was already
// evaluated over all n points, it is verified with one exact evaluation
// before the swap is applied, so every applied swap
// strictly decreases the true loss.
func swapBandit(ctx *fitContext, medoids []int, cache *distCache, maxIter, batchSize int, confidence float64) int {
	n := ctx.ds.n
	k := len(medoids)
	member := memberMask(medoids, n)
	logKN := math.Log(float64(k * n))
	steps := 0

	for steps < maxIter {
		sigma := swapSigma(ctx, cache, k, batchSize)

		state := newBanditState(k * n)
		cb := make([]float64, k*n)
		arms := make([]int, 0, k*n)
		for cand := 0; cand < n; cand++ {
			if member[cand] {
				continue
			}
			for s := 0; s < k; s++ {
				arms = append(arms, cand*k+s)
			}
		}
		if len(arms) == 0 {
			// Every point is a medoid; no swap can change anything.
			break
		}

		for len(arms) > 1 && !state.allExact(arms) {
			refs := sampleIndices(ctx.rng, n, state.nextBatch(arms, batchSize, n))

			parallelRanges(len(arms), ctx.workers, func(start, end int) {
				for i := start; i < end; i++ {
					arm := arms[i]
					if state.exact[arm] {
						continue
					}
					cand, slot := arm/k, arm%k
					if state.count[arm]+len(refs) >= n {
						state.estimate[arm] = exactSwapMean(ctx, cache, slot, cand)
						state.count[arm] = n
						state.exact[arm] = true
						continue
					}
					var sum float64
					for _, r := range refs {
						sum += swapReward(ctx, cache, slot, cand, r)
					}
					total := float64(state.count[arm] + len(refs))
					state.estimate[arm] = (state.estimate[arm]*float64(state.count[arm]) + sum) / total
					state.count[arm] += len(refs)
				}
			})

			for _, arm := range arms {
				switch {
				case state.exact[arm]:
					cb[arm] = 0
				case math.IsNaN(sigma[arm]):
					state.exact[arm] = true
					cb[arm] = 0
				default:
					cb[arm] = sigma[arm] * math.Sqrt(confidence*logKN/float64(state.count[arm]))
				}
			}
			arms = state.prune(arms, cb)
		}

		win := state.winner(arms)
		cand, slot := win/k, win%k
		reward := state.estimate[win]
		if state.count[win] < n {
			reward = exactSwapMean(ctx, cache, slot, cand)
		}
		// NaN rewards (degenerate kernels) count as non-improving.
		if !(reward < 0) {
			break
		}
		applySwap(ctx, medoids, cache, member, slot, cand)
		steps++
	}

	return steps
}

// swapReward is the change in a single reference's nearest distance when
// medoids[slot] is replaced by cand. A reference assigned to the replaced
// slot falls back to its second-best medoid unless cand is closer; any other
// reference keeps its medoid unless cand beats it.
func swapReward(ctx *fitContext, cache *distCache, slot, cand, ref int) float64 {
	cost := ctx.loss.dist(ctx.ds, cand, ref)
	target := cache.best[ref]
	if slot == cache.assignment[ref] {
		target = cache.second[ref]
	}
	if cost < target {
		target = cost
	}
	return target - cache.best[ref]
}

// exactSwapMean evaluates a swap pair's true mean reward over all n points.
func exactSwapMean(ctx *fitContext, cache *distCache, slot, cand int) float64 {
	var sum float64
	for x := 0; x < ctx.ds.n; x++ {
		sum += swapReward(ctx, cache, slot, cand, x)
	}
	return sum / float64(ctx.ds.n)
}
