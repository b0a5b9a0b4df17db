package kmedoids

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// distCache maintains, for every point, the smallest and second-smallest
// dissimilarity to the current medoid set and the slot index of the nearest
// medoid. second is +Inf while fewer than two medoids exist.
type distCache struct {
	best       []float64
	second     []float64
	assignment []int
}

func newDistCache(n int) *distCache {
	c := &distCache{
		best:       make([]float64, n),
		second:     make([]float64, n),
		assignment: make([]int, n),
	}
	for i := range c.best {
		c.best[i] = math.Inf(1)
		c.second[i] = math.Inf(1)
	}
	return c
}

// recompute rebuilds best, second and assignment from scratch for the given
// medoid set. Ties between slots break toward the smaller slot index.
func (c *distCache) recompute(ctx *fitContext, medoids []int) {
	parallelRanges(ctx.ds.n, ctx.workers, func(start, end int) {
		for x := start; x < end; x++ {
			best := math.Inf(1)
			second := math.Inf(1)
			slot := 0
			for k, m := range medoids {
				cost := ctx.loss.dist(ctx.ds, m, x)
				if cost < best {
					slot = k
					second = best
					best = cost
				} else if cost < second {
					second = cost
				}
			}
			c.best[x] = best
			c.second[x] = second
			c.assignment[x] = slot
		}
	})
}

// addMedoid folds one new medoid into the cache during BUILD. newSlot is the
// slot the medoid will occupy, i.e. len(medoids) before it is appended.
func (c *distCache) addMedoid(ctx *fitContext, newMedoid, newSlot int) {
	parallelRanges(ctx.ds.n, ctx.workers, func(start, end int) {
		for x := start; x < end; x++ {
			cost := ctx.loss.dist(ctx.ds, newMedoid, x)
			if cost < c.best[x] {
				c.second[x] = c.best[x]
				c.best[x] = cost
				c.assignment[x] = newSlot
			} else if cost < c.second[x] {
				c.second[x] = cost
			}
		}
	})
}

// totalLoss is the sum of best distances; the cache must be current.
func (c *distCache) totalLoss() float64 {
	return floats.Sum(c.best)
}

// calcLoss computes the total loss of an arbitrary medoid set without
// touching the cache.
func calcLoss(ctx *fitContext, medoids []int) float64 {
	perPoint := make([]float64, ctx.ds.n)
	parallelRanges(ctx.ds.n, ctx.workers, func(start, end int) {
		for x := start; x < end; x++ {
			cost := math.Inf(1)
			for _, m := range medoids {
				if cur := ctx.loss.dist(ctx.ds, m, x); cur < cost {
					cost = cur
				}
			}
			perPoint[x] = cost
		}
	})
	return floats.Sum(perPoint)
}
