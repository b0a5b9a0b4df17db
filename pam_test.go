package kmedoids

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

func fitWith(t *testing.T, data [][]float64, lossName string, cfg Config) *KMedoids {
	t.Helper()
	km, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := km.Fit(data, lossName); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return km
}

// twoBlobRows returns two well-separated gaussian-ish blobs.
func twoBlobRows(seed int64, perBlob, dims int) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float64, 0, 2*perBlob)
	for b := 0; b < 2; b++ {
		center := float64(b) * 50
		for i := 0; i < perBlob; i++ {
			row := make([]float64, dims)
			for j := range row {
				row[j] = center + rng.NormFloat64()
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func sortedCopy(xs []int) []int {
	out := append([]int(nil), xs...)
	sort.Ints(out)
	return out
}

func TestLineFourPointsK1(t *testing.T) {
	data := [][]float64{{0}, {1}, {2}, {10}}
	for _, algo := range []Algorithm{AlgorithmNaive, AlgorithmFastPAM1, AlgorithmBanditPAM} {
		t.Run(string(algo), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.NMedoids = 1
			cfg.Algorithm = algo
			cfg.Seed = 1
			km := fitWith(t, data, "L2", cfg)

			// Indices 1 and 2 both reach total loss 11; the tie breaks
			// toward the smaller index.
			if got := km.MedoidsFinal(); len(got) != 1 || got[0] != 1 {
				t.Errorf("expected medoid [1], got %v", got)
			}
			if km.Steps() != 0 {
				t.Errorf("expected 0 swap steps, got %d", km.Steps())
			}
			if math.Abs(km.Loss()-11) > 1e-12 {
				t.Errorf("expected loss 11, got %g", km.Loss())
			}
		})
	}
}

func TestTwoObviousClusters(t *testing.T) {
	data := [][]float64{
		{0, 0}, {0, 1}, {1, 0},
		{10, 10}, {10, 11}, {11, 10},
	}
	for _, algo := range []Algorithm{AlgorithmNaive, AlgorithmFastPAM1, AlgorithmBanditPAM} {
		t.Run(string(algo), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.NMedoids = 2
			cfg.Algorithm = algo
			cfg.Seed = 1
			km := fitWith(t, data, "L2", cfg)

			medoids := km.MedoidsFinal()
			if len(medoids) != 2 {
				t.Fatalf("expected 2 medoids, got %v", medoids)
			}
			lowMedoids := 0
			for _, m := range medoids {
				if m <= 2 {
					lowMedoids++
				}
			}
			if lowMedoids != 1 {
				t.Fatalf("expected one medoid per cluster, got %v", medoids)
			}

			labels := km.Labels()
			if labels[0] != labels[1] || labels[1] != labels[2] {
				t.Errorf("first cluster split across labels: %v", labels)
			}
			if labels[3] != labels[4] || labels[4] != labels[5] {
				t.Errorf("second cluster split across labels: %v", labels)
			}
			if labels[0] == labels[3] {
				t.Errorf("clusters merged: %v", labels)
			}
		})
	}
}

func TestNaiveAndFastPAM1Agree(t *testing.T) {
	losses := []string{"L1", "L2", "manhattan", "inf"}
	for _, lossName := range losses {
		t.Run(lossName, func(t *testing.T) {
			data := randomRows(31, 80, 3)

			cfg := DefaultConfig()
			cfg.NMedoids = 4
			cfg.Algorithm = AlgorithmNaive
			naive := fitWith(t, data, lossName, cfg)

			cfg.Algorithm = AlgorithmFastPAM1
			fast := fitWith(t, data, lossName, cfg)

			nm := sortedCopy(naive.MedoidsFinal())
			fm := sortedCopy(fast.MedoidsFinal())
			for i := range nm {
				if nm[i] != fm[i] {
					t.Fatalf("medoid sets differ: naive=%v fastpam1=%v", nm, fm)
				}
			}
			if math.Abs(naive.Loss()-fast.Loss()) > 1e-9 {
				t.Errorf("loss differs: naive=%g fastpam1=%g", naive.Loss(), fast.Loss())
			}
			if naive.Steps() != fast.Steps() {
				t.Errorf("steps differ: naive=%d fastpam1=%d", naive.Steps(), fast.Steps())
			}
		})
	}
}

func TestSwapNeverIncreasesBuildLoss(t *testing.T) {
	data := randomRows(43, 70, 4)
	for _, algo := range []Algorithm{AlgorithmNaive, AlgorithmFastPAM1, AlgorithmBanditPAM} {
		t.Run(string(algo), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.NMedoids = 5
			cfg.Algorithm = algo
			cfg.Seed = 3
			km := fitWith(t, data, "L2", cfg)

			buildLoss, err := TotalLoss(data, km.MedoidsBuild(), "L2")
			if err != nil {
				t.Fatalf("TotalLoss: %v", err)
			}
			if km.Loss() > buildLoss+1e-9 {
				t.Errorf("final loss %g exceeds build loss %g", km.Loss(), buildLoss)
			}
		})
	}
}

func TestEverySwapStrictlyImproves(t *testing.T) {
	// Replay the naive algorithm manually and verify the exact loss drops
	// after each applied swap.
	data := randomRows(57, 50, 3)
	ctx := testContext(t, data, "L2", 4)

	medoids, cache := buildExact(ctx, 4)
	prev := cache.totalLoss()
	for iter := 0; iter < 100; iter++ {
		before := append([]int(nil), medoids...)
		steps := swapOneNaive(ctx, medoids, cache)
		if steps == 0 {
			break
		}
		cur := calcLoss(ctx, medoids)
		if cur >= prev {
			t.Fatalf("swap %v -> %v did not decrease loss: %g -> %g", before, medoids, prev, cur)
		}
		prev = cur
	}
}

// swapOneNaive runs at most one naive swap iteration; helper for the
// monotonicity test.
func swapOneNaive(ctx *fitContext, medoids []int, cache *distCache) int {
	return swapNaive(ctx, medoids, cache, 1)
}

func TestMedoidsDistinctAndInRange(t *testing.T) {
	data := randomRows(61, 45, 2)
	for _, algo := range []Algorithm{AlgorithmNaive, AlgorithmFastPAM1, AlgorithmBanditPAM} {
		cfg := DefaultConfig()
		cfg.NMedoids = 6
		cfg.Algorithm = algo
		cfg.Seed = 5
		km := fitWith(t, data, "manhattan", cfg)

		final := km.MedoidsFinal()
		if len(final) != 6 {
			t.Fatalf("%s: expected 6 medoids, got %d", algo, len(final))
		}
		seen := map[int]bool{}
		for _, m := range final {
			if m < 0 || m >= len(data) {
				t.Fatalf("%s: medoid %d out of range", algo, m)
			}
			if seen[m] {
				t.Fatalf("%s: duplicate medoid %d", algo, m)
			}
			seen[m] = true
		}
	}
}

func TestLabelsMatchNearestMedoid(t *testing.T) {
	data := randomRows(71, 55, 3)
	cfg := DefaultConfig()
	cfg.NMedoids = 4
	cfg.Algorithm = AlgorithmNaive
	km := fitWith(t, data, "L2", cfg)

	ctx := testContext(t, data, "L2", 1)
	medoids := km.MedoidsFinal()
	labels := km.Labels()
	for x := range data {
		best := math.Inf(1)
		slot := 0
		for k, m := range medoids {
			if cost := ctx.loss.dist(ctx.ds, m, x); cost < best {
				best = cost
				slot = k
			}
		}
		if labels[x] != slot {
			t.Errorf("point %d: label %d, nearest medoid slot %d", x, labels[x], slot)
		}
	}
}
