package kmedoids

import (
	"fmt"
	"math/rand"
	"runtime"
	"time"
)

// Algorithm selects the medoid search strategy.
type Algorithm string

const (
	AlgorithmNaive     Algorithm = "naive"
	AlgorithmFastPAM1  Algorithm = "FastPAM1"
	AlgorithmBanditPAM Algorithm = "BanditPAM"
)

// Config controls a KMedoids engine.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// NMedoids is the number of medoids (clusters) to find.
	// Must be >= 1 and at most the dataset size. Default: 5.
	NMedoids int

	// Algorithm selects the search strategy: AlgorithmNaive and
	// AlgorithmFastPAM1 are exact PAM; AlgorithmBanditPAM is the randomized
	// bandit-accelerated search. Default: AlgorithmBanditPAM.
	Algorithm Algorithm

	// MaxIter caps the number of applied swaps. Default: 1000.
	MaxIter int

	// BuildConfidence scales the BUILD-phase confidence radii:
	// cb = sigma * sqrt(BuildConfidence * ln(n) / T). Larger values sample
	// more before eliminating an arm. Default: 1000.
	BuildConfidence int

	// SwapConfidence scales the SWAP-phase confidence radii over the k*n
	// swap arms. Default: 10000.
	SwapConfidence int

	// BatchSize is the number of reference points sampled per sigma
	// estimate and per bandit round. Default: 100.
	BatchSize int

	// Verbosity 0 emits nothing; >= 1 writes a profile file to LogFilename
	// at the end of Fit with the build/final medoids, swap count, final
	// loss, and per-iteration sigma distribution summaries. Default: 0.
	Verbosity int

	// LogFilename is the profile path used when Verbosity >= 1.
	// Default: "KMedoidsLogfile".
	LogFilename string

	// Workers controls the number of goroutines for the data-parallel
	// stages. 0 means runtime.NumCPU(). Default: 0 (auto).
	Workers int

	// Seed pins the PRNG for reproducible BanditPAM runs. 0 seeds from the
	// clock; results are then valid but not bit-reproducible. The exact
	// variants do not consume randomness. Default: 0.
	Seed int64
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		NMedoids:        5,
		Algorithm:       AlgorithmBanditPAM,
		MaxIter:         1000,
		BuildConfidence: 1000,
		SwapConfidence:  10000,
		BatchSize:       100,
		LogFilename:     "KMedoidsLogfile",
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmBanditPAM
	}
	if cfg.MaxIter == 0 {
		cfg.MaxIter = 1000
	}
	if cfg.BuildConfidence == 0 {
		cfg.BuildConfidence = 1000
	}
	if cfg.SwapConfidence == 0 {
		cfg.SwapConfidence = 10000
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.LogFilename == "" {
		cfg.LogFilename = "KMedoidsLogfile"
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
}

// validateConfig checks cfg and returns a descriptive error if a field is
// out of range.
func validateConfig(cfg *Config) error {
	if cfg.NMedoids <= 0 {
		return fmt.Errorf("kmedoids: NMedoids must be > 0, got %d", cfg.NMedoids)
	}
	if err := checkAlgorithm(cfg.Algorithm); err != nil {
		return err
	}
	if cfg.MaxIter < 0 {
		return fmt.Errorf("kmedoids: MaxIter must be >= 0, got %d", cfg.MaxIter)
	}
	if cfg.BuildConfidence < 1 {
		return fmt.Errorf("kmedoids: BuildConfidence must be >= 1, got %d", cfg.BuildConfidence)
	}
	if cfg.SwapConfidence < 1 {
		return fmt.Errorf("kmedoids: SwapConfidence must be >= 1, got %d", cfg.SwapConfidence)
	}
	if cfg.BatchSize < 1 {
		return fmt.Errorf("kmedoids: BatchSize must be >= 1, got %d", cfg.BatchSize)
	}
	return nil
}

func checkAlgorithm(a Algorithm) error {
	switch a {
	case AlgorithmNaive, AlgorithmFastPAM1, AlgorithmBanditPAM:
		return nil
	default:
		return fmt.Errorf("kmedoids: unrecognized algorithm %q", a)
	}
}

// KMedoids finds k medoids for a dataset under a chosen dissimilarity. A
// zero KMedoids is not usable; construct one with [New], call [KMedoids.Fit],
// then read the results through the getters.
type KMedoids struct {
	cfg Config

	medoidsBuild []int
	medoidsFinal []int
	labels       []int
	steps        int
	finalLoss    float64
}

// New returns an engine for the given configuration. Zero-valued fields are
// defaulted first; the resolved configuration is then validated.
func New(cfg Config) (*KMedoids, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &KMedoids{cfg: cfg}, nil
}

// fitContext bundles the per-run state the three strategies share: the
// flattened copy of the dataset, the selected kernel, the run's PRNG, the worker count,
// and the injected logger.
type fitContext struct {
	ds      *dataset
	loss    lossFunc
	rng     *rand.Rand
	workers int
	log     fitLogger
}

// Fit finds NMedoids medoids of data (one point per row) under the named
// loss. On success the engine's getters expose the build medoids, final
// medoids, labels, swap count, and final loss. On a loss, data or NMedoids
// error the engine's previous results are left untouched. If writing the
// profile fails (Verbosity >= 1), the new results are already stored and
// the write error is returned.
func (km *KMedoids) Fit(data [][]float64, lossName string) error {
	loss, err := ParseLoss(lossName)
	if err != nil {
		return err
	}
	ds, err := newDataset(data)
	if err != nil {
		return err
	}
	k := km.cfg.NMedoids
	if k > ds.n {
		return fmt.Errorf("kmedoids: NMedoids %d exceeds dataset size %d", k, ds.n)
	}

	seed := km.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var log fitLogger = noopLogger{}
	if km.cfg.Verbosity >= 1 {
		log = &runLogger{}
	}
	ctx := &fitContext{
		ds:      ds,
		loss:    loss,
		rng:     rand.New(rand.NewSource(seed)),
		workers: km.cfg.Workers,
		log:     log,
	}

	var medoids []int
	var cache *distCache
	var steps int
	switch km.cfg.Algorithm {
	case AlgorithmNaive:
		medoids, cache = buildExact(ctx, k)
		km.medoidsBuild = append([]int(nil), medoids...)
		steps = swapNaive(ctx, medoids, cache, km.cfg.MaxIter)
	case AlgorithmFastPAM1:
		medoids, cache = buildExact(ctx, k)
		km.medoidsBuild = append([]int(nil), medoids...)
		steps = swapFastPAM1(ctx, medoids, cache, km.cfg.MaxIter)
	default:
		medoids, cache = buildBandit(ctx, k, km.cfg.BatchSize, float64(km.cfg.BuildConfidence))
		km.medoidsBuild = append([]int(nil), medoids...)
		steps = swapBandit(ctx, medoids, cache, km.cfg.MaxIter, km.cfg.BatchSize, float64(km.cfg.SwapConfidence))
	}

	km.medoidsFinal = append([]int(nil), medoids...)
	km.labels = append([]int(nil), cache.assignment...)
	km.steps = steps
	km.finalLoss = cache.totalLoss()

	if km.cfg.Verbosity >= 1 {
		return log.writeProfile(km.cfg.LogFilename, km.medoidsBuild, km.medoidsFinal, km.steps, km.finalLoss)
	}
	return nil
}

// MedoidsBuild returns the medoid indices at the end of the BUILD phase.
func (km *KMedoids) MedoidsBuild() []int {
	return append([]int(nil), km.medoidsBuild...)
}

// MedoidsFinal returns the medoid indices at the end of the SWAP phase.
func (km *KMedoids) MedoidsFinal() []int {
	return append([]int(nil), km.medoidsFinal...)
}

// Labels returns, for each point, the slot index of its nearest final medoid.
func (km *KMedoids) Labels() []int {
	return append([]int(nil), km.labels...)
}

// Steps returns the number of swaps applied during the last fit.
func (km *KMedoids) Steps() int { return km.steps }

// Loss returns the total loss of the final medoid set.
func (km *KMedoids) Loss() float64 { return km.finalLoss }

// NMedoids returns the configured number of medoids.
func (km *KMedoids) NMedoids() int { return km.cfg.NMedoids }

// SetNMedoids changes the number of medoids for subsequent fits.
func (km *KMedoids) SetNMedoids(k int) error {
	if k <= 0 {
		return fmt.Errorf("kmedoids: NMedoids must be > 0, got %d", k)
	}
	km.cfg.NMedoids = k
	return nil
}

// Algorithm returns the configured search strategy.
func (km *KMedoids) Algorithm() Algorithm { return km.cfg.Algorithm }

// SetAlgorithm changes the search strategy; the name is validated and the
// engine is left unchanged on error.
func (km *KMedoids) SetAlgorithm(a Algorithm) error {
	if err := checkAlgorithm(a); err != nil {
		return err
	}
	km.cfg.Algorithm = a
	return nil
}

// MaxIter returns the swap cap.
func (km *KMedoids) MaxIter() int { return km.cfg.MaxIter }

// SetMaxIter changes the swap cap.
func (km *KMedoids) SetMaxIter(maxIter int) error {
	if maxIter < 0 {
		return fmt.Errorf("kmedoids: MaxIter must be >= 0, got %d", maxIter)
	}
	km.cfg.MaxIter = maxIter
	return nil
}

// BuildConfidence returns the BUILD confidence multiplier.
func (km *KMedoids) BuildConfidence() int { return km.cfg.BuildConfidence }

// SetBuildConfidence changes the BUILD confidence multiplier.
func (km *KMedoids) SetBuildConfidence(c int) error {
	if c < 1 {
		return fmt.Errorf("kmedoids: BuildConfidence must be >= 1, got %d", c)
	}
	km.cfg.BuildConfidence = c
	return nil
}

// SwapConfidence returns the SWAP confidence multiplier.
func (km *KMedoids) SwapConfidence() int { return km.cfg.SwapConfidence }

// SetSwapConfidence changes the SWAP confidence multiplier.
func (km *KMedoids) SetSwapConfidence(c int) error {
	if c < 1 {
		return fmt.Errorf("kmedoids: SwapConfidence must be >= 1, got %d", c)
	}
	km.cfg.SwapConfidence = c
	return nil
}

// Verbosity returns the configured verbosity.
func (km *KMedoids) Verbosity() int { return km.cfg.Verbosity }

// SetVerbosity changes the verbosity for subsequent fits.
func (km *KMedoids) SetVerbosity(v int) { km.cfg.Verbosity = v }

// LogFilename returns the profile path used when Verbosity >= 1.
func (km *KMedoids) LogFilename() string { return km.cfg.LogFilename }

// SetLogFilename changes the profile path.
func (km *KMedoids) SetLogFilename(name string) { km.cfg.LogFilename = name }

// TotalLoss computes the total loss of an arbitrary medoid set over data
// under the named loss, without fitting. Useful for comparing medoid sets
// produced by different algorithms.
func TotalLoss(data [][]float64, medoids []int, lossName string) (float64, error) {
	loss, err := ParseLoss(lossName)
	if err != nil {
		return 0, err
	}
	ds, err := newDataset(data)
	if err != nil {
		return 0, err
	}
	for _, m := range medoids {
		if m < 0 || m >= ds.n {
			return 0, fmt.Errorf("kmedoids: medoid index %d out of range [0,%d)", m, ds.n)
		}
	}
	ctx := &fitContext{ds: ds, loss: loss, workers: runtime.NumCPU(), log: noopLogger{}}
	return calcLoss(ctx, medoids), nil
}
