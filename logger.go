package kmedoids

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// fitLogger collects per-iteration statistics during a fit. Verbosity 0
// resolves it to noopLogger; verbosity >= 1 buffers everything and writes a
// plain-text profile file when the fit completes.
type fitLogger interface {
	logBuildSigma(sigma []float64)
	logSwapSigma(sigma []float64)
	logSwapLoss(loss float64)
	writeProfile(path string, build, final []int, steps int, finalLoss float64) error
}

type noopLogger struct{}

func (noopLogger) logBuildSigma([]float64) {}
func (noopLogger) logSwapSigma([]float64)  {}
func (noopLogger) logSwapLoss(float64)     {}
func (noopLogger) writeProfile(string, []int, []int, int, float64) error {
	return nil
}

type runLogger struct {
	sigmaBuild []string
	sigmaSwap  []string
	lossSwap   []float64
}

func (l *runLogger) logBuildSigma(sigma []float64) {
	l.sigmaBuild = append(l.sigmaBuild, sigmaSummary(sigma))
}

func (l *runLogger) logSwapSigma(sigma []float64) {
	l.sigmaSwap = append(l.sigmaSwap, sigmaSummary(sigma))
}

func (l *runLogger) logSwapLoss(loss float64) {
	l.lossSwap = append(l.lossSwap, loss)
}

// sigmaSummary renders the distribution of a sigma vector as
// "min: ..., 25th: ..., median: ..., 75th: ..., max: ..., mean: ...".
// NaN entries (non-discriminable arms) are dropped from the summary.
func sigmaSummary(sigma []float64) string {
	vals := make([]float64, 0, len(sigma))
	for _, v := range sigma {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return "min: NaN, 25th: NaN, median: NaN, 75th: NaN, max: NaN, mean: NaN"
	}
	sort.Float64s(vals)
	return fmt.Sprintf("min: %g, 25th: %g, median: %g, 75th: %g, max: %g, mean: %g",
		floats.Min(vals),
		stat.Quantile(0.25, stat.Empirical, vals, nil),
		stat.Quantile(0.5, stat.Empirical, vals, nil),
		stat.Quantile(0.75, stat.Empirical, vals, nil),
		floats.Max(vals),
		stat.Mean(vals, nil))
}

func (l *runLogger) writeProfile(path string, build, final []int, steps int, finalLoss float64) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Medoids after BUILD: %v\n", build)
	fmt.Fprintf(&b, "Medoids after SWAP: %v\n", final)
	fmt.Fprintf(&b, "Swap steps: %d\n", steps)
	fmt.Fprintf(&b, "Final loss: %g\n", finalLoss)
	for i, line := range l.sigmaBuild {
		fmt.Fprintf(&b, "Build sigma %d: %s\n", i, line)
	}
	for i, line := range l.sigmaSwap {
		fmt.Fprintf(&b, "Swap sigma %d: %s\n", i, line)
	}
	for i, loss := range l.lossSwap {
		fmt.Fprintf(&b, "Loss after swap %d: %g\n", i+1, loss)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
