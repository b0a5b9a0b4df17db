// Package kmedoids implements k-medoids clustering with the BanditPAM
// algorithm and its exact PAM baselines.
//
// A k-medoids clustering picks k dataset points (the medoids) that
// approximately minimize the sum over all points of the dissimilarity to the
// nearest medoid. Unlike k-means centroids, medoids are always members of the
// dataset, so any dissimilarity works, including ones with no meaningful
// mean.
//
// Basic usage:
//
//	cfg := kmedoids.DefaultConfig()
//	cfg.NMedoids = 5
//	km, err := kmedoids.New(cfg)
//	if err != nil { ... }
//	if err := km.Fit(data, "L2"); err != nil { ... }
//	// km.MedoidsFinal() are the k chosen dataset indices
//	// km.Labels()[i] is the medoid slot point i is assigned to
//
// # Algorithm selection
//
// Config.Algorithm selects the search strategy:
//
//	cfg.Algorithm = kmedoids.AlgorithmNaive     // exact PAM, full swap evaluation
//	cfg.Algorithm = kmedoids.AlgorithmFastPAM1  // exact PAM, single-pass swap evaluation
//	cfg.Algorithm = kmedoids.AlgorithmBanditPAM // randomized bandit search (default)
//
// The two exact variants produce identical results. BanditPAM treats every
// candidate medoid (and later every swap pair) as a multi-armed-bandit arm
// and eliminates losing arms from sampled confidence intervals, reaching the
// exact PAM solution with high probability in far fewer distance
// evaluations. Fix Config.Seed for reproducible runs.
package kmedoids
