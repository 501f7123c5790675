package ml

import (
	"fmt"
	"math"
	"math/rand"
)

const eulerGamma = 0.5772156649015329

// IsolationConfig controls isolation forest training.
type IsolationConfig struct {
	// NumTrees is the number of isolation trees. Defaults to 100.
	NumTrees int
	// MaxSamples is the subsample size per tree, capped at the row count.
	// Defaults to 256.
	MaxSamples int
	// Contamination is the expected outlier fraction in (0, 0.5].
	Contamination float64
	// Seed makes subsampling and splits reproducible.
	Seed int64
}

// DefaultIsolationConfig returns 100 trees, 256 samples, 10% contamination
// and seed 42.
func DefaultIsolationConfig() IsolationConfig {
	return IsolationConfig{NumTrees: 100, MaxSamples: 256, Contamination: 0.1, Seed: 42}
}

type isoNode struct {
	feature   int
	threshold float64
	left      *isoNode
	right     *isoNode
	size      int
}

// IsolationForest scores points by how quickly random splits isolate them.
// Shorter average path lengths mean more anomalous points.
type IsolationForest struct {
	trees       []*isoNode
	maxSamples  int
	numFeatures int
	offset      float64
}

// FitIsolationForest trains on x and sets the decision threshold so that
// roughly Contamination of the training rows fall below it.
func FitIsolationForest(x [][]float64, cfg IsolationConfig) (*IsolationForest, error) {
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if cfg.Contamination <= 0 || cfg.Contamination > 0.5 {
		return nil, fmt.Errorf("contamination must be in (0, 0.5], got %v", cfg.Contamination)
	}
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 100
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = 256
	}

	numFeatures := len(x[0])
	for i, row := range x {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("row %d has width %d, want %d", i, len(row), numFeatures)
		}
	}

	maxSamples := cfg.MaxSamples
	if maxSamples > len(x) {
		maxSamples = len(x)
	}
	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(maxSamples), 2))))

	rng := rand.New(rand.NewSource(cfg.Seed))
	f := &IsolationForest{maxSamples: maxSamples, numFeatures: numFeatures}
	for t := 0; t < cfg.NumTrees; t++ {
		sample := rng.Perm(len(x))[:maxSamples]
		rows := make([][]float64, maxSamples)
		for i, s := range sample {
			rows[i] = x[s]
		}
		f.trees = append(f.trees, growIsolationTree(rng, rows, 0, maxDepth))
	}

	scores := make([]float64, len(x))
	for i, row := range x {
		scores[i] = f.ScoreSample(row)
	}
	f.offset = Percentile(scores, 100*cfg.Contamination)
	return f, nil
}

// ScoreSample returns the opposite of the anomaly score of x, in [-1, 0).
// Lower is more anomalous.
func (f *IsolationForest) ScoreSample(x []float64) float64 {
	var total float64
	for _, t := range f.trees {
		total += pathLength(t, x, 0)
	}
	mean := total / float64(len(f.trees))
	return -math.Pow(2, -mean/averagePathLength(f.maxSamples))
}

// DecisionFunction shifts ScoreSample by the fitted threshold; negative
// values are outliers.
func (f *IsolationForest) DecisionFunction(x []float64) (float64, error) {
	if len(x) != f.numFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrWidthMismatch, len(x), f.numFeatures)
	}
	return f.ScoreSample(x) - f.offset, nil
}

// IsOutlier reports whether x falls below the decision threshold.
func (f *IsolationForest) IsOutlier(x []float64) (bool, error) {
	d, err := f.DecisionFunction(x)
	if err != nil {
		return false, err
	}
	return d < 0, nil
}

func growIsolationTree(rng *rand.Rand, rows [][]float64, depth, maxDepth int) *isoNode {
	if depth >= maxDepth || len(rows) <= 1 {
		return &isoNode{feature: leafFeature, size: len(rows)}
	}

	numFeatures := len(rows[0])
	for _, feature := range rng.Perm(numFeatures) {
		lo, hi := rows[0][feature], rows[0][feature]
		for _, r := range rows[1:] {
			lo = math.Min(lo, r[feature])
			hi = math.Max(hi, r[feature])
		}
		if lo == hi {
			continue
		}

		threshold := lo + rng.Float64()*(hi-lo)
		var left, right [][]float64
		for _, r := range rows {
			if r[feature] < threshold {
				left = append(left, r)
			} else {
				right = append(right, r)
			}
		}
		return &isoNode{
			feature:   feature,
			threshold: threshold,
			left:      growIsolationTree(rng, left, depth+1, maxDepth),
			right:     growIsolationTree(rng, right, depth+1, maxDepth),
		}
	}
	// Every feature is constant: the rows cannot be separated.
	return &isoNode{feature: leafFeature, size: len(rows)}
}

func pathLength(n *isoNode, x []float64, depth int) float64 {
	for n.feature != leafFeature {
		if x[n.feature] < n.threshold {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return float64(depth) + averagePathLength(n.size)
}

// averagePathLength is the expected path length of an unsuccessful search
// in a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}
