package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ForestConfig controls random forest training.
type ForestConfig struct {
	// NumTrees is the number of estimators. Defaults to 100.
	NumTrees int
	// MaxFeatures is the number of features tried per split. Zero means
	// the square root of the feature count.
	MaxFeatures int
	// Seed makes bootstrap sampling and feature selection reproducible.
	Seed int64
}

// DefaultForestConfig returns the configuration used for the bootstrap model.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{NumTrees: 100, Seed: 42}
}

// RandomForest is a bagged ensemble of classification trees. Predictions
// average the leaf class distributions of all trees.
type RandomForest struct {
	Classes     []string `json:"classes"`
	Trees       []*Tree  `json:"trees"`
	NumFeatures int      `json:"num_features"`
}

// FitRandomForest trains a forest on rows x with string labels y.
func FitRandomForest(x [][]float64, y []string, cfg ForestConfig) (*RandomForest, error) {
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("got %d rows and %d labels", len(x), len(y))
	}
	numFeatures := len(x[0])
	for i, row := range x {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("row %d has width %d, want %d", i, len(row), numFeatures)
		}
	}
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 100
	}
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(numFeatures)))
	}
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	classes := uniqueSorted(y)
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}
	labels := make([]int, len(y))
	for i, label := range y {
		labels[i] = classIndex[label]
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	forest := &RandomForest{Classes: classes, NumFeatures: numFeatures}
	n := len(x)
	for t := 0; t < cfg.NumTrees; t++ {
		samples := make([]int, n)
		for i := range samples {
			samples[i] = rng.Intn(n)
		}
		b := &treeBuilder{
			rng:         rng,
			x:           x,
			y:           labels,
			tree:        &Tree{},
			numClasses:  len(classes),
			maxFeatures: maxFeatures,
		}
		b.build(samples)
		forest.Trees = append(forest.Trees, b.tree)
	}
	return forest, nil
}

// PredictProba returns the averaged class distribution for x, indexed like
// Classes.
func (f *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.NumFeatures {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWidthMismatch, len(x), f.NumFeatures)
	}
	proba := make([]float64, len(f.Classes))
	for _, t := range f.Trees {
		for i, p := range t.Predict(x) {
			proba[i] += p
		}
	}
	for i := range proba {
		proba[i] /= float64(len(f.Trees))
	}
	return proba, nil
}

// Predict returns the most probable class for x. Ties go to the class that
// sorts first.
func (f *RandomForest) Predict(x []float64) (string, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return "", err
	}
	best := 0
	for i, p := range proba {
		if p > proba[best] {
			best = i
		}
	}
	return f.Classes[best], nil
}

// Score returns the accuracy of the forest on the given rows.
func (f *RandomForest) Score(x [][]float64, y []string) float64 {
	if len(x) == 0 {
		return 0
	}
	correct := 0
	for i, row := range x {
		if got, err := f.Predict(row); err == nil && got == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}

// ErrWidthMismatch is returned when a vector's width differs from the
// width the model was trained on.
var ErrWidthMismatch = errors.New("feature width mismatch")

// Validate checks that a decoded forest is structurally usable.
func (f *RandomForest) Validate() error {
	if len(f.Classes) == 0 || len(f.Trees) == 0 || f.NumFeatures <= 0 {
		return errors.New("forest is empty")
	}
	for i, t := range f.Trees {
		if t == nil {
			return fmt.Errorf("tree %d is nil", i)
		}
		if err := t.validate(f.NumFeatures, len(f.Classes)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
