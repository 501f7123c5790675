package ml

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// ErrEmptyTrainingSet is returned when a model is fitted on no samples.
var ErrEmptyTrainingSet = errors.New("empty training set")

const leafFeature = -1

// Node is one node of a flattened decision tree. Leaves carry the class
// distribution of the samples that reached them.
type Node struct {
	Dist      []float64 `json:"dist,omitempty"`
	Threshold float64   `json:"threshold"`
	Feature   int       `json:"feature"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
}

// IsLeaf reports whether the node is a leaf.
func (n Node) IsLeaf() bool {
	return n.Feature == leafFeature
}

// Tree is a binary classification tree stored as a node slice; node 0 is
// the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict returns the class distribution of the leaf x falls into.
func (t *Tree) Predict(x []float64) []float64 {
	i := 0
	for !t.Nodes[i].IsLeaf() {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Dist
}

func (t *Tree) validate(numFeatures, numClasses int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			if len(n.Dist) != numClasses {
				return fmt.Errorf("leaf %d has %d classes, want %d", i, len(n.Dist), numClasses)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, numFeatures)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children", i)
		}
	}
	return nil
}

// treeBuilder grows a CART tree with Gini impurity.
type treeBuilder struct {
	rng         *rand.Rand
	x           [][]float64
	y           []int
	tree        *Tree
	numClasses  int
	maxFeatures int
}

func (b *treeBuilder) build(samples []int) int {
	counts := b.classCounts(samples)
	id := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Feature: leafFeature})

	if len(samples) < 2 || isPure(counts) {
		b.tree.Nodes[id].Dist = distribution(counts, len(samples))
		return id
	}

	feature, threshold, ok := b.bestSplit(samples, counts)
	if !ok {
		b.tree.Nodes[id].Dist = distribution(counts, len(samples))
		return id
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.build(left)
	r := b.build(right)
	b.tree.Nodes[id] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return id
}

// bestSplit samples features in random order and returns the lowest
// impurity split. At least maxFeatures features are tried; the search keeps
// going past that while no valid split has been found.
func (b *treeBuilder) bestSplit(samples []int, parent []int) (int, float64, bool) {
	numFeatures := len(b.x[0])
	order := b.rng.Perm(numFeatures)

	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := gini(parent, len(samples))
	found := false

	sorted := make([]int, len(samples))
	for tried, f := range order {
		if tried >= b.maxFeatures && found {
			break
		}

		copy(sorted, samples)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		left := make([]int, b.numClasses)
		right := append([]int(nil), parent...)
		n := len(sorted)
		for i := 0; i < n-1; i++ {
			c := b.y[sorted[i]]
			left[c]++
			right[c]--

			lo, hi := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := i+1, n-i-1
			impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if !found || impurity < bestImpurity {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				bestFeature, bestThreshold, bestImpurity = f, threshold, impurity
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *treeBuilder) classCounts(samples []int) []int {
	counts := make([]int, b.numClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		impurity -= p * p
	}
	return impurity
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func distribution(counts []int, n int) []float64 {
	dist := make([]float64, len(counts))
	if n == 0 {
		return dist
	}
	for i, c := range counts {
		dist[i] = float64(c) / float64(n)
	}
	return dist
}
