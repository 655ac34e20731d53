package forest

import (
	"math"
	"sort"
)

const (
	leafFeature = -1
	// minGain is the relative score improvement a split needs over its parent.
	minGain = 1e-12
)

// Node is one node of a flattened regression tree. Leaves have Feature == -1.
// Rows with x[Feature] <= Threshold go to Left.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a CART regression tree stored as a node slice rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks the tree for a single row.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == leafFeature {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature == leafFeature {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// grower builds one tree over a bootstrap sample of the shared matrix.
type grower struct {
	x       [][]float64
	y       []float64
	params  Params
	nodes   []Node
	scratch []int
}

func newGrower(x [][]float64, y []float64, params Params, n int) *grower {
	return &grower{
		x:       x,
		y:       y,
		params:  params,
		scratch: make([]int, n),
	}
}

// grow appends the subtree for rows idx and returns its root index.
func (g *grower) grow(idx []int, depth int) int {
	n := len(idx)
	sum := 0.0
	for _, i := range idx {
		sum += g.y[i]
	}

	self := len(g.nodes)
	g.nodes = append(g.nodes, Node{Feature: leafFeature, Value: sum / float64(n)})
	if g.stop(idx, depth) {
		return self
	}

	feature, threshold, ok := g.bestSplit(idx, sum)
	if !ok {
		return self
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, i := range idx {
		if g.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := g.grow(left, depth+1)
	r := g.grow(right, depth+1)
	g.nodes[self].Feature = feature
	g.nodes[self].Threshold = threshold
	g.nodes[self].Left = l
	g.nodes[self].Right = r
	return self
}

func (g *grower) stop(idx []int, depth int) bool {
	n := len(idx)
	if g.params.MaxDepth > 0 && depth >= g.params.MaxDepth {
		return true
	}
	if n < g.params.MinSamplesSplit || n < 2*g.params.MinSamplesLeaf {
		return true
	}
	first := g.y[idx[0]]
	for _, i := range idx[1:] {
		if g.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit scans every feature for the threshold that minimises the summed
// squared error of the two children, which is the same as maximising
// sumL^2/nL + sumR^2/nR.
func (g *grower) bestSplit(idx []int, sum float64) (int, float64, bool) {
	n := len(idx)
	minLeaf := g.params.MinSamplesLeaf
	parent := sum * sum / float64(n)
	best := parent + minGain*math.Max(1, math.Abs(parent))
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := g.scratch[:n]
	for f := 0; f < len(g.x[idx[0]]); f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			return g.x[sorted[a]][f] < g.x[sorted[b]][f]
		})
		if g.x[sorted[0]][f] == g.x[sorted[n-1]][f] {
			continue
		}

		left := 0.0
		for k := 1; k < n; k++ {
			left += g.y[sorted[k-1]]
			lo, hi := g.x[sorted[k-1]][f], g.x[sorted[k]][f]
			if lo == hi || k < minLeaf || n-k < minLeaf {
				continue
			}
			right := sum - left
			score := left*left/float64(k) + right*right/float64(n-k)
			if score > best {
				best = score
				bestFeature = f
				bestThreshold = midpoint(lo, hi)
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// midpoint returns a threshold t with lo <= t < hi.
func midpoint(lo, hi float64) float64 {
	t := lo + (hi-lo)/2
	if t >= hi {
		return lo
	}
	return t
}
