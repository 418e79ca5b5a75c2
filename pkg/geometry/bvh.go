package geometry

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/log"
)

// MaxTraversalDepth is the capacity of the traversal stack. The builder keeps
// every leaf shallow enough that a root-to-leaf path fits in it.
const MaxTraversalDepth = 32

// maxLeafDepth leaves one stack slot of headroom below MaxTraversalDepth
const maxLeafDepth = MaxTraversalDepth - 2

// sahBins is the number of centroid buckets evaluated per axis
const sahBins = 12

var logger = log.New("bvh")

// SplitStrategy selects how internal nodes partition their items
type SplitStrategy int

const (
	// SplitMedian sorts along the longest centroid axis and halves the list
	SplitMedian SplitStrategy = iota
	// SplitSAH picks the binned split with the lowest surface area cost
	SplitSAH
)

func (s SplitStrategy) String() string {
	switch s {
	case SplitMedian:
		return "median"
	case SplitSAH:
		return "sah"
	default:
		return fmt.Sprintf("SplitStrategy(%d)", int(s))
	}
}

// ParseSplitStrategy maps "median" or "sah" to a SplitStrategy
func ParseSplitStrategy(name string) (SplitStrategy, error) {
	switch strings.ToLower(name) {
	case "median":
		return SplitMedian, nil
	case "sah":
		return SplitSAH, nil
	}
	return SplitMedian, fmt.Errorf("geometry: unknown split strategy %q", name)
}

// BuildOptions configures BVH construction
type BuildOptions struct {
	Strategy SplitStrategy
}

// Bounds is the box of one primitive as seen by the BVH builder.
// NodeIndex is filled in by NewBVH with the leaf that owns the primitive.
type Bounds struct {
	Box            core.AABB
	PrimitiveIndex int
	NodeIndex      int
}

// BVHNode is one entry of the flattened tree. Internal nodes keep the boxes
// of both children so traversal can test a child before visiting it.
type BVHNode struct {
	Leaf           bool
	PrimitiveIndex int // leaf only

	Left, Right       int       // internal only
	LeftBox, RightBox core.AABB // internal only
	Axis              int       // split axis, internal only
}

// BVHStats describes the shape of a built tree
type BVHStats struct {
	Nodes        int
	Leaves       int
	MaxDepth     int
	AvgLeafDepth float64
	BuildTime    time.Duration
}

// BVH is a bounding volume hierarchy stored as a flat node array with the
// root at index 0. It is immutable once built and safe for concurrent traversal.
type BVH struct {
	Nodes []BVHNode
	Box   core.AABB // bounds of the whole tree
	stats BVHStats
}

type bvhBuilder struct {
	items     []Bounds
	centroids []core.Vec3
	nodes     []BVHNode
	strategy  SplitStrategy
	stats     BVHStats
	depthSum  int
}

// NewBVH builds a hierarchy over items. Every item ends up in its own leaf.
// An empty item list yields an empty BVH whose traversals produce nothing.
func NewBVH(items []Bounds, opts BuildOptions) *BVH {
	if len(items) == 0 {
		return &BVH{Box: core.EmptyAABB()}
	}

	start := time.Now()
	b := &bvhBuilder{
		items:     items,
		centroids: make([]core.Vec3, len(items)),
		nodes:     make([]BVHNode, 0, 2*len(items)-1),
		strategy:  opts.Strategy,
	}

	order := make([]int, len(items))
	for i := range items {
		order[i] = i
		b.centroids[i] = items[i].Box.Center()
	}

	_, box := b.build(order, 0)

	stats := b.stats
	stats.Nodes = len(b.nodes)
	if stats.Leaves > 0 {
		stats.AvgLeafDepth = float64(b.depthSum) / float64(stats.Leaves)
	}
	stats.BuildTime = time.Since(start)

	logger.Debugf(
		"BVH build time: %d ms, strategy: %s, maxDepth: %d, nodes: %d, leafs: %d",
		stats.BuildTime.Milliseconds(), opts.Strategy, stats.MaxDepth, stats.Nodes, stats.Leaves,
	)

	return &BVH{Nodes: b.nodes, Box: box, stats: stats}
}

// Stats returns statistics gathered while building the tree
func (bvh *BVH) Stats() BVHStats {
	return bvh.stats
}

// Empty reports whether the tree holds no items
func (bvh *BVH) Empty() bool {
	return bvh == nil || len(bvh.Nodes) == 0
}

// build partitions order (indices into items) and returns the node index and box
func (b *bvhBuilder) build(order []int, depth int) (int, core.AABB) {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	if len(order) == 1 {
		item := order[0]
		nodeIndex := len(b.nodes)
		b.nodes = append(b.nodes, BVHNode{Leaf: true, PrimitiveIndex: b.items[item].PrimitiveIndex})
		b.items[item].NodeIndex = nodeIndex
		b.stats.Leaves++
		b.depthSum += depth
		return nodeIndex, b.items[item].Box
	}

	// Reserve the slot so parents precede children
	nodeIndex := len(b.nodes)
	b.nodes = append(b.nodes, BVHNode{})

	var axis, mid int
	if b.strategy == SplitSAH && depth+ceilLog2(len(order)) < maxLeafDepth {
		axis, mid = b.splitSAH(order)
	} else {
		axis, mid = b.splitMedian(order)
	}

	left, leftBox := b.build(order[:mid], depth+1)
	right, rightBox := b.build(order[mid:], depth+1)

	b.nodes[nodeIndex] = BVHNode{
		Left:     left,
		Right:    right,
		LeftBox:  leftBox,
		RightBox: rightBox,
		Axis:     axis,
	}
	return nodeIndex, leftBox.Union(rightBox)
}

// centroidBounds returns the box spanned by the centroids in order
func (b *bvhBuilder) centroidBounds(order []int) core.AABB {
	box := core.EmptyAABB()
	for _, i := range order {
		box = box.UnionPoint(b.centroids[i])
	}
	return box
}

// splitMedian sorts order along the longest centroid axis and splits it in half.
// Both halves are non-empty and the subtree depth is ceil(log2(n)).
func (b *bvhBuilder) splitMedian(order []int) (axis, mid int) {
	axis = b.centroidBounds(order).LongestAxis()
	sort.SliceStable(order, func(i, j int) bool {
		return b.centroids[order[i]].Axis(axis) < b.centroids[order[j]].Axis(axis)
	})
	return axis, len(order) / 2
}

type sahBin struct {
	box   core.AABB
	count int
}

// splitSAH evaluates sahBins-1 candidate planes per axis and partitions order
// in place at the cheapest one. It falls back to a median split when the
// centroids are coincident or every candidate leaves a side empty.
func (b *bvhBuilder) splitSAH(order []int) (axis, mid int) {
	cb := b.centroidBounds(order)
	bestCost := math.Inf(1)
	bestAxis, bestPlane := -1, 0

	for a := 0; a < 3; a++ {
		lo, hi := cb.Min.Axis(a), cb.Max.Axis(a)
		if hi-lo <= 1e-12 {
			continue
		}

		var bins [sahBins]sahBin
		for i := range bins {
			bins[i].box = core.EmptyAABB()
		}
		for _, i := range order {
			bin := binIndex(b.centroids[i].Axis(a), lo, hi)
			bins[bin].count++
			bins[bin].box = bins[bin].box.Union(b.items[i].Box)
		}

		// Sweep from the right to collect suffix areas and counts
		var rightArea [sahBins]float64
		var rightCount [sahBins]int
		box, count := core.EmptyAABB(), 0
		for i := sahBins - 1; i > 0; i-- {
			box = box.Union(bins[i].box)
			count += bins[i].count
			rightArea[i] = box.SurfaceArea()
			rightCount[i] = count
		}

		box, count = core.EmptyAABB(), 0
		for plane := 1; plane < sahBins; plane++ {
			box = box.Union(bins[plane-1].box)
			count += bins[plane-1].count
			if count == 0 || rightCount[plane] == 0 {
				continue
			}
			cost := float64(count)*box.SurfaceArea() + float64(rightCount[plane])*rightArea[plane]
			if cost < bestCost {
				bestCost = cost
				bestAxis = a
				bestPlane = plane
			}
		}
	}

	if bestAxis < 0 {
		return b.splitMedian(order)
	}

	lo, hi := cb.Min.Axis(bestAxis), cb.Max.Axis(bestAxis)
	mid = 0
	for i := range order {
		if binIndex(b.centroids[order[i]].Axis(bestAxis), lo, hi) < bestPlane {
			order[i], order[mid] = order[mid], order[i]
			mid++
		}
	}
	return bestAxis, mid
}

func binIndex(v, lo, hi float64) int {
	bin := int(float64(sahBins) * (v - lo) / (hi - lo))
	if bin >= sahBins {
		bin = sahBins - 1
	}
	if bin < 0 {
		bin = 0
	}
	return bin
}

// ceilLog2 returns the depth of a perfectly balanced tree over n leaves
func ceilLog2(n int) int {
	depth := 0
	for size := 1; size < n; size <<= 1 {
		depth++
	}
	return depth
}
