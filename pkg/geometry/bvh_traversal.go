package geometry

import (
	"github.com/df07/go-spiral-raytracer/pkg/core"
)

// Traversal lazily yields the primitive indices whose leaf boxes a ray may
// hit, nearest child first. It performs no heap allocation and walks the tree
// once; create a new Traversal to walk it again.
//
// The walk is an iterative in-order descent: while a current node is set it
// is pushed and the near child is tested; when no further descent is
// possible the stack is popped, a popped leaf is yielded and a popped
// internal node continues into its far child.
type Traversal struct {
	bvh   *BVH
	query *core.RayQuery
	inv   core.InverseDirection
	neg   [3]bool // direction sign per axis, decides which child is near

	stack   [MaxTraversalDepth]int
	top     int
	current int
	hasNode bool
}

// Traverse starts a traversal for query. Child boxes are tested against the
// live query.TMax, so shrinking it between calls to Next prunes the rest of
// the walk.
func (bvh *BVH) Traverse(query *core.RayQuery) Traversal {
	t := Traversal{
		bvh:     bvh,
		query:   query,
		inv:     core.NewInverseDirection(query.Ray.Direction),
		hasNode: !bvh.Empty(),
	}
	for axis := 0; axis < 3; axis++ {
		t.neg[axis] = query.Ray.Direction.Axis(axis) < 0
	}
	return t
}

// Next returns the next candidate primitive index, or false once exhausted
func (t *Traversal) Next() (int, bool) {
	for t.hasNode || t.top > 0 {
		if t.hasNode {
			t.push(t.current)
			t.descend(false)
			continue
		}

		t.current = t.pop()
		node := &t.bvh.Nodes[t.current]
		if node.Leaf {
			return node.PrimitiveIndex, true
		}
		t.hasNode = true
		t.descend(true)
	}
	return 0, false
}

// descend moves to the near (far=false) or far child of the current node if
// the ray overlaps that child's box within the query interval
func (t *Traversal) descend(far bool) {
	node := &t.bvh.Nodes[t.current]
	if node.Leaf {
		t.hasNode = false
		return
	}

	child, box := node.Left, &node.LeftBox
	if t.neg[node.Axis] != far {
		child, box = node.Right, &node.RightBox
	}

	if box.HitInverse(t.query.Ray.Origin, t.inv, t.query.TMin, t.query.TMax) {
		t.current = child
	} else {
		t.hasNode = false
	}
}

func (t *Traversal) push(node int) {
	if t.top == len(t.stack) {
		panic("bvh: traversal stack overflow")
	}
	t.stack[t.top] = node
	t.top++
}

func (t *Traversal) pop() int {
	t.top--
	return t.stack[t.top]
}
