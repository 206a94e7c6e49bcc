package validate

import (
	"math"
	"sort"

	"github.com/geostack-labs/geoverify/internal/geom"
)

// rtreeNodeCap is the fan-out of the packed tree. The index is bulk-loaded
// once per run and never mutated, so a plain sort-tile-recursive packing is
// enough; there is no insert path.
const rtreeNodeCap = 16

type rtreeItem struct {
	bounds geom.Bounds
	index  int
}

type rtreeNode struct {
	bounds   geom.Bounds
	items    []rtreeItem
	children []*rtreeNode
}

// rtree is a static bounding-box index over polygon envelopes. Queries return
// candidate item indices whose boxes intersect the probe box; the caller runs
// the exact predicate on the candidates.
type rtree struct {
	root *rtreeNode
}

// buildRTree bulk-loads the items with sort-tile-recursive packing. The input
// slice is reordered in place.
func buildRTree(items []rtreeItem) *rtree {
	if len(items) == 0 {
		return &rtree{}
	}

	leafCount := (len(items) + rtreeNodeCap - 1) / rtreeNodeCap
	slices := int(math.Ceil(math.Sqrt(float64(leafCount))))
	sliceSize := ((len(items)+slices-1)/slices + rtreeNodeCap - 1) / rtreeNodeCap * rtreeNodeCap

	sort.Slice(items, func(i, j int) bool {
		return centerX(items[i].bounds) < centerX(items[j].bounds)
	})

	var leaves []*rtreeNode
	for start := 0; start < len(items); start += sliceSize {
		end := start + sliceSize
		if end > len(items) {
			end = len(items)
		}
		slab := items[start:end]
		sort.Slice(slab, func(i, j int) bool {
			return centerY(slab[i].bounds) < centerY(slab[j].bounds)
		})
		for ls := 0; ls < len(slab); ls += rtreeNodeCap {
			le := ls + rtreeNodeCap
			if le > len(slab) {
				le = len(slab)
			}
			leaf := &rtreeNode{items: slab[ls:le]}
			leaf.bounds = leaf.items[0].bounds
			for _, it := range leaf.items[1:] {
				leaf.bounds = extendBounds(leaf.bounds, it.bounds)
			}
			leaves = append(leaves, leaf)
		}
	}

	return &rtree{root: packNodes(leaves)}
}

// packNodes builds the upper levels by re-applying the same tiling to the
// child node boxes until a single root remains.
func packNodes(nodes []*rtreeNode) *rtreeNode {
	for len(nodes) > 1 {
		slices := int(math.Ceil(math.Sqrt(float64((len(nodes) + rtreeNodeCap - 1) / rtreeNodeCap))))
		sliceSize := ((len(nodes)+slices-1)/slices + rtreeNodeCap - 1) / rtreeNodeCap * rtreeNodeCap

		sort.Slice(nodes, func(i, j int) bool {
			return centerX(nodes[i].bounds) < centerX(nodes[j].bounds)
		})

		var parents []*rtreeNode
		for start := 0; start < len(nodes); start += sliceSize {
			end := start + sliceSize
			if end > len(nodes) {
				end = len(nodes)
			}
			slab := nodes[start:end]
			sort.Slice(slab, func(i, j int) bool {
				return centerY(slab[i].bounds) < centerY(slab[j].bounds)
			})
			for ls := 0; ls < len(slab); ls += rtreeNodeCap {
				le := ls + rtreeNodeCap
				if le > len(slab) {
					le = len(slab)
				}
				parent := &rtreeNode{children: slab[ls:le]}
				parent.bounds = parent.children[0].bounds
				for _, c := range parent.children[1:] {
					parent.bounds = extendBounds(parent.bounds, c.bounds)
				}
				parents = append(parents, parent)
			}
		}
		nodes = parents
	}
	return nodes[0]
}

// search appends the indices of all items whose bounds intersect b.
func (t *rtree) search(b geom.Bounds) []int {
	if t.root == nil {
		return nil
	}
	var out []int
	var walk func(n *rtreeNode)
	walk = func(n *rtreeNode) {
		if !n.bounds.Intersects(b) {
			return
		}
		for _, it := range n.items {
			if it.bounds.Intersects(b) {
				out = append(out, it.index)
			}
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

func extendBounds(a, b geom.Bounds) geom.Bounds {
	if b.MinX < a.MinX {
		a.MinX = b.MinX
	}
	if b.MinY < a.MinY {
		a.MinY = b.MinY
	}
	if b.MaxX > a.MaxX {
		a.MaxX = b.MaxX
	}
	if b.MaxY > a.MaxY {
		a.MaxY = b.MaxY
	}
	return a
}

func centerX(b geom.Bounds) float64 { return (b.MinX + b.MaxX) / 2 }
func centerY(b geom.Bounds) float64 { return (b.MinY + b.MaxY) / 2 }
