package spatialindex

import (
	"math"

	"github.com/ecorouting/compass/pkg/datastructure"
)

// Rtree indexes the road-network node set for snapping query
// coordinates to graph nodes. Nearest-neighbor comparison happens in
// raw degree space (unprojected lat/lon treated as planar); the asset
// build pipeline and the downstream tests rely on that behavior, so it
// must stay even though it is a known accuracy limitation near the
// poles. Equidistant candidates resolve to the lowest node id.
//
// The tree is built once from the graph's node set and never updated
// afterwards; a graph reload requires a rebuild.

type BoundingBox struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

func NewPointBound(lat, lon float64) BoundingBox {
	return BoundingBox{MinLat: lat, MinLon: lon, MaxLat: lat, MaxLon: lon}
}

func union(a, b BoundingBox) BoundingBox {
	return BoundingBox{
		MinLat: math.Min(a.MinLat, b.MinLat),
		MinLon: math.Min(a.MinLon, b.MinLon),
		MaxLat: math.Max(a.MaxLat, b.MaxLat),
		MaxLon: math.Max(a.MaxLon, b.MaxLon),
	}
}

func area(b BoundingBox) float64 {
	return (b.MaxLat - b.MinLat) * (b.MaxLon - b.MinLon)
}

// minDistSq is the squared degree-space distance from a point to the
// nearest point of the rectangle. Zero if the point is inside.
func (b BoundingBox) minDistSq(lat, lon float64) float64 {
	rLat := math.Min(math.Max(lat, b.MinLat), b.MaxLat)
	rLon := math.Min(math.Max(lon, b.MinLon), b.MaxLon)
	return (lat-rLat)*(lat-rLat) + (lon-rLon)*(lon-rLon)
}

type NodeItem struct {
	ID  int32
	Lat float64
	Lon float64
}

func (n NodeItem) distSq(lat, lon float64) float64 {
	return (n.Lat-lat)*(n.Lat-lat) + (n.Lon-lon)*(n.Lon-lon)
}

// treeNode is either an internal node, a leaf node, or a data entry
// (leaf != nil, items empty).
type treeNode struct {
	items  []*treeNode
	parent *treeNode
	bound  BoundingBox
	isLeaf bool
	leaf   *NodeItem
}

func (n *treeNode) computeBB() BoundingBox {
	bb := n.items[0].bound
	for _, item := range n.items[1:] {
		bb = union(bb, item.bound)
	}
	return bb
}

type Rtree struct {
	root          *treeNode
	size          int
	minChildItems int
	maxChildItems int
}

func NewRtree(minChildItems, maxChildItems int) *Rtree {
	return &Rtree{
		root: &treeNode{
			isLeaf: true,
			items:  make([]*treeNode, 0, maxChildItems),
		},
		minChildItems: minChildItems,
		maxChildItems: maxChildItems,
	}
}

// BuildFromNodes indexes every node of the graph, one entry per node.
func BuildFromNodes(nodes []datastructure.Node) *Rtree {
	rt := NewRtree(25, 50)
	for _, node := range nodes {
		rt.InsertNode(node.ID, node.Lat, node.Lon)
	}
	return rt
}

func (rt *Rtree) Size() int {
	return rt.size
}

func (rt *Rtree) InsertNode(id int32, lat, lon float64) {
	entry := &treeNode{
		bound: NewPointBound(lat, lon),
		leaf:  &NodeItem{ID: id, Lat: lat, Lon: lon},
	}

	leafNode := rt.chooseLeaf(rt.root, entry.bound)
	leafNode.items = append(leafNode.items, entry)
	entry.parent = leafNode
	rt.size++

	l, ll := leafNode, (*treeNode)(nil)
	if len(leafNode.items) > rt.maxChildItems {
		l, ll = rt.splitNode(leafNode)
	}

	p, pp := rt.adjustTree(l, ll)
	if pp != nil {
		// the root split, grow the tree taller
		newRoot := &treeNode{items: []*treeNode{p, pp}}
		p.parent = newRoot
		pp.parent = newRoot
		newRoot.bound = newRoot.computeBB()
		rt.root = newRoot
	}
}

// chooseLeaf descends to the leaf whose rectangle needs the least
// enlargement to include bound, ties resolved by smallest area.
func (rt *Rtree) chooseLeaf(node *treeNode, bound BoundingBox) *treeNode {
	if node.isLeaf || node.leafChildren() {
		return node
	}

	minEnlargement := math.MaxFloat64
	chosenIdx := 0
	for i, item := range node.items {
		enlargement := area(union(item.bound, bound)) - area(item.bound)
		if enlargement < minEnlargement ||
			(enlargement == minEnlargement &&
				area(item.bound) < area(node.items[chosenIdx].bound)) {
			minEnlargement = enlargement
			chosenIdx = i
		}
	}

	return rt.chooseLeaf(node.items[chosenIdx], bound)
}

// leafChildren reports whether this node's children are data entries.
func (n *treeNode) leafChildren() bool {
	return len(n.items) > 0 && n.items[0].leaf != nil
}

func (rt *Rtree) adjustTree(l, ll *treeNode) (*treeNode, *treeNode) {
	n, nn := l, ll

	n.bound = n.computeBB()
	if n == rt.root {
		return n, nn
	}

	p := n.parent

	if nn != nil {
		nn.bound = nn.computeBB()
		nn.parent = p
		p.items = append(p.items, nn)
		if len(p.items) > rt.maxChildItems {
			return rt.adjustTree(rt.splitNode(p))
		}
	}

	return rt.adjustTree(p, nil)
}

// splitNode splits an overflowing node in two with Guttman's linear
// pick-seeds, distributing the remaining entries by least enlargement.
func (rt *Rtree) splitNode(n *treeNode) (*treeNode, *treeNode) {
	seedOne, seedTwo := rt.linearPickSeeds(n)

	remaining := make([]*treeNode, 0, len(n.items)-2)
	for _, item := range n.items {
		if item != seedOne && item != seedTwo {
			remaining = append(remaining, item)
		}
	}

	groupOne := n
	groupOne.items = []*treeNode{seedOne}
	seedOne.parent = groupOne

	groupTwo := &treeNode{
		parent: n.parent,
		items:  []*treeNode{seedTwo},
		isLeaf: n.isLeaf,
	}
	seedTwo.parent = groupTwo

	for len(remaining) > 0 {
		// if one group must take every remaining entry to reach the
		// minimum fill, assign them all and stop
		if len(groupOne.items)+len(remaining) <= rt.minChildItems {
			for _, item := range remaining {
				groupOne.items = append(groupOne.items, item)
				item.parent = groupOne
			}
			break
		}
		if len(groupTwo.items)+len(remaining) <= rt.minChildItems {
			for _, item := range remaining {
				groupTwo.items = append(groupTwo.items, item)
				item.parent = groupTwo
			}
			break
		}

		next := pickNext(groupOne, groupTwo, remaining)
		item := remaining[next]
		remaining = append(remaining[:next], remaining[next+1:]...)

		bbOne := groupOne.computeBB()
		bbTwo := groupTwo.computeBB()
		enlargementOne := area(union(bbOne, item.bound)) - area(bbOne)
		enlargementTwo := area(union(bbTwo, item.bound)) - area(bbTwo)

		target := groupOne
		if enlargementTwo < enlargementOne ||
			(enlargementTwo == enlargementOne && area(bbTwo) < area(bbOne)) ||
			(enlargementTwo == enlargementOne && area(bbTwo) == area(bbOne) &&
				len(groupTwo.items) < len(groupOne.items)) {
			target = groupTwo
		}
		target.items = append(target.items, item)
		item.parent = target
	}

	groupOne.bound = groupOne.computeBB()
	groupTwo.bound = groupTwo.computeBB()

	return groupOne, groupTwo
}

// linearPickSeeds picks the pair with the greatest normalized
// separation along either axis as the first entries of the two groups.
func (rt *Rtree) linearPickSeeds(n *treeNode) (*treeNode, *treeNode) {
	entryOne := n.items[0]
	entryTwo := n.items[1]

	greatestSeparation := math.Inf(-1)
	for axis := 0; axis < 2; axis++ {
		lowestHighSide := math.Inf(1)
		highestLowSide := math.Inf(-1)
		highestHighSide := math.Inf(-1)
		lowestLowSide := math.Inf(1)

		lowestHighSideIdx := 0
		highestLowSideIdx := 0

		for i, item := range n.items {
			low, high := item.bound.MinLat, item.bound.MaxLat
			if axis == 1 {
				low, high = item.bound.MinLon, item.bound.MaxLon
			}

			if low > highestLowSide {
				highestLowSide = low
				highestLowSideIdx = i
			}
			if low < lowestLowSide {
				lowestLowSide = low
			}
			if high < lowestHighSide {
				lowestHighSide = high
				lowestHighSideIdx = i
			}
			if high > highestHighSide {
				highestHighSide = high
			}
		}

		width := highestHighSide - lowestLowSide
		if width == 0 {
			continue
		}
		separation := (highestLowSide - lowestHighSide) / width
		if separation > greatestSeparation && highestLowSideIdx != lowestHighSideIdx {
			greatestSeparation = separation
			entryOne = n.items[highestLowSideIdx]
			entryTwo = n.items[lowestHighSideIdx]
		}
	}

	return entryOne, entryTwo
}

// pickNext chooses the remaining entry with the greatest preference for
// one group (maximum enlargement difference).
func pickNext(groupOne, groupTwo *treeNode, remaining []*treeNode) int {
	chosen := 0
	maxDiff := math.Inf(-1)
	bbOne := groupOne.computeBB()
	bbTwo := groupTwo.computeBB()
	for i, item := range remaining {
		d1 := area(union(bbOne, item.bound)) - area(bbOne)
		d2 := area(union(bbTwo, item.bound)) - area(bbTwo)
		if d := math.Abs(d1 - d2); d > maxDiff {
			chosen = i
			maxDiff = d
		}
	}
	return chosen
}

// nearestTolerance treats candidates within this squared degree-space
// distance of the best as ties, resolved toward the lowest node id.
const nearestTolerance = 1e-12

// Nearest returns the id of the node closest to the query point in
// degree space. It always returns a result for a non-empty index, no
// matter how far outside the indexed bounding box the query lies.
// Returns -1 only on an empty index.
func (rt *Rtree) Nearest(lat, lon float64) int32 {
	best := int32(-1)
	bestDistSq := math.Inf(1)

	rt.nearestNeighbors(lat, lon, func(item *NodeItem, distSq float64) bool {
		if best == -1 {
			best = item.ID
			bestDistSq = distSq
			return true
		}
		if distSq > bestDistSq+nearestTolerance {
			return false
		}
		if item.ID < best {
			best = item.ID
		}
		return true
	})

	return best
}

// nearestNeighbors yields data entries in nondecreasing degree-space
// distance order until the callback returns false. Best-first search
// over the tree: internal nodes are ranked by minDistSq (a lower bound
// on any entry below them), data entries by their exact distance.
func (rt *Rtree) nearestNeighbors(lat, lon float64, yield func(item *NodeItem, distSq float64) bool) {
	pq := newNnHeap()
	pq.push(nnEntry{rank: rt.root.bound.minDistSq(lat, lon), node: rt.root})

	for pq.size() > 0 {
		element := pq.pop()
		if element.node.leaf != nil {
			if !yield(element.node.leaf, element.rank) {
				return
			}
			continue
		}
		for _, item := range element.node.items {
			rank := item.bound.minDistSq(lat, lon)
			if item.leaf != nil {
				rank = item.leaf.distSq(lat, lon)
			}
			pq.push(nnEntry{rank: rank, node: item})
		}
	}
}

type nnEntry struct {
	rank float64
	node *treeNode
}

// nnHeap binary heap priorityqueue for the best-first nearest search
type nnHeap struct {
	heap []nnEntry
}

func newNnHeap() *nnHeap {
	return &nnHeap{heap: make([]nnEntry, 0)}
}

func (h *nnHeap) size() int {
	return len(h.heap)
}

func (h *nnHeap) push(e nnEntry) {
	h.heap = append(h.heap, e)
	index := len(h.heap) - 1
	for index != 0 && h.heap[index].rank < h.heap[(index-1)/2].rank {
		h.heap[index], h.heap[(index-1)/2] = h.heap[(index-1)/2], h.heap[index]
		index = (index - 1) / 2
	}
}

func (h *nnHeap) pop() nnEntry {
	root := h.heap[0]
	h.heap[0] = h.heap[len(h.heap)-1]
	h.heap = h.heap[:len(h.heap)-1]

	index := 0
	for {
		smallest := index
		left, right := 2*index+1, 2*index+2
		if left < len(h.heap) && h.heap[left].rank < h.heap[smallest].rank {
			smallest = left
		}
		if right < len(h.heap) && h.heap[right].rank < h.heap[smallest].rank {
			smallest = right
		}
		if smallest == index {
			break
		}
		h.heap[index], h.heap[smallest] = h.heap[smallest], h.heap[index]
		index = smallest
	}
	return root
}
