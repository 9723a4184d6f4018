// Copyright ©2019 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vptree implements a vantage point tree over a caller-supplied
// metric, providing exact nearest neighbour search without requiring a
// coordinate space.
package vptree

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// A Comparable is the element interface for values stored in a vp-tree.
type Comparable interface {
	// Distance returns the distance between the receiver and the
	// parameter. The returned distance must satisfy the properties
	// of distances in a metric space.
	//
	//  - a.Distance(a) == 0
	//  - a.Distance(b) >= 0
	//  - a.Distance(b) == b.Distance(a)
	//  - a.Distance(b) <= a.Distance(c)+c.Distance(b)
	//
	// Violations of these properties are not detected; they silently
	// degrade query results by invalidating subtree pruning.
	Distance(Comparable) float64
}

// Point represents a point in a Euclidean k-d space that satisfies the
// Comparable interface.
type Point []float64

// Distance returns the Euclidean distance between c and the receiver. The
// concrete type of c must be Point.
func (p Point) Distance(c Comparable) float64 {
	q := c.(Point)
	var sum float64
	for dim, c := range p {
		d := c - q[dim]
		sum += d * d
	}
	return math.Sqrt(sum)
}

var (
	// ErrEmptyTree is returned by Nearest when the queried tree holds
	// no values.
	ErrEmptyTree = errors.New("vptree: nearest query on empty tree")

	// ErrNotImplemented is returned by Neighbors, which is reserved
	// API surface for tolerance queries but is not yet implemented.
	ErrNotImplemented = errors.New("vptree: tolerance query not implemented")
)

// A Strategy specifies how vantage points are chosen during tree
// construction. The zero value of Strategy is Exhaustive.
type Strategy struct {
	kind   strategyKind
	sample int
}

type strategyKind int

const (
	exhaustive strategyKind = iota
	sampled
	random
)

var (
	// Exhaustive scores every point against all remaining points and
	// selects the point whose distances have the greatest spread about
	// their median. Selection performs O(n²) distance calls per node.
	Exhaustive = Strategy{kind: exhaustive}

	// Random selects vantage points uniformly at random without scoring
	// candidates, and takes the true median of distances to the
	// remaining points as the split threshold.
	Random = Strategy{kind: random}
)

// Sampled returns a Strategy that scores a bootstrap sample of n candidate
// points, estimating each candidate's spread against an independently drawn
// bootstrap sample of the same size. It trades tree quality for construction
// cost on large point sets. When n is not less than the number of points
// remaining at a node the strategy degrades to Exhaustive. Sampled panics
// if n is less than one.
func Sampled(n int) Strategy {
	if n < 1 {
		panic("vptree: invalid sample size")
	}
	return Strategy{kind: sampled, sample: n}
}

// A Node holds a single point value in a vp-tree.
type Node struct {
	Point Comparable

	// LeftLow and LeftHigh are the least and greatest distances from
	// Point to values held in the Left subtree. RightLow and RightHigh
	// bound the Right subtree in the same way. The bounds for an absent
	// subtree are zero.
	LeftLow, LeftHigh   float64
	RightLow, RightHigh float64

	// Middle is the midpoint of LeftHigh and RightLow and directs the
	// order of subtree descent during search.
	Middle float64

	Left, Right *Node
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v [%.3f %.3f] [%.3f %.3f] %.3f",
		n.Point, n.LeftLow, n.LeftHigh, n.RightLow, n.RightHigh, n.Middle)
}

// A Tree implements vp-tree creation and nearest neighbour search. A Tree
// is immutable once constructed and may be read concurrently without
// synchronisation.
type Tree struct {
	Root  *Node
	Count int
}

// New returns a vp-tree constructed from the values in p using the given
// vantage point selection strategy. The src parameter provides the source
// of randomness consumed by the Sampled and Random strategies; if src is
// nil global rand package functions are used. The order of elements in p
// will be altered after New returns.
func New(p []Comparable, s Strategy, src rand.Source) *Tree {
	var intn func(int) int
	if src == nil {
		intn = rand.Intn
	} else {
		intn = rand.New(src).Intn
	}
	b := builder{strategy: s, intn: intn}
	return &Tree{
		Root:  b.build(p),
		Count: len(p),
	}
}

// A builder performs vp-tree construction, carrying the selection strategy
// and the randomness it consumes.
type builder struct {
	strategy Strategy
	intn     func(n int) int
}

func (b *builder) build(s []Comparable) *Node {
	if len(s) == 0 {
		return nil
	}
	if len(s) == 1 {
		return &Node{Point: s[0]}
	}
	vp, mu, rest := b.selectVantage(s)
	n := Node{Point: vp}
	var (
		closer, further         []Comparable
		closerDist, furtherDist []float64
	)
	for _, p := range rest {
		d := vp.Distance(p)
		if d < mu {
			closer = append(closer, p)
			closerDist = append(closerDist, d)
		} else {
			further = append(further, p)
			furtherDist = append(furtherDist, d)
		}
	}
	if len(closerDist) != 0 {
		n.LeftLow = floats.Min(closerDist)
		n.LeftHigh = floats.Max(closerDist)
	}
	if len(furtherDist) != 0 {
		n.RightLow = floats.Min(furtherDist)
		n.RightHigh = floats.Max(furtherDist)
	}
	n.Middle = 0.5 * (n.LeftHigh + n.RightLow)
	n.Left = b.build(closer)
	n.Right = b.build(further)
	return &n
}

// selectVantage chooses a vantage point from s according to the builder's
// strategy. It returns the chosen point, the median of distances used as
// the split threshold, and the remaining points with the vantage point
// removed.
func (b *builder) selectVantage(s []Comparable) (vp Comparable, mu float64, rest []Comparable) {
	if len(s) == 1 {
		return s[0], 0, nil
	}
	switch st := b.strategy; {
	case st.kind == random:
		return b.randomVantage(s)
	case st.kind == sampled && st.sample < len(s):
		return b.sampledVantage(s)
	}
	return b.exhaustiveVantage(s)
}

func (b *builder) randomVantage(s []Comparable) (Comparable, float64, []Comparable) {
	i := b.intn(len(s))
	vp := s[i]
	rest := remove(s, i)
	work := make([]float64, len(rest))
	for j, p := range rest {
		work[j] = vp.Distance(p)
	}
	return vp, median(work), rest
}

func (b *builder) exhaustiveVantage(s []Comparable) (Comparable, float64, []Comparable) {
	var (
		best       int
		bestMu     float64
		bestSpread = math.Inf(-1)
	)
	work := make([]float64, 0, len(s)-1)
	for i, p := range s {
		w := work[:0]
		for j, q := range s {
			if j == i {
				continue
			}
			w = append(w, p.Distance(q))
		}
		mu := median(w)
		if sp := spread(w, mu); sp > bestSpread {
			best, bestMu, bestSpread = i, mu, sp
		}
	}
	vp := s[best]
	return vp, bestMu, remove(s, best)
}

func (b *builder) sampledVantage(s []Comparable) (Comparable, float64, []Comparable) {
	var (
		best       int
		bestMu     float64
		bestSpread = math.Inf(-1)
	)
	work := make([]float64, b.strategy.sample)
	for _, i := range b.bootstrap(b.strategy.sample, len(s)) {
		p := s[i]
		for j := range work {
			work[j] = p.Distance(s[b.intn(len(s))])
		}
		mu := median(work)
		if sp := spread(work, mu); sp > bestSpread {
			best, bestMu, bestSpread = i, mu, sp
		}
	}
	vp := s[best]
	return vp, bestMu, remove(s, best)
}

// spread returns the sum of squared deviations of d about m.
func spread(d []float64, m float64) float64 {
	return stat.MomentAbout(2, d, m, nil) * float64(len(d))
}

// remove returns s with the element at index i removed. The order of the
// retained elements is not preserved.
func remove(s []Comparable, i int) []Comparable {
	s[i] = s[len(s)-1]
	return s[:len(s)-1]
}

var inf = math.Inf(1)

// Nearest returns the value in the tree nearest to q and the distance
// between them. If the tree holds no values, Nearest returns ErrEmptyTree.
func (t *Tree) Nearest(q Comparable) (Comparable, float64, error) {
	if t.Root == nil {
		return nil, inf, ErrEmptyTree
	}
	p, d := t.Root.search(q, nil, inf)
	return p, d, nil
}

// An interval is an open range of distances. A subtree whose recorded
// distance bounds, widened by the current best distance, do not strictly
// contain the query's distance to the vantage point cannot hold a closer
// value, by the triangle inequality.
type interval struct {
	lo, hi float64
}

func (iv interval) contains(x float64) bool { return iv.lo < x && x < iv.hi }

func (n *Node) search(q, best Comparable, tau float64) (Comparable, float64) {
	if n == nil {
		return best, tau
	}

	x := q.Distance(n.Point)
	if best == nil || x < tau {
		best, tau = n.Point, x
	}

	inLeft := interval{n.LeftLow - tau, n.LeftHigh + tau}.contains(x)
	inRight := interval{n.RightLow - tau, n.RightHigh + tau}.contains(x)

	primary, secondary := n.Left, n.Right
	inPrimary, inSecondary := inLeft, inRight
	if x >= n.Middle {
		primary, secondary = secondary, primary
		inPrimary, inSecondary = inSecondary, inPrimary
	}

	switch {
	case !inPrimary && !inSecondary:
		return best, tau
	case !inSecondary:
		return primary.search(q, best, tau)
	case !inPrimary:
		return secondary.search(q, best, tau)
	}
	pb, pd := primary.search(q, best, tau)
	sb, sd := secondary.search(q, pb, pd)
	if sd < pd {
		return sb, sd
	}
	return pb, pd
}

// Neighbors returns the values in the tree within tolerance of q.
//
// Neighbors is reserved API surface and is not implemented; it returns
// ErrNotImplemented for all inputs.
func (t *Tree) Neighbors(q Comparable, tolerance float64) ([]Comparable, error) {
	return nil, ErrNotImplemented
}

// An Operation is a function that operates on a Comparable. The tree depth
// of the value is also provided. If done is returned true, the Operation is
// indicating that no further work needs to be done and so the Do function
// should traverse no further.
type Operation func(Comparable, int) (done bool)

// Do performs fn on all values stored in the tree in-order. A boolean is
// returned indicating whether the Do traversal was interrupted by an
// Operation returning true. If fn alters stored values' distance
// relationships, future tree operation behaviors are undefined.
func (t *Tree) Do(fn Operation) bool {
	if t.Root == nil {
		return false
	}
	return t.Root.do(fn, 0)
}

func (n *Node) do(fn Operation, depth int) (done bool) {
	if n.Left != nil {
		done = n.Left.do(fn, depth+1)
		if done {
			return
		}
	}
	done = fn(n.Point, depth)
	if done {
		return
	}
	if n.Right != nil {
		done = n.Right.do(fn, depth+1)
	}
	return
}

// Points returns the values stored in the tree in in-order traversal order.
func (t *Tree) Points() []Comparable {
	if t.Root == nil {
		return nil
	}
	p := make([]Comparable, 0, t.Count)
	t.Do(func(c Comparable, _ int) bool {
		p = append(p, c)
		return false
	})
	return p
}

// Len returns the number of elements in the tree.
func (t *Tree) Len() int { return t.Count }

// IsEmpty returns whether the tree holds no values.
func (t *Tree) IsEmpty() bool { return t.Root == nil }
