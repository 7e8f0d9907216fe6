// Copyright (C) 2022, VigilantDoomer
//
// This file is part of VigilantBSP program.
//
// VigilantBSP is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantBSP is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantBSP.  If not, see <https://www.gnu.org/licenses/>.
package bsp

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vogonsorg/Doomsday-Engine-sub001/level"
	"github.com/vogonsorg/Doomsday-Engine-sub001/zone"
)

// ChildRef names a child of a build-time node: a non-negative value is
// another node, a negative one a leaf
type ChildRef int32

func leafChild(f FaceRef) ChildRef {
	return ChildRef(-1 - int32(f))
}

func (c ChildRef) IsLeaf() bool {
	return c < 0
}

func (c ChildRef) Leaf() FaceRef {
	return FaceRef(-1 - int32(c))
}

func (c ChildRef) Node() int32 {
	return int32(c)
}

// Node is a build-time BSP node. Index 0 of Bbox and Child is the right
// side of the partition, index 1 the left.
type Node struct {
	X, Y   float64
	Dx, Dy float64
	Bbox   [2]AABB
	Child  [2]ChildRef
	// linedef the partition was taken from
	Line int32
}

// Anomalies counts geometry problems the builder worked around
type Anomalies struct {
	// leaves whose half-edges do not join up end to start
	OpenLeaves int
	// leaves holding half-edges of more than one sector
	MixedSectors int
	// nodes that would have had an empty side, kept as one leaf instead
	ForcedLeaves int
	// sectors found open on one side of a partition only, each counted once
	UnclosedSectors int
	// partitions seeing different sectors at the two ends of an open gap
	SectorMismatches int
	// linedefs shorter than DIST_EPSILON
	ZeroLength int
	// linedefs without any sidedef, ignored
	NoSidedefs int
}

func (a Anomalies) Total() int {
	return a.OpenLeaves + a.MixedSectors + a.ForcedLeaves + a.UnclosedSectors +
		a.SectorMismatches + a.ZeroLength + a.NoSidedefs
}

type BuildStats struct {
	Nodes  int
	Leaves int
	Segs   int
	// half-edges cut in two by partitions
	Splits int
	// mini half-edge pairs created along partitions
	Minis int
	// depth of the deepest leaf, 0 when the root is a leaf
	Height        int
	MaxSegsInLeaf int
	// input vertices that duplicated another's coordinates
	MergedVertices int
	SelfRefLines   int
	Anomalies      Anomalies
}

// Tree is the result of a build: the node hierarchy over a half-edge store
// whose faces are the leaves. It holds zone memory until Release.
type Tree struct {
	Level *level.Level
	Root  ChildRef
	Stats BuildStats

	alloc zone.Allocator
	opts  Options
	store *Store
	nodes *zone.Arena[Node]
}

func (t *Tree) Store() *Store {
	return t.store
}

func (t *Tree) NodeCount() int {
	return t.nodes.Len()
}

func (t *Tree) Node(i int32) *Node {
	return t.nodes.At(i)
}

// Release frees all build-time structures. The tree is unusable afterwards.
func (t *Tree) Release() {
	if t.store == nil {
		return
	}
	t.store.Release()
	t.nodes.Release()
	t.store = nil
}

// Builder builds node trees for levels, allocating from one zone
type Builder struct {
	alloc zone.Allocator
	opts  Options
}

func NewBuilder(alloc zone.Allocator, opts Options) *Builder {
	return &Builder{alloc: alloc, opts: opts}
}

// NodesWork is the state of one build
type NodesWork struct {
	lvl    *level.Level
	opts   Options
	store  *Store
	supers *superblocks
	nodes  *zone.Arena[Node]
	stats  *BuildStats

	marks     *lineMarks
	usedLines []bool
	selfRef   []bool
	warned    []bool // sectors already reported unclosed

	// scratch, reused between calls
	work  []HalfEdgeRef
	queue *ringQueue
	cuts  []intersection
	ring  []ringEntry
}

// Build partitions the level into convex leaves. Running out of zone
// memory aborts this build only: everything allocated for it is released
// and an error wrapping zone.ErrExhausted is returned.
func (b *Builder) Build(lvl *level.Level) (tree *Tree, err error) {
	start := time.Now()
	if err := lvl.Validate(); err != nil {
		return nil, errors.Wrapf(err, "level %s", lvl.Name)
	}

	stats := &BuildStats{}
	w := &NodesWork{
		lvl:       lvl,
		opts:      b.opts,
		store:     NewStore(b.alloc, b.opts.BuildTag),
		nodes:     zone.NewArena[Node](b.alloc, b.opts.BuildTag, NODE_PAGE),
		stats:     stats,
		marks:     newLineMarks(len(lvl.Linedefs)),
		usedLines: make([]bool, len(lvl.Linedefs)),
		warned:    make([]bool, len(lvl.Sectors)),
		queue:     newRing(len(lvl.Linedefs)),
	}
	w.supers = newSuperblocks(w.store, b.alloc, b.opts.BuildTag)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := zone.AsExhausted(r); !ok {
			panic(r)
		}
		w.supers.Release()
		w.nodes.Release()
		w.store.Release()
		tree = nil
		err = errors.Wrapf(r.(error), "building nodes for %s", lvl.Name)
		Log.Error("Node building for %s aborted: %v\n", lvl.Name, r)
	}()

	var counts []selfRefCount
	w.selfRef, counts = findSelfRefs(lvl)
	for _, c := range counts {
		stats.SelfRefLines += c.Lines
	}
	logSelfRefs(counts)

	rootSet := w.createHalfEdges()
	box := w.supers.BoundsOfContents(rootSet)
	Log.Printf("Initial number of half-edges is %d.\n", w.store.HalfEdgeCount())
	if !box.Empty() {
		Log.Verbose(VERBOSE_SUMMARY, "Nodes: map goes from (%g,%g) to (%g,%g)\n",
			box.MinX, box.MinY, box.MaxX, box.MaxY)
	}

	// The main act
	root := w.createNode(rootSet, 0)
	w.supers.Release()

	Log.Flush()
	w.finishStats()
	Log.Printf("Created %d subsectors, %d nodes. Got %d segs. Split segs %d times.\n",
		stats.Leaves, stats.Nodes, stats.Segs, stats.Splits)
	Log.Verbose(VERBOSE_SUMMARY, "Tree height %d, max seg count in subsector: %d\n",
		stats.Height, stats.MaxSegsInLeaf)
	if n := stats.Anomalies.Total(); n > 0 {
		Log.Printf("Worked around %d geometry problems in %s\n", n, lvl.Name)
	}
	Log.Printf("Nodes took %s\n", time.Since(start))

	return &Tree{
		Level: lvl,
		Root:  root,
		Stats: *stats,
		alloc: b.alloc,
		opts:  b.opts,
		store: w.store,
		nodes: w.nodes,
	}, nil
}

// BuildMap builds the level and hardens the result, releasing build-time
// data either way
func (b *Builder) BuildMap(lvl *level.Level) (*Map, BuildStats, error) {
	tree, err := b.Build(lvl)
	if err != nil {
		return nil, BuildStats{}, err
	}
	defer tree.Release()
	m, err := tree.Harden()
	if err != nil {
		return nil, tree.Stats, err
	}
	return m, tree.Stats, nil
}

// createHalfEdges turns linedefs into half-edges, one per sidedef, and
// buckets them all in a new top-level superblock
func (w *NodesWork) createHalfEdges() int32 {
	lvl := w.lvl
	store := w.store

	vertexOf := make([]VertexRef, len(lvl.Vertices))
	for i := range vertexOf {
		vertexOf[i] = NoVertex
	}
	byPos := swiss.NewMap[level.Vertex, VertexRef](uint32(len(lvl.Vertices)))
	getVertex := func(idx int) VertexRef {
		if v := vertexOf[idx]; v != NoVertex {
			return v
		}
		pos := lvl.Vertices[idx]
		v, ok := byPos.Get(pos)
		if ok {
			w.stats.MergedVertices++
		} else {
			v = store.CreateVertex(pos.X, pos.Y, int32(idx))
			byPos.Put(pos, v)
		}
		vertexOf[idx] = v
		return v
	}

	var all []HalfEdgeRef
	for i, line := range lvl.Linedefs {
		front := int32(lvl.SideSector(i, level.SideFront))
		back := int32(lvl.SideSector(i, level.SideBack))
		if front < 0 && back < 0 {
			w.stats.Anomalies.NoSidedefs++
			Log.Printf("Warning: linedef %d has no sidedefs, ignored\n", i)
			continue
		}

		v1 := getVertex(line.StartVertex)
		v2 := getVertex(line.EndVertex)
		start, end := store.Vertex(v1), store.Vertex(v2)
		dx, dy := end.X-start.X, end.Y-start.Y
		if math.Hypot(dx, dy) < DIST_EPSILON {
			w.stats.Anomalies.ZeroLength++
			Log.Verbose(w.opts.AnomalyVerbosity, "Linedef %d is zero length\n", i)
		} else {
			store.AddWallTip(v1, dx, dy, back, front)
			store.AddWallTip(v2, -dx, -dy, front, back)
		}

		fe, be := NoHalfEdge, NoHalfEdge
		if front >= 0 {
			fe = w.lineHalfEdge(v1, v2, i, level.SideFront, front)
			all = append(all, fe)
		}
		if back >= 0 {
			be = w.lineHalfEdge(v2, v1, i, level.SideBack, back)
			all = append(all, be)
		}
		if fe != NoHalfEdge && be != NoHalfEdge {
			store.SetTwin(fe, be)
		}
	}

	box := emptyAABB()
	for _, e := range all {
		he := store.HalfEdge(e)
		box.addPoint(he.psx, he.psy)
		box.addPoint(he.pex, he.pey)
	}
	root := w.supers.NewRoot(box)
	for _, e := range all {
		w.supers.Push(root, e)
	}
	return root
}

func (w *NodesWork) lineHalfEdge(v1, v2 VertexRef, line int, side int, sector int32) HalfEdgeRef {
	e := w.store.CreateEdge(v1, v2)
	he := w.store.HalfEdge(e)
	he.Line = int32(line)
	he.Side = int32(side)
	he.Sector = sector
	if w.selfRef[line] {
		he.flags |= heSelfRef
	}
	return e
}

// createNode partitions the half-edges of set, recursing until every piece
// is convex, and returns the subtree
func (w *NodesWork) createNode(set int32, depth int) ChildRef {
	if depth > w.stats.Height {
		w.stats.Height = depth
	}

	part, ok := w.pickNode(set)
	if !ok {
		return leafChild(w.createLeaf(set))
	}

	rights, lefts := w.divide(set, &part)
	if w.supers.At(rights).Total() == 0 || w.supers.At(lefts).Total() == 0 {
		w.stats.Anomalies.ForcedLeaves++
		Log.Verbose(w.opts.AnomalyVerbosity, "Partition along linedef %d left one side empty, making a leaf\n",
			part.line)
		return leafChild(w.createLeaf(rights, lefts))
	}

	node := Node{
		X:    part.psx,
		Y:    part.psy,
		Dx:   part.pdx,
		Dy:   part.pdy,
		Line: part.line,
	}
	node.Bbox[0] = w.supers.BoundsOfContents(rights)
	node.Bbox[1] = w.supers.BoundsOfContents(lefts)

	// a line never partitions twice on one path, so every level down has
	// fewer candidates
	w.usedLines[part.line] = true
	node.Child[0] = w.createNode(rights, depth+1)
	node.Child[1] = w.createNode(lefts, depth+1)
	w.usedLines[part.line] = false

	return ChildRef(w.nodes.MustAppend(node))
}

func (w *NodesWork) finishStats() {
	w.stats.Nodes = w.nodes.Len()
	w.stats.Leaves = w.store.FaceCount()
	w.stats.Segs = 0
	w.stats.MaxSegsInLeaf = 0
	w.store.ForEachFace(func(_ FaceRef, face *Face) {
		n := int(face.Count)
		w.stats.Segs += n
		if n > w.stats.MaxSegsInLeaf {
			w.stats.MaxSegsInLeaf = n
		}
	})
}

// Dump writes a text rendition of the tree, right children first. Two
// builds of the same level dump identically.
func (t *Tree) Dump(out io.Writer) error {
	return t.dumpChild(out, t.Root, 0)
}

func (t *Tree) dumpChild(out io.Writer, c ChildRef, depth int) error {
	indent := fmt.Sprintf("%*s", depth*2, "")
	if c.IsLeaf() {
		f := c.Leaf()
		face := t.store.Face(f)
		if _, err := fmt.Fprintf(out, "%sleaf %d sector %d segs %d\n", indent, f, face.Sector, face.Count); err != nil {
			return err
		}
		var err error
		t.store.ForEachInRing(f, func(e HalfEdgeRef, he *HalfEdge) {
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(out, "%s  (%g,%g)-(%g,%g) line %d side %d sector %d\n", indent,
				he.psx, he.psy, he.pex, he.pey, he.Line, he.Side, he.Sector)
		})
		return err
	}
	n := t.Node(c.Node())
	if _, err := fmt.Fprintf(out, "%snode (%g,%g) d (%g,%g) line %d\n", indent, n.X, n.Y, n.Dx, n.Dy, n.Line); err != nil {
		return err
	}
	for _, child := range n.Child {
		if err := t.dumpChild(out, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
