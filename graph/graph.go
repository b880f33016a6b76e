// Package graph implements a directed graph of typed nodes with stable
// integer ids, intended to be mutated interactively between evaluations.
package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrSelfLoop is returned when inserting an edge whose endpoints are the same node.
	ErrSelfLoop = errors.New("self-loop edge")
	// ErrNodeNotFound is returned when an operation references a node id not in the graph.
	ErrNodeNotFound = errors.New("node not found")
	// ErrIDInUse is returned when restoring a node or edge under an id already taken.
	ErrIDInUse = errors.New("id already in use")
	// ErrNotForest is returned by DepthFirst when a node is discovered twice,
	// meaning the walked subgraph has reconvergent paths or a cycle.
	ErrNotForest = errors.New("graph is not a forest from start node")
)

// Edge is a directed link between two nodes. By convention the edge points from
// the node that reads a value toward the node that provides it.
type Edge struct {
	ID   int
	From int
	To   int
}

type nodeRecord[N any] struct {
	node N
	// neighbors holds the To of every edge whose From is this node,
	// in edge insertion order. Its length is the node's out-degree.
	neighbors []int
}

// Graph is a directed graph whose node and edge ids are drawn from one
// monotonically increasing counter and never reused. The zero value is an empty graph.
type Graph[N any] struct {
	nodes  IdMap[nodeRecord[N]]
	edges  IdMap[Edge]
	nextID int
}

func (g *Graph[N]) newID() int {
	id := g.nextID
	g.nextID++
	return id
}

// InsertNode adds n to the graph and returns its id.
func (g *Graph[N]) InsertNode(n N) int {
	id := g.newID()
	g.nodes.Insert(id, nodeRecord[N]{node: n})
	return id
}

// InsertNodeWithID adds n under a caller chosen id. Used to restore saved graphs.
// The id counter is advanced past id.
func (g *Graph[N]) InsertNodeWithID(id int, n N) error {
	if id < 0 {
		return fmt.Errorf("negative node id %d", id)
	} else if g.nodes.Contains(id) || g.edges.Contains(id) {
		return fmt.Errorf("node %d: %w", id, ErrIDInUse)
	}
	g.nodes.Insert(id, nodeRecord[N]{node: n})
	g.nextID = max(g.nextID, id+1)
	return nil
}

// EraseNode removes the node and every edge incident to it.
// It reports whether the node existed. Erasing an absent node is a no-op.
func (g *Graph[N]) EraseNode(id int) bool {
	if !g.nodes.Contains(id) {
		return false
	}
	// Collect first: erasing edges mutates the edge map being scanned.
	var incident []int
	for _, e := range g.edges.Elements() {
		if e.From == id || e.To == id {
			incident = append(incident, e.ID)
		}
	}
	for _, eid := range incident {
		g.EraseEdge(eid)
	}
	g.nodes.Erase(id)
	return true
}

// InsertEdge adds an edge from -> to and returns its id. The graph is left
// unchanged if the edge is a self-loop or either endpoint does not exist.
func (g *Graph[N]) InsertEdge(from, to int) (int, error) {
	err := g.checkEdge(from, to)
	if err != nil {
		return -1, err
	}
	id := g.newID()
	g.addEdge(Edge{ID: id, From: from, To: to})
	return id, nil
}

// InsertEdgeWithID adds an edge under a caller chosen id. Used to restore saved graphs.
func (g *Graph[N]) InsertEdgeWithID(id, from, to int) error {
	if id < 0 {
		return fmt.Errorf("negative edge id %d", id)
	} else if g.nodes.Contains(id) || g.edges.Contains(id) {
		return fmt.Errorf("edge %d: %w", id, ErrIDInUse)
	}
	err := g.checkEdge(from, to)
	if err != nil {
		return err
	}
	g.addEdge(Edge{ID: id, From: from, To: to})
	g.nextID = max(g.nextID, id+1)
	return nil
}

func (g *Graph[N]) checkEdge(from, to int) error {
	if from == to {
		return fmt.Errorf("edge %d->%d: %w", from, to, ErrSelfLoop)
	} else if !g.nodes.Contains(from) {
		return fmt.Errorf("edge source %d: %w", from, ErrNodeNotFound)
	} else if !g.nodes.Contains(to) {
		return fmt.Errorf("edge target %d: %w", to, ErrNodeNotFound)
	}
	return nil
}

func (g *Graph[N]) addEdge(e Edge) {
	g.edges.Insert(e.ID, e)
	rec := g.nodes.Ptr(e.From)
	rec.neighbors = append(rec.neighbors, e.To)
}

// EraseEdge removes the edge and reports whether it existed.
func (g *Graph[N]) EraseEdge(id int) bool {
	e, ok := g.edges.Get(id)
	if !ok {
		return false
	}
	g.edges.Erase(id)
	rec := g.nodes.Ptr(e.From)
	if rec != nil {
		// Remove a single occurrence: parallel edges contribute one neighbor each.
		if i := slices.Index(rec.neighbors, e.To); i >= 0 {
			rec.neighbors = slices.Delete(rec.neighbors, i, i+1)
		}
	}
	return true
}

// EdgeExists reports whether any edge from -> to is present. Runs in O(E).
func (g *Graph[N]) EdgeExists(from, to int) bool {
	for _, e := range g.edges.Elements() {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// Node returns a copy of the node with the given id.
func (g *Graph[N]) Node(id int) (n N, ok bool) {
	rec := g.nodes.Ptr(id)
	if rec == nil {
		return n, false
	}
	return rec.node, true
}

// NodePtr returns a mutable pointer to the node or nil if absent.
// The pointer is invalidated by the next node insertion or erasure.
func (g *Graph[N]) NodePtr(id int) *N {
	rec := g.nodes.Ptr(id)
	if rec == nil {
		return nil
	}
	return &rec.node
}

// SetNode replaces the node stored under id.
func (g *Graph[N]) SetNode(id int, n N) error {
	rec := g.nodes.Ptr(id)
	if rec == nil {
		return fmt.Errorf("set node %d: %w", id, ErrNodeNotFound)
	}
	rec.node = n
	return nil
}

func (g *Graph[N]) NodeExists(id int) bool { return g.nodes.Contains(id) }

// NumEdgesFromNode returns the number of edges whose From is id.
func (g *Graph[N]) NumEdgesFromNode(id int) int {
	rec := g.nodes.Ptr(id)
	if rec == nil {
		return 0
	}
	return len(rec.neighbors)
}

// Neighbors returns the To of every edge leaving id. The returned slice must not
// be modified and is invalidated by the next graph mutation. Nil if id is absent.
func (g *Graph[N]) Neighbors(id int) []int {
	rec := g.nodes.Ptr(id)
	if rec == nil {
		return nil
	}
	return rec.neighbors
}

func (g *Graph[N]) NumNodes() int { return g.nodes.Len() }
func (g *Graph[N]) NumEdges() int { return g.edges.Len() }

// NodeIDs returns node ids in ascending order. The slice must not be modified.
func (g *Graph[N]) NodeIDs() []int { return g.nodes.IDs() }

// Edges returns the edges in ascending id order. The slice must not be modified.
func (g *Graph[N]) Edges() []Edge { return g.edges.Elements() }

func (g *Graph[N]) Edge(id int) (Edge, bool) { return g.edges.Get(id) }

// RemoveDisconnectedEdges erases every edge that does not have both endpoints
// reachable from start and returns the number of edges erased.
// If start does not exist every edge is considered disconnected.
func (g *Graph[N]) RemoveDisconnectedEdges(start int) int {
	reachable := Reachable(g, start)
	var dead []int
	for _, e := range g.edges.Elements() {
		_, okFrom := reachable[e.From]
		_, okTo := reachable[e.To]
		if !okFrom || !okTo {
			dead = append(dead, e.ID)
		}
	}
	for _, id := range dead {
		g.EraseEdge(id)
	}
	return len(dead)
}
