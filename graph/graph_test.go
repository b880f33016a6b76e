package graph_test

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/soypat/shadergraph/graph"
)

func TestIdMapOrdering(t *testing.T) {
	var m graph.IdMap[string]
	for _, id := range []int{5, 1, 9, 3} {
		_, inserted := m.Insert(id, "v")
		if !inserted {
			t.Fatal("expected insertion of", id)
		}
	}
	if _, inserted := m.Insert(3, "dup"); inserted {
		t.Error("duplicate id inserted")
	}
	if v, _ := m.Get(3); v != "v" {
		t.Error("duplicate insert overwrote element", v)
	}
	if !slices.Equal(m.IDs(), []int{1, 3, 5, 9}) {
		t.Error("ids not ascending", m.IDs())
	}
	if m.Erase(5) != 1 || m.Erase(5) != 0 {
		t.Error("bad erase count")
	}
	if m.Contains(5) || !m.Contains(9) {
		t.Error("contains mismatch after erase")
	}
	idx, ok := m.Find(9)
	if !ok || idx != 2 {
		t.Error("find 9 got", idx, ok)
	}
	if m.Ptr(100) != nil {
		t.Error("expected nil pointer for absent id")
	}
	*m.Ptr(1) = "edited"
	if v, _ := m.Get(1); v != "edited" {
		t.Error("pointer write not visible", v)
	}
}

func TestIdUniqueness(t *testing.T) {
	var g graph.Graph[int]
	seen := make(map[int]bool)
	a := g.InsertNode(0)
	b := g.InsertNode(1)
	seen[a], seen[b] = true, true
	for i := 0; i < 100; i++ {
		var id int
		if i%3 == 0 {
			var err error
			id, err = g.InsertEdge(a, b)
			if err != nil {
				t.Fatal(err)
			}
		} else {
			id = g.InsertNode(i)
		}
		if seen[id] {
			t.Fatal("id reused", id)
		}
		seen[id] = true
	}
	// Erased ids are not recycled.
	g.EraseNode(b)
	if id := g.InsertNode(0); seen[id] {
		t.Error("erased id recycled", id)
	}
}

func TestSelfLoopRejected(t *testing.T) {
	var g graph.Graph[int]
	a := g.InsertNode(0)
	_, err := g.InsertEdge(a, a)
	if !errors.Is(err, graph.ErrSelfLoop) {
		t.Error("expected self-loop error, got", err)
	}
	if g.NumEdges() != 0 || g.NumEdgesFromNode(a) != 0 {
		t.Error("self-loop mutated graph")
	}
	_, err = g.InsertEdge(a, 1000)
	if !errors.Is(err, graph.ErrNodeNotFound) {
		t.Error("expected node not found, got", err)
	}
	if g.NumEdges() != 0 {
		t.Error("dangling edge inserted")
	}
}

func TestEraseNodeCascade(t *testing.T) {
	var g graph.Graph[int]
	a := g.InsertNode(0)
	b := g.InsertNode(1)
	c := g.InsertNode(2)
	eab, _ := g.InsertEdge(a, b)
	ebc, _ := g.InsertEdge(b, c)
	eac, _ := g.InsertEdge(a, c)
	if !g.EraseNode(b) {
		t.Fatal("expected erase")
	}
	if g.EraseNode(b) {
		t.Error("second erase reported success")
	}
	if _, ok := g.Edge(eab); ok {
		t.Error("edge a->b survived")
	}
	if _, ok := g.Edge(ebc); ok {
		t.Error("edge b->c survived")
	}
	if _, ok := g.Edge(eac); !ok {
		t.Error("unrelated edge a->c erased")
	}
	if !slices.Equal(g.Neighbors(a), []int{c}) {
		t.Error("neighbors of a not updated", g.Neighbors(a))
	}
	checkConsistency(t, &g)
}

func TestRandomMutationConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var g graph.Graph[int]
	for i := 0; i < 2000; i++ {
		ids := g.NodeIDs()
		switch op := rng.Intn(5); {
		case op == 0 || len(ids) < 2:
			g.InsertNode(i)
		case op == 1:
			g.EraseNode(ids[rng.Intn(len(ids))])
		case op == 2:
			edges := g.Edges()
			if len(edges) > 0 {
				g.EraseEdge(edges[rng.Intn(len(edges))].ID)
			}
		default:
			from := ids[rng.Intn(len(ids))]
			to := ids[rng.Intn(len(ids))]
			before := g.NumEdges()
			_, err := g.InsertEdge(from, to)
			if from == to && (err == nil || g.NumEdges() != before) {
				t.Fatal("self loop accepted")
			}
		}
		checkConsistency(t, &g)
	}
}

// checkConsistency verifies degrees and neighbor multisets match the edge set
// and that no edge dangles.
func checkConsistency(t *testing.T, g *graph.Graph[int]) {
	t.Helper()
	degree := make(map[int]int)
	targets := make(map[int][]int)
	for _, e := range g.Edges() {
		if !g.NodeExists(e.From) || !g.NodeExists(e.To) {
			t.Fatalf("dangling edge %+v", e)
		}
		degree[e.From]++
		targets[e.From] = append(targets[e.From], e.To)
	}
	for _, id := range g.NodeIDs() {
		if g.NumEdgesFromNode(id) != degree[id] {
			t.Fatalf("node %d degree %d, want %d", id, g.NumEdgesFromNode(id), degree[id])
		}
		got := slices.Clone(g.Neighbors(id))
		want := targets[id]
		slices.Sort(got)
		slices.Sort(want)
		if !slices.Equal(got, want) {
			t.Fatalf("node %d neighbors %v, want %v", id, got, want)
		}
	}
}

func TestDepthFirstOrder(t *testing.T) {
	var g graph.Graph[int]
	root := g.InsertNode(0)
	l := g.InsertNode(1)
	r := g.InsertNode(2)
	rr := g.InsertNode(3)
	g.InsertEdge(root, l)
	g.InsertEdge(root, r)
	g.InsertEdge(r, rr)
	var order []int
	err := graph.DepthFirst(&g, root, func(id int) { order = append(order, id) })
	if err != nil {
		t.Fatal(err)
	}
	// Last pushed neighbor is visited first.
	want := []int{root, r, rr, l}
	if !slices.Equal(order, want) {
		t.Errorf("got order %v, want %v", order, want)
	}
}

func TestDepthFirstNotForest(t *testing.T) {
	var g graph.Graph[int]
	a := g.InsertNode(0)
	b := g.InsertNode(0)
	c := g.InsertNode(0)
	shared := g.InsertNode(0)
	g.InsertEdge(a, b)
	g.InsertEdge(a, c)
	g.InsertEdge(b, shared)
	g.InsertEdge(c, shared)
	err := graph.DepthFirst(&g, a, func(int) {})
	if !errors.Is(err, graph.ErrNotForest) {
		t.Error("expected reconvergence detection, got", err)
	}
	// Cycles terminate too.
	g.InsertEdge(shared, a)
	err = graph.DepthFirst(&g, a, func(int) {})
	if !errors.Is(err, graph.ErrNotForest) {
		t.Error("expected cycle detection, got", err)
	}
	if len(graph.Reachable(&g, a)) != 4 {
		t.Error("reachable set should include all four nodes")
	}
	err = graph.DepthFirst(&g, 1000, func(int) {})
	if !errors.Is(err, graph.ErrNodeNotFound) {
		t.Error("expected missing start error, got", err)
	}
}

func TestRemoveDisconnectedEdges(t *testing.T) {
	var g graph.Graph[int]
	root := g.InsertNode(0)
	child := g.InsertNode(0)
	island1 := g.InsertNode(0)
	island2 := g.InsertNode(0)
	keep, _ := g.InsertEdge(root, child)
	g.InsertEdge(island1, island2)
	g.InsertEdge(island1, child) // Only the target is reachable.
	removed := g.RemoveDisconnectedEdges(root)
	if removed != 2 {
		t.Error("expected 2 removed edges, got", removed)
	}
	if g.NumEdges() != 1 {
		t.Fatal("expected single surviving edge")
	}
	if _, ok := g.Edge(keep); !ok {
		t.Error("reachable edge removed")
	}
	checkConsistency(t, &g)
}

func TestRestoreWithID(t *testing.T) {
	var g graph.Graph[int]
	if err := g.InsertNodeWithID(10, 1); err != nil {
		t.Fatal(err)
	}
	if err := g.InsertNodeWithID(4, 2); err != nil {
		t.Fatal(err)
	}
	if err := g.InsertNodeWithID(4, 3); !errors.Is(err, graph.ErrIDInUse) {
		t.Error("expected id in use, got", err)
	}
	if err := g.InsertEdgeWithID(12, 10, 4); err != nil {
		t.Fatal(err)
	}
	if err := g.InsertEdgeWithID(11, 10, 10); !errors.Is(err, graph.ErrSelfLoop) {
		t.Error("expected self-loop, got", err)
	}
	if id := g.InsertNode(0); id != 13 {
		t.Error("counter not advanced past restored ids, got", id)
	}
}
