package graph

import "fmt"

// DepthFirst walks the graph from start with an explicit stack: a node is visited,
// then all its neighbors are pushed in stored order so the last neighbor is visited next.
//
// The subgraph reachable from start must be a tree: no node reachable through
// two paths and no cycles. A set of discovered nodes is kept only to detect a
// node discovered a second time, which stops the walk with ErrNotForest. It never
// prunes a branch.
func DepthFirst[N any](g *Graph[N], start int, visit func(id int)) error {
	if !g.NodeExists(start) {
		return fmt.Errorf("depth first start %d: %w", start, ErrNodeNotFound)
	}
	seen := make(map[int]struct{})
	stack := []int{start}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := seen[current]; dup {
			return fmt.Errorf("node %d reached twice: %w", current, ErrNotForest)
		}
		seen[current] = struct{}{}
		visit(current)
		stack = append(stack, g.Neighbors(current)...)
	}
	return nil
}

// Reachable returns the set of nodes reachable from start, start included.
// Unlike [DepthFirst] it tolerates shared nodes and cycles. Empty if start is absent.
func Reachable[N any](g *Graph[N], start int) map[int]struct{} {
	visited := make(map[int]struct{})
	if !g.NodeExists(start) {
		return visited
	}
	stack := []int{start}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[current]; ok {
			continue
		}
		visited[current] = struct{}{}
		for _, nb := range g.Neighbors(current) {
			if _, ok := visited[nb]; !ok {
				stack = append(stack, nb)
			}
		}
	}
	return visited
}
