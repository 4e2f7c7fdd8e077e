/*
 * Filename: /Users/htang/code/svgeno/graph.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Wednesday, March 4th 2020, 10:02:31 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"fmt"
	"sort"
)

// Node is a piece of sequence in the variant graph. Nodes with a reference
// span [Start, End) on Chrom are anchored to the reference; nodes without one
// hold inserted sequence.
type Node struct {
	ID       string
	Sequence []byte
	Labels   []string // Sequences this node is on, empty means all of them
	Chrom    string
	Start    int // 0-based
	End      int // exclusive
}

// Edge joins the end of node From to the start of node To
type Edge struct {
	ID     string
	From   int
	To     int
	Labels []string
}

// Path is the walk through the graph that spells one allele
type Path struct {
	Label    string
	Nodes    []int
	Edges    []int // Edges[i] joins Nodes[i] and Nodes[i+1]
	Offsets  []int // Offsets[i] is where Nodes[i] starts in Sequence
	Sequence []byte
}

// Breakpoint is a junction where the paths diverge. All edges leave (or all
// enter) the same node.
type Breakpoint struct {
	ID      string
	Node    int
	Edges   []int
	Alleles []string
}

// Graph stores nodes and edges in flat slices addressed by index, so it can
// be shared read-only between workers
type Graph struct {
	ID          string
	Nodes       []Node
	Edges       []Edge
	Paths       []Path
	Breakpoints []Breakpoint
	nodeIndex   map[string]int
	edgeIndex   map[string]int
	outEdges    [][]int
	inEdges     [][]int
}

// Len returns the sequence length of the node
func (r *Node) Len() int {
	if len(r.Sequence) > 0 {
		return len(r.Sequence)
	}
	return r.End - r.Start
}

// HasReference tells if the node is anchored to the reference
func (r *Node) HasReference() bool {
	return r.Chrom != "" && r.End > r.Start
}

// Label returns the single sequence label, or LabelOther
func (r *Node) Label() string {
	return alleleLabel(r.Labels)
}

// Label returns the single sequence label, or LabelOther
func (r *Edge) Label() string {
	return alleleLabel(r.Labels)
}

// alleleLabel collapses a label set into one allele label
func alleleLabel(labels []string) string {
	if len(labels) == 1 {
		return labels[0]
	}
	return LabelOther
}

// labelLess orders labels with REF first, then lexically
func labelLess(a, b string) bool {
	if a == LabelRef || b == LabelRef {
		return a == LabelRef && b != LabelRef
	}
	return a < b
}

// sortLabels returns the sorted unique labels
func sortLabels(labels []string) []string {
	seen := map[string]bool{}
	sorted := []string{}
	for _, label := range labels {
		if !seen[label] {
			seen[label] = true
			sorted = append(sorted, label)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return labelLess(sorted[i], sorted[j])
	})
	return sorted
}

// hasLabel checks if an element is on the path with the given label
func hasLabel(labels []string, label string) bool {
	if len(labels) == 0 {
		return true
	}
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// intersectLabels returns labels present in both sets
func intersectLabels(a, b []string) []string {
	common := []string{}
	for _, label := range a {
		for _, other := range b {
			if label == other {
				common = append(common, label)
				break
			}
		}
	}
	return common
}

// NewGraph validates the nodes and edges, then derives paths and breakpoints
func NewGraph(id string, nodes []Node, edges []Edge) (*Graph, error) {
	if len(nodes) == 0 {
		return nil, graphError(id, "graph has no nodes")
	}
	r := &Graph{
		ID:        id,
		Nodes:     make([]Node, len(nodes)),
		Edges:     make([]Edge, len(edges)),
		nodeIndex: map[string]int{},
		edgeIndex: map[string]int{},
		outEdges:  make([][]int, len(nodes)),
		inEdges:   make([][]int, len(nodes)),
	}
	copy(r.Nodes, nodes)
	copy(r.Edges, edges)

	if err := r.indexNodes(); err != nil {
		return nil, err
	}
	if err := r.indexEdges(); err != nil {
		return nil, err
	}
	if err := r.makePaths(); err != nil {
		return nil, err
	}
	r.makeBreakpoints()
	log.Debugf("Graph `%s` has %d nodes, %d edges, %d paths and %d breakpoints",
		r.ID, len(r.Nodes), len(r.Edges), len(r.Paths), len(r.Breakpoints))
	return r, nil
}

// indexNodes checks the nodes and builds the name lookup
func (r *Graph) indexNodes() error {
	for i := range r.Nodes {
		node := &r.Nodes[i]
		if node.ID == "" {
			return graphError(fmt.Sprintf("node #%d", i), "node has no name")
		}
		if node.ID == TotalKey {
			return graphError(node.ID, "node name is reserved")
		}
		if _, ok := r.nodeIndex[node.ID]; ok {
			return graphError(node.ID, "duplicate node name")
		}
		if len(node.Sequence) == 0 {
			return graphError(node.ID, "node has no sequence")
		}
		if node.HasReference() && node.End-node.Start != len(node.Sequence) {
			return graphError(node.ID, "sequence length %d does not match reference span %d",
				len(node.Sequence), node.End-node.Start)
		}
		if err := checkLabels(node.ID, node.Labels); err != nil {
			return err
		}
		node.Labels = sortLabels(node.Labels)
		r.nodeIndex[node.ID] = i
	}
	return nil
}

// indexEdges checks the edges, fills in default names and inherited labels
func (r *Graph) indexEdges() error {
	pairs := map[[2]int]bool{}
	for i := range r.Edges {
		edge := &r.Edges[i]
		if edge.From < 0 || edge.From >= len(r.Nodes) || edge.To < 0 || edge.To >= len(r.Nodes) {
			return graphError(edge.ID, "edge references a node absent from the graph")
		}
		if edge.From == edge.To {
			return graphError(edge.ID, "edge joins a node to itself")
		}
		from, to := &r.Nodes[edge.From], &r.Nodes[edge.To]
		if edge.ID == "" {
			edge.ID = from.ID + "_" + to.ID
		}
		if edge.ID == TotalKey {
			return graphError(edge.ID, "edge name is reserved")
		}
		if _, ok := r.edgeIndex[edge.ID]; ok {
			return graphError(edge.ID, "duplicate edge name")
		}
		pair := [2]int{edge.From, edge.To}
		if pairs[pair] {
			return graphError(edge.ID, "duplicate edge between `%s` and `%s`", from.ID, to.ID)
		}
		pairs[pair] = true
		if err := checkLabels(edge.ID, edge.Labels); err != nil {
			return err
		}

		// Unlabelled edges inherit from their labelled ends
		if len(edge.Labels) == 0 {
			switch {
			case len(from.Labels) > 0 && len(to.Labels) > 0:
				edge.Labels = intersectLabels(from.Labels, to.Labels)
				if len(edge.Labels) == 0 {
					return graphError(edge.ID, "edge joins nodes on disjoint sequences")
				}
			case len(from.Labels) > 0:
				edge.Labels = from.Labels
			case len(to.Labels) > 0:
				edge.Labels = to.Labels
			}
		}
		edge.Labels = sortLabels(edge.Labels)
		r.edgeIndex[edge.ID] = i
		r.outEdges[edge.From] = append(r.outEdges[edge.From], i)
		r.inEdges[edge.To] = append(r.inEdges[edge.To], i)
	}
	return nil
}

// checkLabels rejects reserved sequence labels
func checkLabels(element string, labels []string) error {
	for _, label := range labels {
		if label == "" || label == TotalKey || label == LabelOther {
			return graphError(element, "invalid sequence label `%s`", label)
		}
	}
	return nil
}

// pathLabels collects all sequence labels in the graph
func (r *Graph) pathLabels() []string {
	labels := []string{}
	for _, node := range r.Nodes {
		labels = append(labels, node.Labels...)
	}
	for _, edge := range r.Edges {
		labels = append(labels, edge.Labels...)
	}
	return sortLabels(labels)
}

// makePaths resolves each sequence label to a connected chain of nodes
func (r *Graph) makePaths() error {
	labels := r.pathLabels()
	if len(labels) == 0 {
		return graphError(r.ID, "graph has no labelled sequences")
	}
	for _, label := range labels {
		path, err := r.resolvePath(label)
		if err != nil {
			return err
		}
		r.Paths = append(r.Paths, path)
	}
	return nil
}

// resolvePath walks the nodes and edges on one sequence from its single start
// to its single end
func (r *Graph) resolvePath(label string) (Path, error) {
	path := Path{Label: label}
	onPath := make([]bool, len(r.Nodes))
	nNodes := 0
	for i := range r.Nodes {
		if hasLabel(r.Nodes[i].Labels, label) {
			onPath[i] = true
			nNodes++
		}
	}

	next := make([]int, len(r.Nodes))
	via := make([]int, len(r.Nodes))
	indegree := make([]int, len(r.Nodes))
	for i := range next {
		next[i] = -1
	}
	for i, edge := range r.Edges {
		if !hasLabel(edge.Labels, label) {
			continue
		}
		if !onPath[edge.From] || !onPath[edge.To] {
			return path, graphError(edge.ID, "edge on `%s` joins a node that is not on `%s`", label, label)
		}
		if next[edge.From] != -1 {
			return path, graphError(r.Nodes[edge.From].ID, "`%s` branches after this node", label)
		}
		next[edge.From] = edge.To
		via[edge.From] = i
		indegree[edge.To]++
		if indegree[edge.To] > 1 {
			return path, graphError(r.Nodes[edge.To].ID, "`%s` merges into this node", label)
		}
	}

	start := -1
	for i := range r.Nodes {
		if onPath[i] && indegree[i] == 0 {
			if start != -1 {
				return path, graphError(label, "path has more than one start (`%s`, `%s`)",
					r.Nodes[start].ID, r.Nodes[i].ID)
			}
			start = i
		}
	}
	if start == -1 {
		return path, graphError(label, "path has no start node")
	}

	for node := start; node != -1; node = next[node] {
		path.Offsets = append(path.Offsets, len(path.Sequence))
		path.Nodes = append(path.Nodes, node)
		path.Sequence = append(path.Sequence, r.Nodes[node].Sequence...)
		if next[node] != -1 {
			path.Edges = append(path.Edges, via[node])
		}
		if len(path.Nodes) > nNodes {
			return path, graphError(label, "path contains a cycle")
		}
	}
	if len(path.Nodes) != nNodes {
		return path, graphError(label, "path is not connected (%d of %d nodes reachable)",
			len(path.Nodes), nNodes)
	}
	return path, nil
}

// makeBreakpoints finds the nodes where paths split or join
func (r *Graph) makeBreakpoints() {
	for i := range r.Nodes {
		if bp, ok := r.makeBreakpoint(i, r.outEdges[i], "_out"); ok {
			r.Breakpoints = append(r.Breakpoints, bp)
		}
		if bp, ok := r.makeBreakpoint(i, r.inEdges[i], "_in"); ok {
			r.Breakpoints = append(r.Breakpoints, bp)
		}
	}
}

// makeBreakpoint builds a breakpoint from a fan of edges if at least two
// alleles compete there
func (r *Graph) makeBreakpoint(node int, edges []int, suffix string) (Breakpoint, bool) {
	bp := Breakpoint{ID: r.Nodes[node].ID + suffix, Node: node}
	if len(edges) < 2 {
		return bp, false
	}
	alleles := []string{}
	for _, e := range edges {
		if label := r.Edges[e].Label(); label != LabelOther {
			alleles = append(alleles, label)
		}
	}
	bp.Alleles = sortLabels(alleles)
	if len(bp.Alleles) < 2 {
		return bp, false
	}
	bp.Edges = append([]int{}, edges...)
	sort.Ints(bp.Edges)
	return bp, true
}

// NodeIndex returns the index of the named node
func (r *Graph) NodeIndex(id string) (int, bool) {
	i, ok := r.nodeIndex[id]
	return i, ok
}

// EdgeIndex returns the index of the named edge
func (r *Graph) EdgeIndex(id string) (int, bool) {
	i, ok := r.edgeIndex[id]
	return i, ok
}

// blockOffsets lifts an aligned block onto the path through each path node
// it overlaps, giving where the block starts on the path. A block may lift
// more than once when it spans a junction or the path repeats reference
// sequence.
func (r *Path) blockOffsets(g *Graph, chrom string, b block) []int {
	var offsets []int
	for i, n := range r.Nodes {
		node := &g.Nodes[n]
		if !node.HasReference() || node.Chrom != chrom || b.ref >= node.End || b.ref+b.len <= node.Start {
			continue
		}
		offset := r.Offsets[i] + b.ref - node.Start
		if !containsInt(offsets, offset) {
			offsets = append(offsets, offset)
		}
	}
	return offsets
}

// TargetRegions returns the reference intervals covered by the graph, padded
// on both sides and merged per chromosome
func (r *Graph) TargetRegions(padding int) []Region {
	byChrom := map[string]*Region{}
	chroms := []string{}
	for _, node := range r.Nodes {
		if !node.HasReference() {
			continue
		}
		start := max(0, node.Start-padding)
		end := node.End + padding
		region, ok := byChrom[node.Chrom]
		if !ok {
			byChrom[node.Chrom] = &Region{Chrom: node.Chrom, Start: start, End: end}
			chroms = append(chroms, node.Chrom)
			continue
		}
		region.Start = min(region.Start, start)
		region.End = max(region.End, end)
	}
	sort.Strings(chroms)
	regions := make([]Region, len(chroms))
	for i, chrom := range chroms {
		regions[i] = *byChrom[chrom]
	}
	return regions
}
