/*
 * Filename: /Users/htang/code/svgeno/counts.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Saturday, March 7th 2020, 3:48:20 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"github.com/exascience/pargo/parallel"
)

// Counts is the read support of one graph element or allele
type Counts struct {
	Total float64 `json:"total"`
	FWD   float64 `json:"total:FWD"`
	REV   float64 `json:"total:REV"`
	Reads int     `json:"total:READS"`
}

// CountsTable maps element ids or allele labels to their support. A missing
// key means zero support.
type CountsTable map[string]Counts

// Get returns the counts for key, zero if absent
func (r CountsTable) Get(key string) Counts {
	return r[key]
}

// ReadCounts holds all the tables for one sample and one graph
type ReadCounts struct {
	ByEdge       CountsTable            `json:"read_counts_by_edge"`
	ByNode       CountsTable            `json:"read_counts_by_node"`
	BySequence   CountsTable            `json:"read_counts_by_sequence"`
	ByBreakpoint map[string]CountsTable `json:"read_counts_by_breakpoint"`
}

// tally accumulates fixed-point weights so that sums do not depend on order
type tally struct {
	total int64
	fwd   int64
	rev   int64
	reads int
}

func (r *tally) add(weight int64, strand Strand) {
	r.total += weight
	if strand == REV {
		r.rev += weight
	} else {
		r.fwd += weight
	}
	r.reads++
}

func (r *tally) merge(o *tally) {
	r.total += o.total
	r.fwd += o.fwd
	r.rev += o.rev
	r.reads += o.reads
}

func (r *tally) counts() Counts {
	return Counts{
		Total: unitsToFloat(r.total),
		FWD:   unitsToFloat(r.fwd),
		REV:   unitsToFloat(r.rev),
		Reads: r.reads,
	}
}

// Aggregator builds the counts tables from assignments. Partial aggregators
// over disjoint sets of reads can be merged in any order.
type Aggregator struct {
	graph       *Graph
	edges       []tally
	nodes       []tally
	edgeTotal   tally
	nodeTotal   tally
	sequences   map[string]*tally
	breakpoints [][]tally // by breakpoint, then allele
}

// NewAggregator makes an empty Aggregator for the graph
func NewAggregator(g *Graph) *Aggregator {
	r := &Aggregator{
		graph:       g,
		edges:       make([]tally, len(g.Edges)),
		nodes:       make([]tally, len(g.Nodes)),
		sequences:   map[string]*tally{},
		breakpoints: make([][]tally, len(g.Breakpoints)),
	}
	for i, bp := range g.Breakpoints {
		r.breakpoints[i] = make([]tally, len(bp.Alleles))
	}
	return r
}

// Add counts one assigned read
func (r *Aggregator) Add(a *Assignment) {
	for _, hit := range a.EdgeHits {
		r.edges[hit.Element].add(hit.Weight, a.Strand)
	}
	if len(a.EdgeHits) > 0 {
		r.edgeTotal.add(WeightNorm, a.Strand)
	}
	for _, hit := range a.NodeHits {
		r.nodes[hit.Element].add(hit.Weight, a.Strand)
	}
	if len(a.NodeHits) > 0 {
		r.nodeTotal.add(WeightNorm, a.Strand)
	}

	bySequence := map[string]int64{}
	labels := []string{}
	for _, p := range a.Placements {
		if _, ok := bySequence[p.Label]; !ok {
			labels = append(labels, p.Label)
		}
		bySequence[p.Label] += p.Weight
	}
	for _, label := range labels {
		t, ok := r.sequences[label]
		if !ok {
			t = &tally{}
			r.sequences[label] = t
		}
		t.add(bySequence[label], a.Strand)
	}

	for i := range r.graph.Breakpoints {
		bp := &r.graph.Breakpoints[i]
		for k, allele := range bp.Alleles {
			if weight := r.alleleWeight(bp, allele, a.Placements); weight > 0 {
				r.breakpoints[i][k].add(weight, a.Strand)
			}
		}
	}
}

// alleleWeight sums the placements that cross the breakpoint on the allele
func (r *Aggregator) alleleWeight(bp *Breakpoint, allele string, placements []Placement) int64 {
	weight := int64(0)
	for _, p := range placements {
		for _, e := range p.Edges {
			if r.graph.Edges[e].Label() == allele && containsInt(bp.Edges, e) {
				weight += p.Weight
				break
			}
		}
	}
	return weight
}

// Merge folds o into r and returns r
func (r *Aggregator) Merge(o *Aggregator) *Aggregator {
	for i := range r.edges {
		r.edges[i].merge(&o.edges[i])
	}
	for i := range r.nodes {
		r.nodes[i].merge(&o.nodes[i])
	}
	r.edgeTotal.merge(&o.edgeTotal)
	r.nodeTotal.merge(&o.nodeTotal)
	for label, t := range o.sequences {
		if mine, ok := r.sequences[label]; ok {
			mine.merge(t)
		} else {
			r.sequences[label] = t
		}
	}
	for i := range r.breakpoints {
		for k := range r.breakpoints[i] {
			r.breakpoints[i][k].merge(&o.breakpoints[i][k])
		}
	}
	return r
}

// ReadCounts converts the tallies into tables, leaving out keys without
// support
func (r *Aggregator) ReadCounts() *ReadCounts {
	rc := &ReadCounts{
		ByEdge:       CountsTable{},
		ByNode:       CountsTable{},
		BySequence:   CountsTable{},
		ByBreakpoint: map[string]CountsTable{},
	}
	for i := range r.edges {
		if r.edges[i].total > 0 {
			rc.ByEdge[r.graph.Edges[i].ID] = r.edges[i].counts()
		}
	}
	if r.edgeTotal.total > 0 {
		rc.ByEdge[TotalKey] = r.edgeTotal.counts()
	}
	for i := range r.nodes {
		if r.nodes[i].total > 0 {
			rc.ByNode[r.graph.Nodes[i].ID] = r.nodes[i].counts()
		}
	}
	if r.nodeTotal.total > 0 {
		rc.ByNode[TotalKey] = r.nodeTotal.counts()
	}
	for label, t := range r.sequences {
		if t.total > 0 {
			rc.BySequence[label] = t.counts()
		}
	}
	for i, bp := range r.graph.Breakpoints {
		table := CountsTable{}
		for k, allele := range bp.Alleles {
			if r.breakpoints[i][k].total > 0 {
				table[allele] = r.breakpoints[i][k].counts()
			}
		}
		rc.ByBreakpoint[bp.ID] = table
	}
	return rc
}

// Aggregate reduces the assignments into counts tables, with one partial
// Aggregator per batch of reads
func Aggregate(g *Graph, assignments []Assignment, workers int) *ReadCounts {
	if len(assignments) == 0 {
		return NewAggregator(g).ReadCounts()
	}
	agg := parallel.RangeReduce(0, len(assignments), workers, func(low, high int) interface{} {
		partial := NewAggregator(g)
		for i := low; i < high; i++ {
			partial.Add(&assignments[i])
		}
		return partial
	}, func(x, y interface{}) interface{} {
		return x.(*Aggregator).Merge(y.(*Aggregator))
	}).(*Aggregator)
	rc := agg.ReadCounts()
	log.Noticef("Counted %d reads (%d across junctions) on `%s`",
		agg.nodeTotal.reads, agg.edgeTotal.reads, g.ID)
	return rc
}

// containsInt checks if x is in a
func containsInt(a []int, x int) bool {
	for _, y := range a {
		if y == x {
			return true
		}
	}
	return false
}
