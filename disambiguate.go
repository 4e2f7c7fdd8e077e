/*
 * Filename: /Users/htang/code/svgeno/disambiguate.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Saturday, March 7th 2020, 10:31:52 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"fmt"
	"sort"

	"github.com/exascience/pargo/parallel"
)

// Weighting is the policy for splitting an ambiguous read
type Weighting int

const (
	// EqualWeighting splits the read evenly over the best placements
	EqualWeighting Weighting = iota
	// QualityWeighting also keeps near-best placements, weighted by matched bases
	QualityWeighting
)

// String returns the flag value of the policy
func (w Weighting) String() string {
	if w == QualityWeighting {
		return "quality"
	}
	return "equal"
}

// ParseWeighting converts a flag value to a Weighting
func ParseWeighting(s string) (Weighting, error) {
	switch s {
	case "", "equal":
		return EqualWeighting, nil
	case "quality":
		return QualityWeighting, nil
	}
	return EqualWeighting, fmt.Errorf("unknown weighting `%s` (want equal or quality)", s)
}

// SkipReason tells why a read was left out of the counts
type SkipReason int

const (
	// NotSkipped marks an assigned read
	NotSkipped SkipReason = iota
	// SkipOtherChrom is a read on a chromosome the graph does not touch
	SkipOtherChrom
	// SkipNoOverlap is a read that does not land on any node
	SkipNoOverlap
	// SkipMismatches is a read that matches no path well enough
	SkipMismatches
)

var skipReasons = [...]string{"", "other_chromosome", "no_overlap", "too_many_mismatches"}

// String gives the diagnostics key of the reason
func (s SkipReason) String() string {
	return skipReasons[s]
}

// DisambiguationOptions controls read placement
type DisambiguationOptions struct {
	MinAnchor           int
	MinOverlap          int
	MaxMismatchFraction float64
	Weighting           Weighting
	QualitySlack        int
	Workers             int // 0 picks a default
}

// DefaultDisambiguationOptions returns the options used by the CLI
func DefaultDisambiguationOptions() DisambiguationOptions {
	return DisambiguationOptions{
		MinAnchor:           MinAnchor,
		MinOverlap:          MinOverlap,
		MaxMismatchFraction: MaxMismatchFraction,
		Weighting:           EqualWeighting,
		QualitySlack:        QualitySlack,
	}
}

// Placement is one allele hypothesis for a read
type Placement struct {
	Label      string   // producing path, or LabelOther if several produced it
	Paths      []string // labels of the paths that produced it
	Nodes      []int
	Edges      []int
	Offset     int // start on the first producing path
	Mismatches int
	Weight     int64 // in units of WeightNorm
	quality    float64
}

// Hit is a weighted vote for one graph element
type Hit struct {
	Element int
	Weight  int64 // in units of WeightNorm
}

// Assignment is the outcome for one read
type Assignment struct {
	Read       int // index into the read buffer
	Name       string
	Strand     Strand
	Placements []Placement
	EdgeHits   []Hit // sums to WeightNorm if not empty
	NodeHits   []Hit // sums to WeightNorm if not empty
	Skip       SkipReason
}

// Diagnostics counts what happened to the reads
type Diagnostics struct {
	Reads    int            `json:"reads"`
	Assigned int            `json:"assigned"`
	Skipped  map[string]int `json:"skipped"`
}

// Disambiguator places reads on the paths of a graph
type Disambiguator struct {
	Graph   *Graph
	Options DisambiguationOptions
	chroms  map[string]bool
}

// NewDisambiguator prepares a Disambiguator
func NewDisambiguator(g *Graph, opts DisambiguationOptions) *Disambiguator {
	r := &Disambiguator{Graph: g, Options: opts, chroms: map[string]bool{}}
	for _, node := range g.Nodes {
		if node.HasReference() {
			r.chroms[node.Chrom] = true
		}
	}
	return r
}

// Disambiguate assigns every read to the graph elements it supports. Skipped
// reads are left out of the assignments and counted in the diagnostics.
func Disambiguate(g *Graph, reads []Read, opts DisambiguationOptions) ([]Assignment, Diagnostics) {
	return NewDisambiguator(g, opts).Run(reads)
}

// Run places all reads, in parallel over the read buffer
func (r *Disambiguator) Run(reads []Read) ([]Assignment, Diagnostics) {
	results := make([]Assignment, len(reads))
	if len(reads) > 0 {
		parallel.Range(0, len(reads), r.Options.Workers, func(low, high int) {
			for i := low; i < high; i++ {
				results[i] = r.Assign(&reads[i])
				results[i].Read = i
			}
		})
	}

	diag := Diagnostics{Reads: len(reads), Skipped: map[string]int{}}
	assignments := make([]Assignment, 0, len(reads))
	for _, a := range results {
		if a.Skip != NotSkipped {
			diag.Skipped[a.Skip.String()]++
			continue
		}
		assignments = append(assignments, a)
	}
	diag.Assigned = len(assignments)
	log.Noticef("Assigned %s reads to graph `%s`",
		Percentage(diag.Assigned, diag.Reads), r.Graph.ID)
	for reason, n := range diag.Skipped {
		log.Debugf("Skipped %d reads (%s)", n, reason)
	}
	return assignments, diag
}

// Assign places one read
func (r *Disambiguator) Assign(read *Read) Assignment {
	a := Assignment{Name: read.Name, Strand: read.Strand}
	if !r.chroms[read.Chrom] {
		a.Skip = SkipOtherChrom
		return a
	}
	if len(read.Sequence) == 0 {
		a.Skip = SkipNoOverlap
		return a
	}

	// Best alignment on each path
	g := r.Graph
	aligns := make([]alignment, len(g.Paths))
	placed := make([]bool, len(g.Paths))
	anchored := false
	best := -1
	for i := range g.Paths {
		aligns[i], placed[i] = r.align(&g.Paths[i], read)
		if !placed[i] {
			continue
		}
		anchored = true
		if float64(aligns[i].mismatches) > r.Options.MaxMismatchFraction*float64(aligns[i].onPath) {
			placed[i] = false
			continue
		}
		if best < 0 || aligns[i].mismatches < best {
			best = aligns[i].mismatches
		}
	}
	if !anchored {
		a.Skip = SkipNoOverlap
		return a
	}
	if best < 0 {
		a.Skip = SkipMismatches
		return a
	}

	slack := 0
	if r.Options.Weighting == QualityWeighting {
		slack = r.Options.QualitySlack
	}
	for i := range g.Paths {
		if !placed[i] || aligns[i].mismatches > best+slack {
			continue
		}
		a.Placements = mergePlacement(a.Placements, r.place(&g.Paths[i], &aligns[i]))
	}
	r.weigh(&a)
	return a
}

// alignment lays a read along a path. Read bases that fall off the path are
// left out like soft clips.
type alignment struct {
	start, end int // path interval under the on-path bases
	mismatches int
	onPath     int
}

// compare scores one read base against path offset j
func (r *alignment) compare(path []byte, j int, base byte) {
	if j < 0 || j >= len(path) {
		return
	}
	if r.onPath == 0 || j < r.start {
		r.start = j
	}
	if r.onPath == 0 || j >= r.end {
		r.end = j + 1
	}
	r.onPath++
	if base != path[j] || base == 'N' {
		r.mismatches++
	}
}

// better ranks by mismatches, then bases on the path, then start
func (r *alignment) better(o *alignment) bool {
	if r.mismatches != o.mismatches {
		return r.mismatches < o.mismatches
	}
	if r.onPath != o.onPath {
		return r.onPath > o.onPath
	}
	return r.start < o.start
}

// align anchors every aligned block of the read on the path. From each
// anchor the read is scored both ungapped and along its CIGAR. Returns false
// if no alignment puts MinOverlap bases on the path.
func (r *Disambiguator) align(path *Path, read *Read) (alignment, bool) {
	var best alignment
	found := false
	blocks := read.blocks()
	tried := map[int]bool{}
	for _, b := range blocks {
		for _, offset := range path.blockOffsets(r.Graph, read.Chrom, b) {
			start := offset - b.query
			if tried[start] {
				continue
			}
			tried[start] = true
			for _, al := range []alignment{
				ungapped(path.Sequence, read.Sequence, start),
				r.walk(path, read, blocks, start),
			} {
				if al.onPath == 0 || al.onPath < r.Options.MinOverlap {
					continue
				}
				if !found || al.better(&best) {
					best, found = al, true
				}
			}
		}
	}
	return best, found
}

// ungapped compares the whole read against the path from start
func ungapped(path, seq []byte, start int) alignment {
	var al alignment
	for i, base := range seq {
		al.compare(path, start+i, base)
	}
	return al
}

// walk follows the aligned blocks along the path, starting the read at
// start. Each block is lifted to the copy nearest where the read has got to,
// and the distance jumped counts as that many mismatches. Bases between
// blocks are compared in place.
func (r *Disambiguator) walk(path *Path, read *Read, blocks []block, start int) alignment {
	var al alignment
	cursor, query := start, 0
	for _, b := range blocks {
		for ; query < b.query && query < len(read.Sequence); query++ {
			al.compare(path.Sequence, cursor, read.Sequence[query])
			cursor++
		}
		if offsets := path.blockOffsets(r.Graph, read.Chrom, b); len(offsets) > 0 {
			lifted := offsets[0]
			for _, offset := range offsets[1:] {
				if abs(offset-cursor) < abs(lifted-cursor) {
					lifted = offset
				}
			}
			al.mismatches += abs(lifted - cursor)
			cursor = lifted
		}
		for i := 0; i < b.len && query < len(read.Sequence); i++ {
			al.compare(path.Sequence, cursor, read.Sequence[query])
			cursor++
			query++
		}
	}
	for ; query < len(read.Sequence); query++ {
		al.compare(path.Sequence, cursor, read.Sequence[query])
		cursor++
	}
	return al
}

// place lists the nodes the read overlaps and the junctions it anchors across
func (r *Disambiguator) place(path *Path, al *alignment) Placement {
	p := Placement{
		Label:      path.Label,
		Paths:      []string{path.Label},
		Offset:     al.start,
		Mismatches: al.mismatches,
		quality:    float64(al.onPath - al.mismatches),
	}
	for i, n := range path.Nodes {
		nodeStart := path.Offsets[i]
		nodeEnd := nodeStart + r.Graph.Nodes[n].Len()
		if al.start < nodeEnd && al.end > nodeStart {
			p.Nodes = append(p.Nodes, n)
		}
	}
	for i, e := range path.Edges {
		junction := path.Offsets[i+1]
		if junction-al.start >= r.Options.MinAnchor && al.end-junction >= r.Options.MinAnchor {
			p.Edges = append(p.Edges, e)
		}
	}
	sort.Ints(p.Nodes)
	sort.Ints(p.Edges)
	return p
}

// mergePlacement adds p to the list, folding it into a placement with the
// same elements if there is one
func mergePlacement(placements []Placement, p Placement) []Placement {
	for i := range placements {
		q := &placements[i]
		if equalInts(q.Nodes, p.Nodes) && equalInts(q.Edges, p.Edges) {
			q.Paths = append(q.Paths, p.Paths...)
			q.Label = LabelOther
			if p.Mismatches < q.Mismatches {
				q.Mismatches = p.Mismatches
			}
			if p.quality > q.quality {
				q.quality = p.quality
			}
			return placements
		}
	}
	return append(placements, p)
}

// weigh splits the read over its placements, then over edges and nodes
func (r *Disambiguator) weigh(a *Assignment) {
	weights := make([]float64, len(a.Placements))
	for i, p := range a.Placements {
		weights[i] = 1
		if r.Options.Weighting == QualityWeighting {
			weights[i] = p.quality
		}
	}
	units := quantize(weights)
	for i := range a.Placements {
		a.Placements[i].Weight = units[i]
	}
	a.EdgeHits = spreadHits(a.Placements, func(p *Placement) []int { return p.Edges })
	a.NodeHits = spreadHits(a.Placements, func(p *Placement) []int { return p.Nodes })
}

// spreadHits shares each placement's weight evenly over its elements, and
// scales the result so the hits sum to WeightNorm
func spreadHits(placements []Placement, elements func(*Placement) []int) []Hit {
	share := map[int]float64{}
	for i := range placements {
		p := &placements[i]
		elems := elements(p)
		for _, e := range elems {
			share[e] += unitsToFloat(p.Weight) / float64(len(elems))
		}
	}
	if len(share) == 0 {
		return nil
	}
	ids := make([]int, 0, len(share))
	for e := range share {
		ids = append(ids, e)
	}
	sort.Ints(ids)
	weights := make([]float64, len(ids))
	for i, e := range ids {
		weights[i] = share[e]
	}
	units := quantize(weights)
	hits := make([]Hit, len(ids))
	for i, e := range ids {
		hits[i] = Hit{Element: e, Weight: units[i]}
	}
	return hits
}

// equalInts compares two sorted int slices
func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
