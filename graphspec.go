/*
 * Filename: /Users/htang/code/svgeno/graphspec.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Thursday, March 5th 2020, 4:25:40 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shenwei356/bio/seqio/fai"
	"github.com/shenwei356/xopen"
)

// Region is a 0-based, half-open reference interval
type Region struct {
	Chrom string
	Start int
	End   int
}

// String prints the region 1-based and inclusive, as samtools does
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start+1, r.End)
}

// ParseRegion parses chr:start-end (1-based, inclusive)
func ParseRegion(s string) (Region, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return Region{}, fmt.Errorf("malformed region `%s`", s)
	}
	chrom, span := s[:i], strings.ReplaceAll(s[i+1:], ",", "")
	words := strings.Split(span, "-")
	if len(words) != 2 {
		return Region{}, fmt.Errorf("malformed region `%s`", s)
	}
	start, err := strconv.Atoi(words[0])
	if err != nil {
		return Region{}, fmt.Errorf("malformed region start in `%s`: %w", s, err)
	}
	end, err := strconv.Atoi(words[1])
	if err != nil {
		return Region{}, fmt.Errorf("malformed region end in `%s`: %w", s, err)
	}
	if start < 1 || end < start {
		return Region{}, fmt.Errorf("empty or negative region `%s`", s)
	}
	return Region{Chrom: chrom, Start: start - 1, End: end}, nil
}

// GraphSpec is the JSON description of a variant graph
type GraphSpec struct {
	ID    string     `json:"ID"`
	Nodes []NodeSpec `json:"nodes"`
	Edges []EdgeSpec `json:"edges"`
}

// NodeSpec describes one node. Either Sequence or Reference must be given.
type NodeSpec struct {
	Name      string   `json:"name"`
	Sequence  string   `json:"sequence,omitempty"`
	Reference string   `json:"reference,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

// EdgeSpec describes one edge between two named nodes
type EdgeSpec struct {
	Name   string   `json:"name,omitempty"`
	From   string   `json:"from"`
	To     string   `json:"to"`
	Labels []string `json:"labels,omitempty"`
}

// GraphLoader reads the graph spec and fills in the sequences from the
// reference
type GraphLoader struct {
	Graphfile string
	Reffile   string
	faidx     *fai.Faidx
}

// LoadGraph is a shortcut for GraphLoader.Run
func LoadGraph(graphfile, reffile string) (*Graph, error) {
	r := &GraphLoader{Graphfile: graphfile, Reffile: reffile}
	return r.Run()
}

// Run parses the graph spec and builds the graph
func (r *GraphLoader) Run() (*Graph, error) {
	log.Noticef("Parse graph `%s`", r.Graphfile)
	fh, err := xopen.Ropen(r.Graphfile)
	if err != nil {
		return nil, &GraphLoadError{Path: r.Graphfile, Err: err}
	}
	defer fh.Close()

	var spec GraphSpec
	dec := json.NewDecoder(fh)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, &GraphLoadError{Path: r.Graphfile, Err: err}
	}
	defer r.closeReference()
	return r.Build(&spec)
}

// Build converts the spec into a Graph
func (r *GraphLoader) Build(spec *GraphSpec) (*Graph, error) {
	id := spec.ID
	if id == "" {
		id = RemoveExt(r.Graphfile)
	}
	nodes := make([]Node, len(spec.Nodes))
	names := map[string]int{}
	for i, ns := range spec.Nodes {
		node, err := r.makeNode(ns)
		if err != nil {
			return nil, err
		}
		nodes[i] = node
		names[ns.Name] = i
	}

	edges := make([]Edge, len(spec.Edges))
	for i, es := range spec.Edges {
		from, ok := names[es.From]
		if !ok {
			return nil, graphError(es.From, "edge %s->%s references a node absent from the graph", es.From, es.To)
		}
		to, ok := names[es.To]
		if !ok {
			return nil, graphError(es.To, "edge %s->%s references a node absent from the graph", es.From, es.To)
		}
		edges[i] = Edge{ID: es.Name, From: from, To: to, Labels: es.Labels}
	}
	return NewGraph(id, nodes, edges)
}

// makeNode resolves the node sequence and its reference anchor
func (r *GraphLoader) makeNode(ns NodeSpec) (Node, error) {
	node := Node{
		ID:       ns.Name,
		Sequence: bytes.ToUpper([]byte(ns.Sequence)),
		Labels:   ns.Labels,
	}
	if ns.Reference == "" {
		return node, nil
	}
	region, err := ParseRegion(ns.Reference)
	if err != nil {
		return node, &GraphLoadError{Path: r.Graphfile, Err: fmt.Errorf("node `%s`: %w", ns.Name, err)}
	}
	if len(node.Sequence) == 0 {
		seq, err := r.fetch(region)
		if err != nil {
			return node, err
		}
		node.Sequence = seq
	}
	// A node that replaces reference sequence is not anchored to it
	if len(node.Sequence) != region.End-region.Start {
		log.Debugf("Node `%s` differs in length from %s, treat as inserted sequence", ns.Name, region)
		return node, nil
	}
	node.Chrom, node.Start, node.End = region.Chrom, region.Start, region.End
	return node, nil
}

// fetch extracts a region from the indexed reference
func (r *GraphLoader) fetch(region Region) ([]byte, error) {
	if r.faidx == nil {
		if r.Reffile == "" {
			return nil, &InsufficientReferenceError{Region: region.String(),
				Err: fmt.Errorf("no reference FASTA given")}
		}
		// Rebuild the .fai if it is outdated
		faifile := r.Reffile + ".fai"
		if !IsNewerFile(faifile, r.Reffile) {
			os.Remove(faifile)
		}
		faidx, err := fai.New(r.Reffile)
		if err != nil {
			return nil, &InsufficientReferenceError{Region: region.String(), Err: err}
		}
		r.faidx = faidx
		log.Noticef("Indexed reference `%s` (%d sequences)", r.Reffile, len(faidx.Index))
	}

	rec, ok := r.faidx.Index[region.Chrom]
	if !ok {
		return nil, &InsufficientReferenceError{Region: region.String(),
			Err: fmt.Errorf("`%s` not in reference", region.Chrom)}
	}
	if region.End > rec.Length {
		return nil, &InsufficientReferenceError{Region: region.String(),
			Err: fmt.Errorf("region extends past the end of `%s` (%d bp)", region.Chrom, rec.Length)}
	}
	seq, err := r.faidx.SubSeq(region.Chrom, region.Start+1, region.End)
	if err != nil {
		return nil, &InsufficientReferenceError{Region: region.String(), Err: err}
	}
	if len(seq) != region.End-region.Start {
		return nil, &InsufficientReferenceError{Region: region.String(),
			Err: fmt.Errorf("got %d bp", len(seq))}
	}
	return bytes.ToUpper(seq), nil
}

// closeReference releases the reference index
func (r *GraphLoader) closeReference() {
	if r.faidx != nil {
		r.faidx.Close()
		r.faidx = nil
	}
}
