/*
 * Filename: /Users/htang/code/svgeno/genotype.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Monday, March 9th 2020, 2:05:13 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"fmt"
	"math"
	"strings"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/floats"
)

// GenotypeCall is the genotype of one breakpoint, or of the whole variant
type GenotypeCall struct {
	ID             string      `json:"id,omitempty"`
	GT             string      `json:"gt"`
	Alleles        []string    `json:"alleles,omitempty"`
	Quality        float64     `json:"gq"`
	NoCall         bool        `json:"no_call"`
	Depth          int         `json:"depth"`
	Genotypes      []string    `json:"genotypes,omitempty"`
	LogLikelihoods []float64   `json:"log_likelihoods,omitempty"`
	Posteriors     []float64   `json:"posteriors,omitempty"`
	Counts         CountsTable `json:"counts"`
}

// noCall makes the call for a site without enough evidence
func noCall(id string, ploidy int) GenotypeCall {
	dots := make([]string, max(ploidy, 1))
	for i := range dots {
		dots[i] = "."
	}
	return GenotypeCall{ID: id, GT: strings.Join(dots, "/"), NoCall: true, Counts: CountsTable{}}
}

// GenotypeBreakpoint calls the genotype of one breakpoint from the support
// of its alleles
func GenotypeBreakpoint(alleles []string, counts CountsTable, params ParameterSet) GenotypeCall {
	model := NewLikelihoodModel(alleles, params)
	observed := roundCounts(alleles, counts)
	depth := 0
	for _, c := range observed {
		depth += c
	}

	call := noCall("", params.Ploidy)
	call.Depth = depth
	call.Counts = counts
	if depth < params.MinDepth {
		return call
	}

	lls := make([]float64, len(model.Genotypes))
	names := make([]string, len(model.Genotypes))
	best := 0
	for i, gt := range model.Genotypes {
		lls[i] = model.LogLikelihood(i, observed)
		names[i] = gt.Format(alleles)
		if lls[i] > lls[best] {
			best = i
		}
	}
	second := math.Inf(-1)
	for i, ll := range lls {
		if i != best && ll > second {
			second = ll
		}
	}

	call.NoCall = false
	call.GT = names[best]
	call.Alleles = strings.Split(names[best], "/")
	call.Genotypes = names
	call.LogLikelihoods = lls
	call.Quality = genotypeQuality(lls[best], second)

	lse := floats.LogSumExp(lls)
	call.Posteriors = make([]float64, len(lls))
	for i, ll := range lls {
		call.Posteriors[i] = math.Exp(ll - lse)
	}
	return call
}

// genotypeQuality is the phred-scaled likelihood ratio of the two best
// genotypes, capped at MaxQuality
func genotypeQuality(best, second float64) float64 {
	if !(best > second) {
		return 0
	}
	return math.Min(10*(best-second)/math.Ln10, MaxQuality)
}

// VariantCall is the outcome of genotyping one graph
type VariantCall struct {
	Breakpoints []GenotypeCall `json:"breakpoints,omitempty"`
	Genotype    GenotypeCall   `json:"genotype"`
}

// Genotyper turns the counts of one graph into a genotype
type Genotyper interface {
	Genotype(g *Graph, counts *ReadCounts, params ParameterSet) VariantCall
}

// NewGenotyper picks the genotyper for the model name
func NewGenotyper(model string, workers int) (Genotyper, error) {
	switch model {
	case "", "breakpoint":
		return &BreakpointGenotyper{Workers: workers}, nil
	case "sequence":
		return &SequenceGenotyper{}, nil
	}
	return nil, fmt.Errorf("unknown genotype model `%s` (want breakpoint or sequence)", model)
}

// BreakpointGenotyper calls every breakpoint on its own and then votes
type BreakpointGenotyper struct {
	Workers int
}

// Genotype calls the breakpoints in parallel
func (r *BreakpointGenotyper) Genotype(g *Graph, counts *ReadCounts, params ParameterSet) VariantCall {
	calls := make([]GenotypeCall, len(g.Breakpoints))
	if len(calls) > 0 {
		parallel.Range(0, len(calls), r.Workers, func(low, high int) {
			for i := low; i < high; i++ {
				bp := &g.Breakpoints[i]
				table, ok := counts.ByBreakpoint[bp.ID]
				if !ok {
					table = CountsTable{}
				}
				calls[i] = GenotypeBreakpoint(bp.Alleles, table, params)
				calls[i].ID = bp.ID
			}
		})
	}
	for _, call := range calls {
		log.Debugf("Breakpoint `%s`: %s (GQ=%.1f, DP=%d)", call.ID, call.GT, call.Quality, call.Depth)
	}

	consensus := Vote(calls)
	if len(calls) == 0 {
		consensus = noCall("", params.Ploidy)
	}
	consensus.ID = g.ID
	return VariantCall{Breakpoints: calls, Genotype: consensus}
}

// SequenceGenotyper calls the variant from the reads on each whole path
type SequenceGenotyper struct{}

// Genotype uses read_counts_by_sequence as the allele support
func (r *SequenceGenotyper) Genotype(g *Graph, counts *ReadCounts, params ParameterSet) VariantCall {
	alleles := make([]string, len(g.Paths))
	table := CountsTable{}
	for i, path := range g.Paths {
		alleles[i] = path.Label
		if c, ok := counts.BySequence[path.Label]; ok {
			table[path.Label] = c
		}
	}
	call := GenotypeBreakpoint(alleles, table, params)
	call.ID = g.ID
	return VariantCall{Genotype: call}
}
