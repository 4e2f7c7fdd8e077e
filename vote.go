/*
 * Filename: /Users/htang/code/svgeno/vote.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Monday, March 9th 2020, 5:31:02 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"math"
	"strings"
)

// ballot gathers the breakpoints that called the same genotype
type ballot struct {
	gt      string
	alleles []string
	calls   []int
	maxQ    float64
	minQ    float64
}

// Vote combines the breakpoint calls into one call for the variant. No-calls
// do not vote. The genotype with most votes wins, then the one with the best
// single quality, then the REF-heaviest one. The quality of the variant is
// the lowest quality among the winning breakpoints.
func Vote(calls []GenotypeCall) GenotypeCall {
	var ballots []*ballot
	byGT := map[string]*ballot{}
	for i, call := range calls {
		if call.NoCall {
			continue
		}
		b, ok := byGT[call.GT]
		if !ok {
			b = &ballot{gt: call.GT, alleles: call.Alleles, maxQ: math.Inf(-1), minQ: math.Inf(1)}
			byGT[call.GT] = b
			ballots = append(ballots, b)
		}
		b.calls = append(b.calls, i)
		b.maxQ = math.Max(b.maxQ, call.Quality)
		b.minQ = math.Min(b.minQ, call.Quality)
	}

	if len(ballots) == 0 {
		ploidy := 1
		if len(calls) > 0 {
			ploidy = strings.Count(calls[0].GT, "/") + 1
		}
		return noCall("", ploidy)
	}

	winner := ballots[0]
	for _, b := range ballots[1:] {
		switch {
		case len(b.calls) != len(winner.calls):
			if len(b.calls) > len(winner.calls) {
				winner = b
			}
		case b.maxQ != winner.maxQ:
			if b.maxQ > winner.maxQ {
				winner = b
			}
		case allelesLess(b.alleles, winner.alleles):
			winner = b
		}
	}

	consensus := GenotypeCall{
		GT:      winner.gt,
		Alleles: winner.alleles,
		Quality: winner.minQ,
		Counts:  CountsTable{},
	}
	for _, i := range winner.calls {
		consensus.Depth += calls[i].Depth
		for key, c := range calls[i].Counts {
			sum := consensus.Counts[key]
			sum.Total += c.Total
			sum.FWD += c.FWD
			sum.REV += c.REV
			sum.Reads += c.Reads
			consensus.Counts[key] = sum
		}
	}
	log.Noticef("Voted %s from %d of %d breakpoints (GQ=%.1f)",
		winner.gt, len(winner.calls), len(calls), winner.minQ)
	return consensus
}

// allelesLess orders genotypes REF-heaviest first
func allelesLess(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return labelLess(a[i], b[i])
		}
	}
	return len(a) < len(b)
}
