/*
 *  genotype_test.go
 *  svgeno
 *
 *  Created by Haibao Tang on 03/12/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package svgeno_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/svgeno"
)

var refAlt = []string{"REF", "ALT"}

// support builds a breakpoint table with whole-read counts
func support(ref, alt float64) svgeno.CountsTable {
	table := svgeno.CountsTable{}
	if ref > 0 {
		table["REF"] = svgeno.Counts{Total: ref, FWD: ref, Reads: int(ref)}
	}
	if alt > 0 {
		table["ALT"] = svgeno.Counts{Total: alt, FWD: alt, Reads: int(alt)}
	}
	return table
}

func TestGenotypeBreakpointHomRef(t *testing.T) {
	call := svgeno.GenotypeBreakpoint(refAlt, support(12, 1), diploid())
	assert.False(t, call.NoCall)
	assert.Equal(t, "REF/REF", call.GT)
	assert.Equal(t, []string{"REF", "REF"}, call.Alleles)
	assert.Equal(t, 13, call.Depth)
	assert.Equal(t, []string{"REF/REF", "REF/ALT", "ALT/ALT"}, call.Genotypes)

	llRR := 12*math.Log(0.95) + math.Log(0.05)
	llRA := 13 * math.Log(0.5)
	assert.InDelta(t, llRR, call.LogLikelihoods[0], 1e-9)
	assert.InDelta(t, llRA, call.LogLikelihoods[1], 1e-9)
	assert.InDelta(t, 10*(llRR-llRA)/math.Ln10, call.Quality, 1e-9)
	assert.InDelta(t, 23.45, call.Quality, 0.01)

	sum := 0.0
	for _, p := range call.Posteriors {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-12)
	assert.Greater(t, call.Posteriors[0], 0.99)
}

func TestGenotypeBreakpointHet(t *testing.T) {
	call := svgeno.GenotypeBreakpoint(refAlt, support(15, 14), diploid())
	assert.Equal(t, "REF/ALT", call.GT)
	assert.Equal(t, 29, call.Depth)
	assert.Greater(t, call.Quality, 90.0)
	assert.LessOrEqual(t, call.Quality, svgeno.MaxQuality)

	call = svgeno.GenotypeBreakpoint(refAlt, support(0, 40), diploid())
	assert.Equal(t, "ALT/ALT", call.GT)
	assert.Equal(t, svgeno.MaxQuality, call.Quality, "capped")
}

func TestGenotypeBreakpointNoCall(t *testing.T) {
	call := svgeno.GenotypeBreakpoint(refAlt, support(1, 1), diploid())
	assert.True(t, call.NoCall)
	assert.Equal(t, "./.", call.GT)
	assert.Equal(t, 2, call.Depth)
	assert.Equal(t, 0.0, call.Quality)
	assert.Empty(t, call.Genotypes)

	haploid := diploid()
	haploid.Ploidy = 1
	call = svgeno.GenotypeBreakpoint(refAlt, svgeno.CountsTable{}, haploid)
	assert.True(t, call.NoCall)
	assert.Equal(t, ".", call.GT)
}

func TestGenotypeBreakpointRoundsCounts(t *testing.T) {
	// 2.6 rounds up to 3 reads, enough for a call
	call := svgeno.GenotypeBreakpoint(refAlt, svgeno.CountsTable{"REF": {Total: 2.6, Reads: 4}}, diploid())
	assert.False(t, call.NoCall)
	assert.Equal(t, 3, call.Depth)
	assert.Equal(t, 2.6, call.Counts["REF"].Total, "the table is reported as given")
}

func TestGenotypeBreakpointTie(t *testing.T) {
	haploid := diploid()
	haploid.Ploidy = 1
	call := svgeno.GenotypeBreakpoint(refAlt, support(4, 4), haploid)
	assert.False(t, call.NoCall)
	assert.Equal(t, "REF", call.GT, "ties go to the first candidate")
	assert.Equal(t, 0.0, call.Quality)
	assert.InDelta(t, 0.5, call.Posteriors[0], 1e-12)
}

func TestGenotypeQualityGrowsWithDepth(t *testing.T) {
	last := -1.0
	for n := 3.0; n <= 30; n++ {
		call := svgeno.GenotypeBreakpoint(refAlt, support(n, 0), diploid())
		require.Equal(t, "REF/REF", call.GT)
		assert.GreaterOrEqual(t, call.Quality, last, "depth %v", n)
		last = call.Quality
	}
}

func TestGenotypeZeroErrorRate(t *testing.T) {
	params := diploid()
	params.ErrorRate = 0
	call := svgeno.GenotypeBreakpoint(refAlt, support(10, 1), params)
	assert.Equal(t, "REF/ALT", call.GT)
	for _, ll := range call.LogLikelihoods {
		assert.False(t, math.IsInf(ll, 0))
		assert.False(t, math.IsNaN(ll))
	}
}

func TestGenotypeAlleleBalance(t *testing.T) {
	// 6 REF and 3 ALT is closer to REF/ALT when heterozygotes show 30% ALT
	params := diploid()
	params.ErrorRate = 0.01
	plain := svgeno.GenotypeBreakpoint(refAlt, support(6, 3), params)
	params.AlleleBalance = map[string]float64{"0/1": 0.3}
	balanced := svgeno.GenotypeBreakpoint(refAlt, support(6, 3), params)

	assert.Equal(t, "REF/ALT", plain.GT)
	assert.Equal(t, "REF/ALT", balanced.GT)
	assert.Greater(t, balanced.LogLikelihoods[1], plain.LogLikelihoods[1])
	assert.InDelta(t, 6*math.Log(0.7*0.99+0.3*0.01)+3*math.Log(0.3*0.99+0.7*0.01),
		balanced.LogLikelihoods[1], 1e-9)
}

func TestGenotypeTriploid(t *testing.T) {
	params := diploid()
	params.Ploidy = 3
	call := svgeno.GenotypeBreakpoint(refAlt, support(10, 20), params)
	assert.Equal(t, []string{"REF/REF/REF", "REF/REF/ALT", "REF/ALT/ALT", "ALT/ALT/ALT"}, call.Genotypes)
	assert.Equal(t, "REF/ALT/ALT", call.GT)
}

func TestBreakpointGenotyper(t *testing.T) {
	ins := newInsertion(t)
	counts := &svgeno.ReadCounts{ByBreakpoint: map[string]svgeno.CountsTable{
		"LF_out": support(15, 14),
		"RF_in":  support(15, 14),
	}}
	for _, workers := range []int{0, 1, 4} {
		gt, err := svgeno.NewGenotyper("breakpoint", workers)
		require.NoError(t, err)
		call := gt.Genotype(ins.graph, counts, diploid())
		require.Len(t, call.Breakpoints, 2)
		assert.Equal(t, "LF_out", call.Breakpoints[0].ID)
		assert.Equal(t, "RF_in", call.Breakpoints[1].ID)
		assert.Equal(t, "REF/ALT", call.Genotype.GT)
		assert.Equal(t, ins.graph.ID, call.Genotype.ID)
		assert.Equal(t, 58, call.Genotype.Depth)
	}

	// breakpoints without a table are no-calls
	gt, _ := svgeno.NewGenotyper("", 0)
	call := gt.Genotype(ins.graph, &svgeno.ReadCounts{}, diploid())
	assert.True(t, call.Genotype.NoCall)
	assert.Equal(t, "./.", call.Genotype.GT)
}

func TestSequenceGenotyper(t *testing.T) {
	ins := newInsertion(t)
	counts := &svgeno.ReadCounts{BySequence: svgeno.CountsTable{
		"REF":             {Total: 1, Reads: 1},
		"ALT":             {Total: 12, Reads: 12},
		svgeno.LabelOther: {Total: 30, Reads: 30},
	}}
	gt, err := svgeno.NewGenotyper("sequence", 0)
	require.NoError(t, err)
	call := gt.Genotype(ins.graph, counts, diploid())
	assert.Empty(t, call.Breakpoints)
	assert.Equal(t, "ALT/ALT", call.Genotype.GT)
	assert.Equal(t, 13, call.Genotype.Depth, "reads on shared sequence do not count")
	assert.NotContains(t, call.Genotype.Counts, svgeno.LabelOther)

	_, err = svgeno.NewGenotyper("exact", 0)
	assert.Error(t, err)
}
