/*
 *  counts_test.go
 *  svgeno
 *
 *  Created by Haibao Tang on 03/12/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package svgeno_test

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/svgeno"
)

func TestAggregateScenarioA(t *testing.T) {
	ins := newInsertion(t)
	opts := svgeno.DefaultDisambiguationOptions()
	assignments, _ := svgeno.Disambiguate(ins.graph, ins.scenarioA(), opts)
	rc := svgeno.Aggregate(ins.graph, assignments, 0)

	assert.Equal(t, svgeno.CountsTable{
		"REF": {Total: 15, FWD: 8, REV: 7, Reads: 15},
		"ALT": {Total: 14, FWD: 6, REV: 8, Reads: 14},
	}, rc.BySequence)

	assert.Equal(t, svgeno.Counts{Total: 15, FWD: 8, REV: 7, Reads: 15}, rc.ByEdge["LF_RF"])
	assert.Equal(t, svgeno.Counts{Total: 7, FWD: 3, REV: 4, Reads: 14}, rc.ByEdge["LF_INS"])
	assert.Equal(t, svgeno.Counts{Total: 7, FWD: 3, REV: 4, Reads: 14}, rc.ByEdge["INS_RF"])
	assert.Equal(t, svgeno.Counts{Total: 29, FWD: 14, REV: 15, Reads: 29}, rc.ByEdge[svgeno.TotalKey])

	assert.Equal(t, 29, rc.ByNode[svgeno.TotalKey].Reads)
	assert.InDelta(t, 29, rc.ByNode[svgeno.TotalKey].Total, 1e-9)
	assert.InDelta(t, 15*0.5+14.0/3, rc.ByNode["LF"].Total, 1e-6)
	assert.InDelta(t, 14.0/3, rc.ByNode["INS"].Total, 1e-6)
	assert.Equal(t, 29, rc.ByNode["RF"].Reads)

	for _, id := range []string{"LF_out", "RF_in"} {
		table := rc.ByBreakpoint[id]
		assert.Equal(t, svgeno.Counts{Total: 15, FWD: 8, REV: 7, Reads: 15}, table["REF"], id)
		assert.Equal(t, svgeno.Counts{Total: 14, FWD: 6, REV: 8, Reads: 14}, table["ALT"], id)
	}
}

func TestAggregateOmitsZeroSupport(t *testing.T) {
	ins := newInsertion(t)
	var reads []svgeno.Read
	for s := 55; s < 70; s++ {
		reads = append(reads, ins.refRead("ref", s, svgeno.FWD))
	}
	assignments, _ := svgeno.Disambiguate(ins.graph, reads, svgeno.DefaultDisambiguationOptions())
	rc := svgeno.Aggregate(ins.graph, assignments, 0)

	assert.Contains(t, rc.BySequence, "REF")
	assert.NotContains(t, rc.BySequence, "ALT")
	assert.NotContains(t, rc.ByEdge, "LF_INS")
	assert.NotContains(t, rc.ByNode, "INS")
	assert.NotContains(t, rc.ByBreakpoint["LF_out"], "ALT")
	assert.Equal(t, 0.0, rc.BySequence.Get("ALT").Total, "absent means zero")
}

func TestAggregateEmpty(t *testing.T) {
	ins := newInsertion(t)
	rc := svgeno.Aggregate(ins.graph, nil, 0)
	assert.Empty(t, rc.ByEdge)
	assert.Empty(t, rc.ByNode)
	assert.Empty(t, rc.BySequence)
	require.Len(t, rc.ByBreakpoint, 2)
	assert.Empty(t, rc.ByBreakpoint["LF_out"])
}

func TestAggregateSplitReadCountsOnce(t *testing.T) {
	ins := newInsertion(t)
	seq := append(append([]byte{}, ins.lf[40:]...), 'N', 'N', 'N')
	read := svgeno.Read{
		Name:     "ambiguous",
		Sequence: seq,
		Strand:   svgeno.REV,
		Chrom:    testChrom,
		Pos:      lfStart + 40,
		Cigar:    cigar(sam.NewCigarOp(sam.CigarMatch, 60), sam.NewCigarOp(sam.CigarSoftClipped, 3)),
	}
	assignments, _ := svgeno.Disambiguate(ins.graph, []svgeno.Read{read}, svgeno.DefaultDisambiguationOptions())
	rc := svgeno.Aggregate(ins.graph, assignments, 0)

	assert.Equal(t, svgeno.Counts{Total: 0.5, REV: 0.5, Reads: 1}, rc.BySequence["REF"])
	assert.Equal(t, svgeno.Counts{Total: 0.5, REV: 0.5, Reads: 1}, rc.BySequence["ALT"])
	assert.Equal(t, svgeno.Counts{Total: 0.5, REV: 0.5, Reads: 1}, rc.ByNode["LF"])
	assert.Equal(t, svgeno.Counts{Total: 0.25, REV: 0.25, Reads: 1}, rc.ByNode["INS"])
	assert.NotContains(t, rc.ByEdge, svgeno.TotalKey, "no junction was crossed")
}

func TestAggregatePartitioning(t *testing.T) {
	ins := newInsertion(t)
	reads := ins.scenarioA()
	for s := 0; s < 30; s += 2 {
		reads = append(reads, ins.flankRead("flank", s, 60))
	}
	assignments, _ := svgeno.Disambiguate(ins.graph, reads, svgeno.DefaultDisambiguationOptions())

	expected := svgeno.Aggregate(ins.graph, assignments, 1)
	for _, workers := range []int{2, 3, 7, 100} {
		assert.Equal(t, expected, svgeno.Aggregate(ins.graph, assignments, workers), "workers=%d", workers)
	}

	// Merging partial tables in either order gives the same result
	a := svgeno.NewAggregator(ins.graph)
	b := svgeno.NewAggregator(ins.graph)
	for i := range assignments {
		if i%2 == 0 {
			a.Add(&assignments[i])
		} else {
			b.Add(&assignments[i])
		}
	}
	c := svgeno.NewAggregator(ins.graph)
	d := svgeno.NewAggregator(ins.graph)
	for i := range assignments {
		if i%2 == 0 {
			d.Add(&assignments[i])
		} else {
			c.Add(&assignments[i])
		}
	}
	assert.Equal(t, expected, a.Merge(b).ReadCounts())
	assert.Equal(t, expected, c.Merge(d).ReadCounts())
}
