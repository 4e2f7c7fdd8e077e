/*
 *  vote_test.go
 *  svgeno
 *
 *  Created by Haibao Tang on 03/12/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package svgeno_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tanghaibao/svgeno"
)

// bpCall makes a breakpoint call with the given genotype and quality
func bpCall(id, gt string, quality float64, depth int) svgeno.GenotypeCall {
	return svgeno.GenotypeCall{
		ID:      id,
		GT:      gt,
		Alleles: strings.Split(gt, "/"),
		Quality: quality,
		Depth:   depth,
		Counts:  svgeno.CountsTable{"REF": {Total: float64(depth), Reads: depth}},
	}
}

func noCallAt(id, gt string) svgeno.GenotypeCall {
	return svgeno.GenotypeCall{ID: id, GT: gt, NoCall: true}
}

func TestVoteMajority(t *testing.T) {
	consensus := svgeno.Vote([]svgeno.GenotypeCall{
		bpCall("a", "REF/ALT", 40, 10),
		bpCall("b", "REF/REF", 99, 20),
		bpCall("c", "REF/ALT", 30, 12),
	})
	assert.False(t, consensus.NoCall)
	assert.Equal(t, "REF/ALT", consensus.GT)
	assert.Equal(t, []string{"REF", "ALT"}, consensus.Alleles)
	assert.Equal(t, 30.0, consensus.Quality, "lowest quality of the winners")
	assert.Equal(t, 22, consensus.Depth)
	assert.Equal(t, svgeno.Counts{Total: 22, Reads: 22}, consensus.Counts["REF"])
}

func TestVoteTieBreaks(t *testing.T) {
	// equal votes, higher best quality wins
	consensus := svgeno.Vote([]svgeno.GenotypeCall{
		bpCall("a", "REF/REF", 20, 10),
		bpCall("b", "REF/ALT", 50, 10),
	})
	assert.Equal(t, "REF/ALT", consensus.GT)
	assert.Equal(t, 50.0, consensus.Quality)

	// equal votes and quality, REF-heavier genotype wins in either order
	for _, calls := range [][]svgeno.GenotypeCall{
		{bpCall("a", "ALT/ALT", 50, 10), bpCall("b", "REF/ALT", 50, 10)},
		{bpCall("b", "REF/ALT", 50, 10), bpCall("a", "ALT/ALT", 50, 10)},
	} {
		consensus = svgeno.Vote(calls)
		assert.Equal(t, "REF/ALT", consensus.GT)
	}
}

func TestVoteIgnoresNoCalls(t *testing.T) {
	consensus := svgeno.Vote([]svgeno.GenotypeCall{
		noCallAt("a", "./."),
		noCallAt("b", "./."),
		bpCall("c", "ALT/ALT", 12, 4),
	})
	assert.Equal(t, "ALT/ALT", consensus.GT)
	assert.Equal(t, 12.0, consensus.Quality)
	assert.Equal(t, 4, consensus.Depth)
}

func TestVoteAllNoCalls(t *testing.T) {
	consensus := svgeno.Vote([]svgeno.GenotypeCall{noCallAt("a", "./."), noCallAt("b", "./.")})
	assert.True(t, consensus.NoCall)
	assert.Equal(t, "./.", consensus.GT)

	consensus = svgeno.Vote([]svgeno.GenotypeCall{noCallAt("a", ".")})
	assert.Equal(t, ".", consensus.GT)

	consensus = svgeno.Vote(nil)
	assert.True(t, consensus.NoCall)
}

func TestVoteOrderIndependent(t *testing.T) {
	calls := []svgeno.GenotypeCall{
		bpCall("a", "REF/ALT", 40, 10),
		bpCall("b", "ALT/ALT", 40, 8),
		bpCall("c", "REF/REF", 40, 9),
		noCallAt("d", "./."),
	}
	expected := svgeno.Vote(calls)
	assert.Equal(t, "REF/REF", expected.GT)
	for i := range calls {
		rotated := append(append([]svgeno.GenotypeCall{}, calls[i:]...), calls[:i]...)
		got := svgeno.Vote(rotated)
		assert.Equal(t, expected.GT, got.GT, "rotation %d", i)
		assert.Equal(t, expected.Quality, got.Quality, "rotation %d", i)
	}
}
