/*
 *  helper_test.go
 *  svgeno
 *
 *  Created by Haibao Tang on 03/12/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package svgeno_test

import (
	"math/rand"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/svgeno"
)

const (
	testChrom = "chr1"
	lfStart   = 1000 // LF covers chr1:[1000, 1100)
	flankLen  = 100
	insLen    = 40
	readLen   = 70
)

// randomSequence makes a reproducible random DNA sequence
func randomSequence(rng *rand.Rand, n int) []byte {
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = "ACGT"[rng.Intn(4)]
	}
	return seq
}

// insertion holds a small insertion graph and its allele sequences
type insertion struct {
	graph *svgeno.Graph
	lf    []byte
	rf    []byte
	ins   []byte
	ref   []byte // LF + RF
	alt   []byte // LF + INS + RF
}

// newInsertion builds LF -> RF (REF) and LF -> INS -> RF (ALT)
func newInsertion(t *testing.T) *insertion {
	rng := rand.New(rand.NewSource(42))
	r := &insertion{
		lf:  randomSequence(rng, flankLen),
		rf:  randomSequence(rng, flankLen),
		ins: randomSequence(rng, insLen),
	}
	r.ref = append(append([]byte{}, r.lf...), r.rf...)
	r.alt = append(append(append([]byte{}, r.lf...), r.ins...), r.rf...)

	nodes := []svgeno.Node{
		{ID: "LF", Sequence: r.lf, Chrom: testChrom, Start: lfStart, End: lfStart + flankLen},
		{ID: "INS", Sequence: r.ins, Labels: []string{"ALT"}},
		{ID: "RF", Sequence: r.rf, Chrom: testChrom, Start: lfStart + flankLen, End: lfStart + 2*flankLen},
	}
	edges := []svgeno.Edge{
		{From: 0, To: 2, Labels: []string{"REF"}},
		{From: 0, To: 1},
		{From: 1, To: 2},
	}
	g, err := svgeno.NewGraph("chr1:1001-1200:INS", nodes, edges)
	require.NoError(t, err)
	r.graph = g
	return r
}

// cigar builds a CIGAR op list
func cigar(ops ...sam.CigarOp) sam.Cigar {
	return sam.Cigar(ops)
}

// refRead is a read on the REF allele starting s bases into LF
func (r *insertion) refRead(name string, s int, strand svgeno.Strand) svgeno.Read {
	return svgeno.Read{
		Name:     name,
		Sequence: append([]byte{}, r.ref[s:s+readLen]...),
		Strand:   strand,
		Chrom:    testChrom,
		Pos:      lfStart + s,
		Cigar:    cigar(sam.NewCigarOp(sam.CigarMatch, readLen)),
		MapQ:     60,
	}
}

// altRead is a read on the ALT allele starting s bases into LF, aligned to
// the reference with the inserted bases as an insertion
func (r *insertion) altRead(name string, s int, strand svgeno.Strand) svgeno.Read {
	left := flankLen - s
	right := readLen - left - insLen
	return svgeno.Read{
		Name:     name,
		Sequence: append([]byte{}, r.alt[s:s+readLen]...),
		Strand:   strand,
		Chrom:    testChrom,
		Pos:      lfStart + s,
		Cigar: cigar(
			sam.NewCigarOp(sam.CigarMatch, left),
			sam.NewCigarOp(sam.CigarInsertion, insLen),
			sam.NewCigarOp(sam.CigarMatch, right),
		),
		MapQ: 60,
	}
}

// flankRead is a read inside LF, shared by both alleles
func (r *insertion) flankRead(name string, s, length int) svgeno.Read {
	return svgeno.Read{
		Name:     name,
		Sequence: append([]byte{}, r.lf[s:s+length]...),
		Chrom:    testChrom,
		Pos:      lfStart + s,
		Cigar:    cigar(sam.NewCigarOp(sam.CigarMatch, length)),
		MapQ:     60,
	}
}

// scenarioA returns 15 REF reads (8 FWD, 7 REV) and 14 ALT reads (6 FWD,
// 8 REV), all crossing the junctions of their allele
func (r *insertion) scenarioA() []svgeno.Read {
	var reads []svgeno.Read
	for i := 0; i < 15; i++ {
		strand := svgeno.FWD
		if i >= 8 {
			strand = svgeno.REV
		}
		reads = append(reads, r.refRead("ref", 55+i, strand))
	}
	for i := 0; i < 14; i++ {
		strand := svgeno.FWD
		if i >= 6 {
			strand = svgeno.REV
		}
		reads = append(reads, r.altRead("alt", 78+i, strand))
	}
	return reads
}

// diploid is the parameter set used by most tests
func diploid() svgeno.ParameterSet {
	return svgeno.ParameterSet{Ploidy: 2, ErrorRate: 0.05, MinDepth: 3}
}
