/*
 * Filename: /Users/htang/code/svgeno/read.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Friday, March 6th 2020, 11:12:09 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"github.com/biogo/hts/sam"
)

// Strand is the orientation of a read on the reference
type Strand int8

const (
	// FWD is the forward strand
	FWD Strand = iota
	// REV is the reverse strand
	REV
)

// String returns FWD or REV
func (s Strand) String() string {
	if s == REV {
		return "REV"
	}
	return "FWD"
}

// Read is one aligned read as handed over by the extractor
type Read struct {
	Name     string
	Sequence []byte
	Strand   Strand
	Chrom    string
	Pos      int // 0-based leftmost aligned base
	Cigar    sam.Cigar
	MapQ     byte
}

// block is a gapless stretch of the alignment
type block struct {
	query int // offset into the read sequence
	ref   int // reference position
	len   int
}

// End returns the reference position after the last aligned base
func (r *Read) End() int {
	if len(r.Cigar) == 0 {
		return r.Pos + len(r.Sequence)
	}
	ref, _ := r.Cigar.Lengths()
	return r.Pos + ref
}

// blocks lists the aligned blocks in the CIGAR. A read without a CIGAR is
// taken as one ungapped block.
func (r *Read) blocks() []block {
	if len(r.Cigar) == 0 {
		return []block{{query: 0, ref: r.Pos, len: len(r.Sequence)}}
	}
	var blocks []block
	query, ref := 0, r.Pos
	for _, op := range r.Cigar {
		c := op.Type().Consumes()
		n := op.Len()
		if c.Query > 0 && c.Reference > 0 {
			blocks = append(blocks, block{query: query, ref: ref, len: n})
		}
		query += c.Query * n
		ref += c.Reference * n
	}
	return blocks
}
