/**
 * Filename: /Users/htang/code/svgeno/extract.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Friday, March 6th 2020, 1:56:45 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// Extracter pulls the reads around the graph out of a BAM file
type Extracter struct {
	Bamfile  string
	Regions  []Region
	MaxReads int
	MinMapQ  int
	// Stats
	nRecords  int
	nFiltered int
	capped    bool
	reads     []Read
}

// Run reads the BAM file, through its index when there is one
func (r *Extracter) Run() ([]Read, error) {
	log.Noticef("Parse bamfile `%s`", r.Bamfile)
	fh, err := os.Open(r.Bamfile)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	br, err := bam.NewReader(fh, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot open bamfile `%s`: %w", r.Bamfile, err)
	}
	defer br.Close()

	if idx := r.openIndex(); idx != nil {
		err = r.fetch(br, idx)
	} else {
		err = r.scan(br)
	}
	if err != nil {
		return nil, err
	}
	log.Noticef("Extracted %s records from `%s` (%d filtered)",
		Percentage(len(r.reads), r.nRecords), r.Bamfile, r.nFiltered)
	return r.reads, nil
}

// openIndex looks for foo.bam.bai or foo.bai next to the BAM file
func (r *Extracter) openIndex() *bam.Index {
	for _, baifile := range []string{r.Bamfile + ".bai", RemoveExt(r.Bamfile) + ".bai"} {
		fi, err := os.Open(baifile)
		if err != nil {
			continue
		}
		defer fi.Close()
		idx, err := bam.ReadIndex(fi)
		if err != nil {
			log.Warningf("Cannot read index `%s` (%s), scan the whole file", baifile, err)
			return nil
		}
		log.Debugf("Using index `%s`", baifile)
		return idx
	}
	return nil
}

// fetch visits only the chunks that overlap the target regions
func (r *Extracter) fetch(br *bam.Reader, idx *bam.Index) error {
	refs := map[string]*sam.Reference{}
	for _, ref := range br.Header().Refs() {
		refs[ref.Name()] = ref
	}
	for _, region := range r.Regions {
		ref, ok := refs[region.Chrom]
		if !ok {
			log.Warningf("`%s` not in the BAM header", region.Chrom)
			continue
		}
		chunks, err := idx.Chunks(ref, region.Start, region.End)
		if err != nil {
			log.Debugf("No reads in %s (%s)", region, err)
			continue
		}
		it, err := bam.NewIterator(br, chunks)
		if err != nil {
			return err
		}
		for it.Next() {
			if r.full() {
				break
			}
			r.add(it.Record())
		}
		if err := it.Close(); err != nil {
			return err
		}
	}
	return nil
}

// scan reads the whole file, for BAM files without an index
func (r *Extracter) scan(br *bam.Reader) error {
	for !r.full() {
		rec, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		r.add(rec)
	}
	return nil
}

// full tells if we hit the read cap
func (r *Extracter) full() bool {
	if r.MaxReads > 0 && len(r.reads) >= r.MaxReads {
		if !r.capped {
			log.Warningf("Stopped after %d reads", r.MaxReads)
			r.capped = true
		}
		return true
	}
	return false
}

// add keeps the record if it passes the filters and overlaps a target
func (r *Extracter) add(rec *sam.Record) {
	r.nRecords++
	// Filtering: Unmapped | Secondary | QCFail | Duplicate | Supplementary
	if int(rec.MapQ) < r.MinMapQ || rec.Flags&3844 != 0 || rec.Ref == nil {
		r.nFiltered++
		return
	}
	read := newRead(rec)
	if !r.overlaps(&read) {
		r.nFiltered++
		return
	}
	r.reads = append(r.reads, read)
}

// overlaps checks the read against the target regions
func (r *Extracter) overlaps(read *Read) bool {
	if len(r.Regions) == 0 {
		return true
	}
	end := read.End()
	for _, region := range r.Regions {
		if region.Chrom == read.Chrom && read.Pos < region.End && end > region.Start {
			return true
		}
	}
	return false
}

// newRead converts a BAM record
func newRead(rec *sam.Record) Read {
	read := Read{
		Name:     rec.Name,
		Sequence: rec.Seq.Expand(),
		Chrom:    rec.Ref.Name(),
		Pos:      rec.Pos,
		Cigar:    append(sam.Cigar{}, rec.Cigar...),
		MapQ:     rec.MapQ,
	}
	if rec.Flags&sam.Reverse != 0 {
		read.Strand = REV
	}
	return read
}
