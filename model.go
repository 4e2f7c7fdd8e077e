/*
 * Filename: /Users/htang/code/svgeno/model.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Sunday, March 8th 2020, 10:47:29 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"math"
	"strconv"
	"strings"
)

// MinProbability keeps the log-likelihoods finite when the error rate is 0
const MinProbability = 1e-12

// Genotype is a multiset of allele indices, in ascending order
type Genotype []int

// Key returns the genotype as allele indices, like 0/1
func (r Genotype) Key() string {
	words := make([]string, len(r))
	for i, a := range r {
		words[i] = strconv.Itoa(a)
	}
	return strings.Join(words, "/")
}

// Format returns the genotype with allele labels, like REF/ALT
func (r Genotype) Format(alleles []string) string {
	words := make([]string, len(r))
	for i, a := range r {
		words[i] = alleles[a]
	}
	return strings.Join(words, "/")
}

// dosages counts the copies of each allele
func (r Genotype) dosages(nAlleles int) []int {
	d := make([]int, nAlleles)
	for _, a := range r {
		d[a]++
	}
	return d
}

// enumerateGenotypes lists every multiset of size ploidy over nAlleles
// alleles. Allele 0 is REF when present, so the first genotype is the
// REF-heaviest one.
func enumerateGenotypes(nAlleles, ploidy int) []Genotype {
	var genotypes []Genotype
	current := make(Genotype, ploidy)
	var recur func(pos, from int)
	recur = func(pos, from int) {
		if pos == ploidy {
			genotypes = append(genotypes, append(Genotype{}, current...))
			return
		}
		for a := from; a < nAlleles; a++ {
			current[pos] = a
			recur(pos+1, a)
		}
	}
	recur(0, 0)
	return genotypes
}

// LikelihoodModel scores genotypes against per-allele read counts. Reads are
// drawn from the alleles in proportion to their dosage, and each read is
// misassigned to one of the other alleles with the error rate.
type LikelihoodModel struct {
	Alleles   []string
	Params    ParameterSet
	Genotypes []Genotype
	fractions [][]float64
}

// NewLikelihoodModel precomputes the expected read fractions of every
// candidate genotype
func NewLikelihoodModel(alleles []string, params ParameterSet) *LikelihoodModel {
	r := &LikelihoodModel{
		Alleles:   alleles,
		Params:    params,
		Genotypes: enumerateGenotypes(len(alleles), params.Ploidy),
	}
	r.fractions = make([][]float64, len(r.Genotypes))
	for i, gt := range r.Genotypes {
		r.fractions[i] = r.expectedFractions(gt)
	}
	return r
}

// expectedFractions gives the probability that a read supports each allele
func (r *LikelihoodModel) expectedFractions(gt Genotype) []float64 {
	nAlleles := len(r.Alleles)
	d := gt.dosages(nAlleles)
	f := make([]float64, nAlleles)
	var present []int
	for j := range d {
		f[j] = float64(d[j]) / float64(len(gt))
		if d[j] > 0 {
			present = append(present, j)
		}
	}
	if len(present) == 2 {
		if balance, ok := r.Params.AlleleBalance[gt.Key()]; ok {
			f[present[0]], f[present[1]] = 1-balance, balance
		}
	}

	p := make([]float64, nAlleles)
	e := r.Params.ErrorRate
	for j := range p {
		if nAlleles == 1 {
			p[j] = 1
			continue
		}
		p[j] = f[j]*(1-e) + (1-f[j])*e/float64(nAlleles-1)
		if p[j] < MinProbability {
			p[j] = MinProbability
		}
	}
	return p
}

// LogLikelihood returns the multinomial log-likelihood of the counts under
// genotype i, up to the coefficient shared by all genotypes
func (r *LikelihoodModel) LogLikelihood(i int, counts []int) float64 {
	ll := 0.0
	for j, c := range counts {
		if c == 0 {
			continue
		}
		ll += float64(c) * math.Log(r.fractions[i][j])
	}
	return ll
}

// roundCounts converts the weighted allele support into whole reads
func roundCounts(alleles []string, table CountsTable) []int {
	counts := make([]int, len(alleles))
	for j, allele := range alleles {
		counts[j] = int(Round(table.Get(allele).Total))
	}
	return counts
}
