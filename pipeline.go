/*
 * Filename: /Users/htang/code/svgeno/pipeline.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Tuesday, March 10th 2020, 2:40:57 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"path"
)

// Result is everything reported for one sample on one graph
type Result struct {
	GraphID    string        `json:"graph"`
	Sample     string        `json:"sample,omitempty"`
	Sex        string        `json:"sex,omitempty"`
	Parameters *ParameterSet `json:"parameters,omitempty"`
	ReadCounts
	Breakpoints []GenotypeCall `json:"breakpoints,omitempty"`
	Genotype    *GenotypeCall  `json:"genotype,omitempty"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

// Analyze runs the in-memory part of the pipeline: disambiguation,
// aggregation and, when a genotyper is given, genotyping. The reads are not
// kept past aggregation.
func Analyze(g *Graph, reads []Read, opts DisambiguationOptions,
	genotyper Genotyper, params *ParameterSet) *Result {
	assignments, diag := Disambiguate(g, reads, opts)
	counts := Aggregate(g, assignments, opts.Workers)
	result := &Result{
		GraphID:     g.ID,
		ReadCounts:  *counts,
		Diagnostics: diag,
	}
	if genotyper == nil || params == nil {
		return result
	}
	vc := genotyper.Genotype(g, counts, *params)
	result.Parameters = params
	result.Breakpoints = vc.Breakpoints
	result.Genotype = &vc.Genotype
	return result
}

// Runner wires the files to the pipeline
type Runner struct {
	Bamfile      string
	Graphfile    string
	Reffile      string
	Paramsfile   string
	Outfile      string
	Metricsfile  string
	Sex          Sex
	Model        string
	MalePloidy   int
	FemalePloidy int
	MaxReads     int
	MinMapQ      int
	Options      DisambiguationOptions
	Genotype     bool // false stops after counting
}

// Run loads the inputs, genotypes and writes the report
func (r *Runner) Run() error {
	g, err := LoadGraph(r.Graphfile, r.Reffile)
	if err != nil {
		return err
	}

	var genotyper Genotyper
	var params *ParameterSet
	if r.Genotype {
		gp, err := r.parameters()
		if err != nil {
			return err
		}
		ps := gp.ForSex(r.Sex)
		params = &ps
		if genotyper, err = NewGenotyper(r.Model, r.Options.Workers); err != nil {
			return err
		}
	}

	extracter := &Extracter{
		Bamfile:  r.Bamfile,
		Regions:  g.TargetRegions(TargetPadding),
		MaxReads: r.MaxReads,
		MinMapQ:  r.MinMapQ,
	}
	reads, err := extracter.Run()
	if err != nil {
		return err
	}

	result := Analyze(g, reads, r.Options, genotyper, params)
	result.Sample = path.Base(RemoveExt(r.Bamfile))
	if r.Genotype {
		result.Sex = r.Sex.String()
	}
	if result.Genotype != nil {
		log.Noticef("Genotype of `%s` in `%s`: %s (GQ=%.1f)",
			g.ID, result.Sample, result.Genotype.GT, result.Genotype.Quality)
	}

	if err := WriteReport(r.Outfile, result); err != nil {
		return err
	}
	if r.Metricsfile != "" {
		m := NewMetrics()
		m.Observe(result)
		if err := m.WriteTextfile(r.Metricsfile); err != nil {
			return err
		}
	}
	return nil
}

// parameters loads the parameter document, or falls back to the defaults
func (r *Runner) parameters() (*GenotypingParameters, error) {
	if r.Paramsfile == "" {
		log.Noticef("No parameters given, use error_rate=%g min_depth=%d",
			DefaultErrorRate, DefaultMinDepth)
		return NewGenotypingParameters(DefaultErrorRate, DefaultMinDepth,
			r.MalePloidy, r.FemalePloidy)
	}
	return LoadGenotypingParameters(r.Paramsfile, r.MalePloidy, r.FemalePloidy)
}
