/*
 * Filename: /Users/htang/code/svgeno/params.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Sunday, March 8th 2020, 9:20:44 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"fmt"
	"strings"

	"github.com/shenwei356/xopen"
	"github.com/spf13/viper"
)

// Sex is the sex of the sample, it decides the ploidy on sex chromosomes
type Sex int

const (
	// SexUnknown gets the default ploidy
	SexUnknown Sex = iota
	// SexMale uses the male parameters
	SexMale
	// SexFemale uses the female parameters
	SexFemale
)

// String returns the flag value of the sex
func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	}
	return "unknown"
}

// ParseSex converts a flag value to a Sex
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(s) {
	case "", "unknown":
		return SexUnknown, nil
	case "male", "m":
		return SexMale, nil
	case "female", "f":
		return SexFemale, nil
	}
	return SexUnknown, fmt.Errorf("unknown sex `%s` (want male, female or unknown)", s)
}

// ParameterSet is the error and prior model for one class of samples
type ParameterSet struct {
	Ploidy    int     `json:"ploidy"`
	ErrorRate float64 `json:"error_rate"`
	MinDepth  int     `json:"min_depth"`
	// Expected fraction of reads from the non-first allele of a two-allele
	// genotype, keyed by genotype like "0/1" or "0/0/1"
	AlleleBalance map[string]float64 `json:"allele_balance,omitempty"`
}

// GenotypingParameters holds the male and female parameter sets
type GenotypingParameters struct {
	Male   ParameterSet `json:"male"`
	Female ParameterSet `json:"female"`
}

// parameterDoc mirrors one section of the document. Pointers tell absent
// values from zeros.
type parameterDoc struct {
	Ploidy        *int               `mapstructure:"ploidy"`
	ErrorRate     *float64           `mapstructure:"error_rate"`
	MinDepth      *int               `mapstructure:"min_depth"`
	AlleleBalance map[string]float64 `mapstructure:"allele_balance"`
}

// sexDoc holds the per-sex sections of the document
type sexDoc struct {
	Male   parameterDoc `mapstructure:"male"`
	Female parameterDoc `mapstructure:"female"`
}

// LoadGenotypingParameters reads and validates the parameter document (JSON,
// may be gzipped). The ploidies are used when the document has none.
func LoadGenotypingParameters(path string, malePloidy, femalePloidy int) (*GenotypingParameters, error) {
	log.Noticef("Parse parameters `%s`", path)
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	defer fh.Close()

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(fh); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	// Top level values are the defaults for both sections
	var defaults parameterDoc
	if err := v.Unmarshal(&defaults); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	var doc sexDoc
	if err := v.Unmarshal(&doc); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	male, err := resolveParameters("male", &defaults, &doc.Male, malePloidy)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	female, err := resolveParameters("female", &defaults, &doc.Female, femalePloidy)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return &GenotypingParameters{Male: male, Female: female}, nil
}

// NewGenotypingParameters builds the parameters without a document
func NewGenotypingParameters(errorRate float64, minDepth, malePloidy, femalePloidy int) (*GenotypingParameters, error) {
	r := &GenotypingParameters{
		Male:   ParameterSet{Ploidy: malePloidy, ErrorRate: errorRate, MinDepth: minDepth},
		Female: ParameterSet{Ploidy: femalePloidy, ErrorRate: errorRate, MinDepth: minDepth},
	}
	if err := r.Male.Validate(); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("male: %w", err)}
	}
	if err := r.Female.Validate(); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("female: %w", err)}
	}
	return r, nil
}

// resolveParameters overlays a sex section on the defaults
func resolveParameters(class string, defaults, section *parameterDoc, ploidy int) (ParameterSet, error) {
	r := ParameterSet{Ploidy: ploidy, AlleleBalance: map[string]float64{}}
	if r.Ploidy == 0 {
		r.Ploidy = DefaultPloidy
	}
	for _, doc := range []*parameterDoc{defaults, section} {
		if doc.Ploidy != nil {
			r.Ploidy = *doc.Ploidy
		}
		if doc.ErrorRate != nil {
			r.ErrorRate = *doc.ErrorRate
		}
		if doc.MinDepth != nil {
			r.MinDepth = *doc.MinDepth
		}
		for gt, balance := range doc.AlleleBalance {
			r.AlleleBalance[gt] = balance
		}
	}
	if defaults.ErrorRate == nil && section.ErrorRate == nil {
		return r, fmt.Errorf("%s: error_rate is required", class)
	}
	if defaults.MinDepth == nil && section.MinDepth == nil {
		return r, fmt.Errorf("%s: min_depth is required", class)
	}
	if err := r.Validate(); err != nil {
		return r, fmt.Errorf("%s: %w", class, err)
	}
	return r, nil
}

// Validate checks the ranges of the parameters
func (r *ParameterSet) Validate() error {
	if r.Ploidy <= 0 {
		return fmt.Errorf("ploidy must be positive, got %d", r.Ploidy)
	}
	if r.ErrorRate < 0 || r.ErrorRate >= 1 {
		return fmt.Errorf("error_rate must be in [0, 1), got %g", r.ErrorRate)
	}
	if r.MinDepth < 0 {
		return fmt.Errorf("min_depth must not be negative, got %d", r.MinDepth)
	}
	for gt, balance := range r.AlleleBalance {
		if balance < 0 || balance > 1 {
			return fmt.Errorf("allele_balance of `%s` must be in [0, 1], got %g", gt, balance)
		}
	}
	return nil
}

// ForSex picks the parameter set for a sample. Samples of unknown sex get
// the female set at the default ploidy.
func (r *GenotypingParameters) ForSex(sex Sex) ParameterSet {
	switch sex {
	case SexMale:
		return r.Male
	case SexFemale:
		return r.Female
	}
	ps := r.Female
	ps.Ploidy = DefaultPloidy
	return ps
}
