/**
 * Filename: /Users/htang/code/svgeno/base.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Tuesday, March 3rd 2020, 9:14:52 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"fmt"
	"math"
	"os"
	"path"
	"strings"

	logging "github.com/op/go-logging"
)

const (
	// Version is the current version of svgeno
	Version = "0.3.1"
	// DefaultPloidy is used when the sample sex is unknown
	DefaultPloidy = 2
	// DefaultErrorRate is the read misassignment rate without a parameter file
	DefaultErrorRate = 0.05
	// DefaultMinDepth is the minimum breakpoint depth without a parameter file
	DefaultMinDepth = 3
	// WeightNorm is a big integer multiplier so read weights add up exactly
	WeightNorm = int64(1000000000)
	// MaxQuality caps the genotype quality
	MaxQuality = 99.0
	// MinAnchor is the number of read bases needed on each side of a junction
	MinAnchor = 5
	// MinOverlap is the number of read bases that must land on a path for
	// the read to be placed on it
	MinOverlap = 20
	// MaxMismatchFraction is the mismatch rate above which a read is not placed
	MaxMismatchFraction = 0.1
	// QualitySlack is how many extra mismatches a path may have and still
	// share a read under quality weighting
	QualitySlack = 2
	// MaxReads is the maximum number of reads extracted per graph
	MaxReads = 10000
	// TargetPadding is added on both sides of the graph span for extraction
	TargetPadding = 150
	// MinMapQ is the minimum mapping quality for a read to be extracted
	MinMapQ = 1
	// TotalKey is the reserved key for the summary row of a counts table
	TotalKey = "total"
	// LabelRef is the label of the reference sequence
	LabelRef = "REF"
	// LabelOther is used for elements that belong to zero or several sequences
	LabelOther = "other"
)

var log = logging.MustGetLogger("svgeno")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// RemoveExt returns the substring minus the extension
func RemoveExt(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// IsNewerFile checks if file a is newer than file b
func IsNewerFile(a, b string) bool {
	af, aerr := os.Stat(a)
	bf, berr := os.Stat(b)
	if os.IsNotExist(aerr) || os.IsNotExist(berr) {
		return false
	}
	am := af.ModTime()
	bm := bf.ModTime()
	return am.Sub(bm) > 0
}

// Round makes a round number
func Round(input float64) float64 {
	if input < 0 {
		return math.Ceil(input - 0.5)
	}
	return math.Floor(input + 0.5)
}

// min gets the minimum for two ints
func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// max gets the maximum for two ints
func max(x, y int) int {
	if x > y {
		return x
	}
	return y
}

// abs gets the absolute value of an int
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// unitsToFloat converts fixed-point weight units back to a float
func unitsToFloat(units int64) float64 {
	return float64(units) / float64(WeightNorm)
}

// quantize converts non-negative weights into fixed-point units that sum
// to exactly WeightNorm, using largest remainders. Ties go to the lower index.
func quantize(weights []float64) []int64 {
	units := make([]int64, len(weights))
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return units
	}
	remainders := make([]float64, len(weights))
	assigned := int64(0)
	for i, w := range weights {
		exact := w / total * float64(WeightNorm)
		units[i] = int64(math.Floor(exact))
		remainders[i] = exact - float64(units[i])
		assigned += units[i]
	}
	for left := WeightNorm - assigned; left > 0; left-- {
		best := 0
		for i := 1; i < len(remainders); i++ {
			if remainders[i] > remainders[best] {
				best = i
			}
		}
		units[best]++
		remainders[best] = -1
	}
	return units
}

// Percentage prints a human readable message of the percentage
func Percentage(a, b int) string {
	if b == 0 {
		return fmt.Sprintf("%d of %d", a, b)
	}
	return fmt.Sprintf("%d of %d (%.1f %%)", a, b, float64(a)*100./float64(b))
}
