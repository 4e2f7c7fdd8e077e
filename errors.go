/*
 * Filename: /Users/htang/code/svgeno/errors.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Tuesday, March 3rd 2020, 9:40:18 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import "fmt"

// ConfigError is raised when the genotyping parameters are malformed or
// incomplete
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error in `%s`: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// GraphLoadError is raised when the graph spec cannot be read or decoded
type GraphLoadError struct {
	Path string
	Err  error
}

func (e *GraphLoadError) Error() string {
	return fmt.Sprintf("cannot load graph `%s`: %v", e.Path, e.Err)
}

func (e *GraphLoadError) Unwrap() error { return e.Err }

// GraphConsistencyError is raised when an edge references a missing node or
// a path does not resolve to a connected chain
type GraphConsistencyError struct {
	Element string
	Reason  string
}

func (e *GraphConsistencyError) Error() string {
	if e.Element == "" {
		return "inconsistent graph: " + e.Reason
	}
	return fmt.Sprintf("inconsistent graph at `%s`: %s", e.Element, e.Reason)
}

// InsufficientReferenceError is raised when the reference lacks the sequence
// needed to build the graph
type InsufficientReferenceError struct {
	Region string
	Err    error
}

func (e *InsufficientReferenceError) Error() string {
	return fmt.Sprintf("insufficient reference data for `%s`: %v", e.Region, e.Err)
}

func (e *InsufficientReferenceError) Unwrap() error { return e.Err }

// graphError is a shorthand for GraphConsistencyError
func graphError(element, format string, args ...interface{}) error {
	return &GraphConsistencyError{Element: element, Reason: fmt.Sprintf(format, args...)}
}
