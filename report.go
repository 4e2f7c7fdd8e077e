/*
 * Filename: /Users/htang/code/svgeno/report.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Tuesday, March 10th 2020, 4:02:11 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"encoding/json"

	"github.com/shenwei356/xopen"
)

// MarshalReport encodes the result as indented JSON. Map keys are sorted, so
// the same result always gives the same bytes.
func MarshalReport(result *Result) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteReport writes the JSON report, gzipped if the name ends with .gz and
// to stdout if the name is empty or "-"
func WriteReport(filename string, result *Result) error {
	data, err := MarshalReport(result)
	if err != nil {
		return err
	}
	if filename == "" {
		filename = "-"
	}
	w, err := xopen.Wopen(filename)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if filename != "-" {
		log.Noticef("Report written to `%s`", filename)
	}
	return nil
}
