// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package region provides genomic regions, BED-like parsing and region sets.
package region

import (
	"fmt"
	"strconv"
	"strings"
)

// Region is a half-open genomic interval [Start, End) on a chromosome.
// Label is optional and not part of the identity of a region.
type Region struct {
	Chr   string
	Start int
	End   int
	Label string
}

// Equal compares two regions by chromosome and coordinates.
func (r Region) Equal(o Region) bool {
	return r.Start == o.Start && r.End == o.End && r.Chr == o.Chr
}

// Key returns the label-free version of the region, usable as a map key.
func (r Region) Key() Region {
	return Region{Chr: r.Chr, Start: r.Start, End: r.End}
}

// ID returns the synthesized identifier "{chr}_{start}_{end}".
func (r Region) ID() string {
	return r.Chr + "_" + strconv.Itoa(r.Start) + "_" + strconv.Itoa(r.End)
}

// Len returns the length of the region.
func (r Region) Len() int {
	return r.End - r.Start
}

// Overlap reports whether two regions share at least one base.
func (r Region) Overlap(o Region) bool {
	return r.Chr == o.Chr && r.Start < o.End && o.Start < r.End
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chr, r.Start, r.End)
}

// FormatError means a malformed region line.
type FormatError struct {
	File string // empty for in-memory lines
	Line int    // 1-based, 0 if unknown
	Text string
	Msg  string
}

func (e *FormatError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s: %q", e.File, e.Line, e.Msg, e.Text)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
	}
	return fmt.Sprintf("%s: %q", e.Msg, e.Text)
}

// ParseRegion parses a tab-delimited line of "chr start end [label ...]".
// Extra columns after the label are ignored.
func ParseRegion(line string) (Region, error) {
	var r Region
	items := make([]string, 5)
	stringSplitNByByte(line, '\t', 5, &items)
	if len(items) < 3 {
		return r, &FormatError{Text: line, Msg: fmt.Sprintf("at least 3 columns needed, %d given", len(items))}
	}

	start, err := strconv.Atoi(items[1])
	if err != nil {
		return r, &FormatError{Text: line, Msg: "non-integer start"}
	}
	end, err := strconv.Atoi(strings.TrimRight(items[2], "\r"))
	if err != nil {
		return r, &FormatError{Text: line, Msg: "non-integer end"}
	}
	if start < 0 {
		return r, &FormatError{Text: line, Msg: "negative start"}
	}
	if end < start {
		return r, &FormatError{Text: line, Msg: "end < start"}
	}

	r.Chr = items[0]
	r.Start = start
	r.End = end
	if len(items) > 3 {
		r.Label = strings.TrimRight(items[3], "\r")
	}
	return r, nil
}

// isHeader returns true for blank, comment and UCSC track/browser lines.
func isHeader(line string) bool {
	return line == "" || line[0] == '#' ||
		strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser")
}

func stringSplitNByByte(s string, sep byte, n int, a *[]string) {
	if a == nil {
		tmp := make([]string, n)
		a = &tmp
	}

	n--
	i := 0
	for i < n {
		m := strings.IndexByte(s, sep)
		if m < 0 {
			break
		}
		(*a)[i] = s[:m]
		s = s[m+1:]
		i++
	}
	(*a)[i] = s

	(*a) = (*a)[:i+1]
}
