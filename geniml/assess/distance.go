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

// Package assess measures how well a universe represents a collection of
// region files, by streaming nearest-neighbour distances between sorted files.
package assess

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/geniml/geniml/region"
	"github.com/shenwei356/xopen"
	"github.com/twotwotwo/sorts"
)

// Columns (0-based) of flexible universes, holding the alternative bounds.
const (
	ColFlexStart = 6 // the right bound of start positions, the left is column 1
	ColFlexEnd   = 7 // the left bound of end positions, the right is column 2
)

// Options controls how distances are computed.
type Options struct {
	// Flexible means the universe has flexible boundaries in columns 6 and 7.
	Flexible bool

	// UniverseToFile reverses the direction: distances are computed from
	// universe regions to the nearest regions of each file.
	UniverseToFile bool
}

// Result is the distance result of a file.
type Result struct {
	File string

	StartDists []int
	EndDists   []int

	// Median of all start and end distances, valid only when OK is true.
	Median float64
	// OK is false when no query region is on a chromosome of the reference,
	// i.e., no comparable chromosome.
	OK bool
}

// span is a position or a flexible interval [lo, hi].
type span struct {
	lo, hi int
}

type distFunc func(ref, q span) int

func hardDistance(ref, q span) int {
	if ref.lo > q.lo {
		return ref.lo - q.lo
	}
	return q.lo - ref.lo
}

// flexibleDistance returns 0 if q falls in [r.lo, r.hi],
// or the distance to the closer bound.
func flexibleDistance(r span, q int) int {
	if r.lo <= q && q <= r.hi {
		return 0
	}
	d1, d2 := r.lo-q, r.hi-q
	if d1 < 0 {
		d1 = -d1
	}
	if d2 < 0 {
		d2 = -d2
	}
	if d1 < d2 {
		return d1
	}
	return d2
}

func flexibleRefDistance(ref, q span) int { return flexibleDistance(ref, q.lo) }

func flexibleQueryDistance(ref, q span) int { return flexibleDistance(q, ref.lo) }

// CalcDistance computes distances between a region file and a universe.
// Both files need to be sorted by chromosome in natural order and then by
// start position.
func CalcDistance(universeFile string, file string, opt *Options) (*Result, error) {
	if opt == nil {
		opt = &Options{}
	}

	var qCols, rCols [2][2]int
	var fn distFunc
	var queryFile, refFile string
	switch {
	case !opt.Flexible:
		qCols = [2][2]int{{1, 1}, {2, 2}}
		rCols = qCols
		fn = hardDistance
	case opt.UniverseToFile:
		qCols = [2][2]int{{1, ColFlexStart}, {ColFlexEnd, 2}}
		rCols = [2][2]int{{1, 1}, {2, 2}}
		fn = flexibleQueryDistance
	default:
		qCols = [2][2]int{{1, 1}, {2, 2}}
		rCols = [2][2]int{{1, ColFlexStart}, {ColFlexEnd, 2}}
		fn = flexibleRefDistance
	}
	if opt.UniverseToFile {
		queryFile, refFile = universeFile, file
	} else {
		queryFile, refFile = file, universeFile
	}

	starts, err := newCursor(refFile, rCols[0], fn)
	if err != nil {
		return nil, err
	}
	defer starts.close()
	ends, err := newCursor(refFile, rCols[1], fn)
	if err != nil {
		return nil, err
	}
	defer ends.close()

	query, err := newRecordReader(queryFile, qCols[0], qCols[1])
	if err != nil {
		return nil, err
	}
	defer query.close()

	var rec record
	var ok bool
	for {
		rec, ok, err = query.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		if err = starts.process(rec.chr, rec.pos); err != nil {
			return nil, err
		}
		if err = ends.process(rec.chr, rec.pos2); err != nil {
			return nil, err
		}
	}

	res := &Result{
		File:       file,
		StartDists: starts.dists,
		EndDists:   ends.dists,
	}
	if len(res.StartDists) == 0 {
		return res, nil
	}

	all := make([]int, 0, len(res.StartDists)+len(res.EndDists))
	all = append(all, res.StartDists...)
	all = append(all, res.EndDists...)
	res.Median = Median(all)
	res.OK = true
	return res, nil
}

// Median returns the median of integers, the mean of the two middle
// values for even sizes. The slice is sorted in place.
func Median(vals []int) float64 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	sorts.Quicksort(sort.IntSlice(vals))
	if n&1 == 1 {
		return float64(vals[n/2])
	}
	return float64(vals[n/2-1]+vals[n/2]) / 2
}

// WriteDistances writes paired start and end distances, one pair per line.
func WriteDistances(file string, res *Result) error {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrapf(err, "write distances: %s", file)
	}
	bw := bufio.NewWriter(outfh)
	n := len(res.StartDists)
	if len(res.EndDists) < n {
		n = len(res.EndDists)
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(bw, "%d\t%d\n", res.StartDists[i], res.EndDists[i])
	}
	if err = bw.Flush(); err != nil {
		outfh.Close()
		return errors.Wrapf(err, "write distances: %s", file)
	}
	return outfh.Close()
}

// ---------------------------------------------------------------------------

// record is a line of a sorted BED file: a chromosome and
// one or two positions picked from some columns.
type record struct {
	chr  string
	pos  span
	pos2 span
}

type recordReader struct {
	file    string
	fh      *xopen.Reader // nil for an empty file
	scanner *bufio.Scanner
	line    int

	cols, cols2 [2]int
	maxCol      int
	items       []string
}

func newRecordReader(file string, cols, cols2 [2]int) (*recordReader, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		if errors.Is(err, xopen.ErrNoContent) {
			return &recordReader{file: file}, nil
		}
		return nil, errors.Wrapf(err, "open file: %s", file)
	}
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<24)

	maxCol := 2
	for _, c := range [4]int{cols[0], cols[1], cols2[0], cols2[1]} {
		if c > maxCol {
			maxCol = c
		}
	}
	return &recordReader{
		file:    file,
		fh:      fh,
		scanner: scanner,
		cols:    cols,
		cols2:   cols2,
		maxCol:  maxCol,
		items:   make([]string, maxCol+2),
	}, nil
}

// next returns the next record, false for the end of file.
func (r *recordReader) next() (record, bool, error) {
	var rec record
	if r.fh == nil {
		return rec, false, nil
	}
	var line string
	var err error
	for r.scanner.Scan() {
		r.line++
		line = strings.TrimRight(r.scanner.Text(), "\r\n")
		if line == "" || line[0] == '#' {
			continue
		}

		r.items = r.items[:cap(r.items)]
		stringSplitNByByte(line, '\t', len(r.items), &r.items)
		if len(r.items) <= r.maxCol {
			return rec, false, &region.FormatError{File: r.file, Line: r.line, Text: line,
				Msg: fmt.Sprintf("at least %d columns needed, %d given", r.maxCol+1, len(r.items))}
		}

		rec.chr = r.items[0]
		if rec.pos, err = r.span(r.cols, line); err != nil {
			return rec, false, err
		}
		if rec.pos2, err = r.span(r.cols2, line); err != nil {
			return rec, false, err
		}
		return rec, true, nil
	}
	if err = r.scanner.Err(); err != nil {
		return rec, false, errors.Wrapf(err, "read file: %s", r.file)
	}
	return rec, false, nil
}

func (r *recordReader) span(cols [2]int, line string) (span, error) {
	var s span
	var err error
	if s.lo, err = strconv.Atoi(r.items[cols[0]]); err != nil {
		return s, &region.FormatError{File: r.file, Line: r.line, Text: line,
			Msg: fmt.Sprintf("non-integer value in column %d", cols[0]+1)}
	}
	if cols[1] == cols[0] {
		s.hi = s.lo
		return s, nil
	}
	if s.hi, err = strconv.Atoi(r.items[cols[1]]); err != nil {
		return s, &region.FormatError{File: r.file, Line: r.line, Text: line,
			Msg: fmt.Sprintf("non-integer value in column %d", cols[1]+1)}
	}
	return s, nil
}

func (r *recordReader) close() error {
	if r.fh == nil {
		return nil
	}
	return r.fh.Close()
}

func stringSplitNByByte(s string, sep byte, n int, a *[]string) {
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
