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

package region

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twotwotwo/sorts"
)

// CompareChr compares two chromosome names in natural order.
// The "chr" prefix and any suffix after "_" are ignored when both of the
// remaining parts are numeric and differ, e.g., chr2 < chr10.
// Otherwise the full names are compared lexicographically.
// It returns -1, 0 or 1.
func CompareChr(a, b string) int {
	if a == b {
		return 0
	}
	na, oka := chrNumber(a)
	nb, okb := chrNumber(b)
	if oka && okb && na != nb {
		if na < nb {
			return -1
		}
		return 1
	}
	if a < b {
		return -1
	}
	return 1
}

func chrNumber(c string) (int, bool) {
	c = strings.ReplaceAll(c, "chr", "")
	if i := strings.IndexByte(c, '_'); i >= 0 {
		c = c[:i]
	}
	if c == "" {
		return 0, false
	}
	for i := 0; i < len(c); i++ {
		if c[i] < '0' || c[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(c)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Less orders regions by natural chromosome order, then start, then end.
func Less(a, b Region) bool {
	if a.Chr != b.Chr {
		return CompareChr(a.Chr, b.Chr) < 0
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End < b.End
}

type byPosition Regions

func (s byPosition) Len() int           { return len(s) }
func (s byPosition) Less(i, j int) bool { return Less(s[i], s[j]) }
func (s byPosition) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// SortRegions sorts regions in place by natural chromosome order and position.
// It runs in parallel, and the number of threads is controlled by sorts.MaxProcs.
func SortRegions(regions Regions) {
	sorts.Quicksort(byPosition(regions))
}

// NotSortedError means a file is not sorted by chromosome and start.
type NotSortedError struct {
	File   string
	Record int // 1-based index of the offending region
	Msg    string
}

func (e *NotSortedError) Error() string {
	return fmt.Sprintf("%s: file not sorted at region #%d: %s", e.File, e.Record, e.Msg)
}

// CheckSorted checks in one pass whether a BED file is sorted by
// natural chromosome order and then by start position.
func CheckSorted(file string) error {
	seen := make(map[string]interface{}, 64)
	var prev Region
	var n int
	err := ReadFile(file, func(r Region) error {
		n++
		if n > 1 {
			if r.Chr != prev.Chr {
				if _, ok := seen[r.Chr]; ok {
					return &NotSortedError{File: file, Record: n,
						Msg: fmt.Sprintf("chromosome %s is not contiguous", r.Chr)}
				}
				if CompareChr(prev.Chr, r.Chr) > 0 {
					return &NotSortedError{File: file, Record: n,
						Msg: fmt.Sprintf("chromosome %s after %s", r.Chr, prev.Chr)}
				}
			} else if r.Start < prev.Start {
				return &NotSortedError{File: file, Record: n,
					Msg: fmt.Sprintf("start %d after %d on %s", r.Start, prev.Start, r.Chr)}
			}
		}
		seen[r.Chr] = struct{}{}
		prev = r
		return nil
	})
	return err
}
