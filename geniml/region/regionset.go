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
	"bufio"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// Source is a collection of regions that can be iterated more than once.
type Source interface {
	// Len returns the number of regions.
	Len() int
	// Each calls fn for every region in order, stopping at the first error.
	Each(fn func(r Region) error) error
}

// Regions is an in-memory list of regions.
type Regions []Region

// Len returns the number of regions.
func (rs Regions) Len() int { return len(rs) }

// Each calls fn for every region in order.
func (rs Regions) Each(fn func(r Region) error) error {
	var err error
	for _, r := range rs {
		if err = fn(r); err != nil {
			return err
		}
	}
	return nil
}

// RegionSet is a set of regions from a BED file.
// A backed RegionSet re-reads the file in every iteration and only keeps
// the number of regions in memory.
type RegionSet struct {
	Path   string
	Backed bool

	regions []Region
	length  int
}

// NewRegionSet creates a RegionSet from a file, which could be
// plain text or compressed.
func NewRegionSet(file string, backed bool) (*RegionSet, error) {
	rs := &RegionSet{Path: file, Backed: backed}

	var err error
	if backed {
		err = ReadFile(file, func(r Region) error {
			rs.length++
			return nil
		})
	} else {
		rs.regions = make([]Region, 0, 1024)
		err = ReadFile(file, func(r Region) error {
			rs.regions = append(rs.regions, r)
			return nil
		})
		rs.length = len(rs.regions)
	}
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// Len returns the number of regions.
func (rs *RegionSet) Len() int { return rs.length }

// Each calls fn for every region in file order.
func (rs *RegionSet) Each(fn func(r Region) error) error {
	if rs.Backed {
		return ReadFile(rs.Path, fn)
	}
	return Regions(rs.regions).Each(fn)
}

// Regions returns all regions, reading the file if the set is backed.
func (rs *RegionSet) Regions() (Regions, error) {
	if !rs.Backed {
		return rs.regions, nil
	}
	regions := make([]Region, 0, rs.length)
	err := ReadFile(rs.Path, func(r Region) error {
		regions = append(regions, r)
		return nil
	})
	return regions, err
}

func (rs *RegionSet) String() string {
	return "RegionSet(" + rs.Path + ")"
}

// ReadFile parses a BED-like file and calls fn for each region.
// Header and blank lines are skipped. Malformed lines abort the reading
// with a *FormatError carrying the file name and line number.
func ReadFile(file string, fn func(r Region) error) error {
	fh, err := xopen.Ropen(file)
	if err != nil {
		if errors.Is(err, xopen.ErrNoContent) { // an empty file has no regions
			return nil
		}
		return errors.Wrapf(err, "open region file: %s", file)
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<24)
	var line string
	var r Region
	var n int
	for scanner.Scan() {
		n++
		line = strings.TrimRight(scanner.Text(), "\r\n")
		if isHeader(line) {
			continue
		}

		r, err = ParseRegion(line)
		if err != nil {
			if e, ok := err.(*FormatError); ok {
				e.File = file
				e.Line = n
			}
			return err
		}

		if err = fn(r); err != nil {
			return err
		}
	}
	if err = scanner.Err(); err != nil {
		return errors.Wrapf(err, "read region file: %s", file)
	}
	return nil
}
