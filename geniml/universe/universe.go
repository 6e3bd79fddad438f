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

// Package universe indexes a reference vocabulary of genomic regions
// with one interval search tree per chromosome.
package universe

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rdleal/intervalst/interval"
	"github.com/shenwei356/geniml/geniml/region"
)

// Universe is a set of reference regions, indexed by chromosome.
// It is read-only after building and safe for concurrent queries.
type Universe struct {
	trees map[string]*interval.SearchTree[int, int]

	// regions in the order of first insertion, i.e., the vocabulary
	regions []region.Region
	ids     map[region.Region]int

	chrs []string
}

var cmpFn = func(x, y int) int { return x - y }

// New builds a universe from a region source, e.g., a region.RegionSet
// or an in-memory region.Regions.
func New(src region.Source) (*Universe, error) {
	u := &Universe{}
	if err := u.Build(src); err != nil {
		return nil, err
	}
	return u, nil
}

// NewFromFile builds a universe from a BED file.
func NewFromFile(file string) (*Universe, error) {
	rs, err := region.NewRegionSet(file, true)
	if err != nil {
		return nil, err
	}
	return New(rs)
}

// Build (re)builds the index. The previous index, if any, is replaced.
// Identical intervals are stored only once.
func (u *Universe) Build(src region.Source) error {
	n := src.Len()
	trees := make(map[string]*interval.SearchTree[int, int], 64)
	regions := make([]region.Region, 0, n)
	ids := make(map[region.Region]int, n)
	chrs := make([]string, 0, 64)

	var tree *interval.SearchTree[int, int]
	var ok bool
	var key region.Region
	var lastChr string
	err := src.Each(func(r region.Region) error {
		if r.End <= r.Start {
			return &region.FormatError{Text: r.String(), Msg: "empty interval"}
		}

		key = r.Key()
		if _, ok = ids[key]; ok {
			return nil
		}

		if r.Chr != lastChr || tree == nil {
			if tree, ok = trees[r.Chr]; !ok {
				tree = interval.NewSearchTree[int, int](cmpFn)
				trees[r.Chr] = tree
				chrs = append(chrs, r.Chr)
			}
			lastChr = r.Chr
		}

		// values are vocabulary ranks; half-open overlaps are checked in Overlaps
		if err := tree.Insert(r.Start, r.End, len(regions)); err != nil {
			return errors.Wrapf(err, "insert region %s", r)
		}

		ids[key] = len(regions)
		regions = append(regions, key)
		return nil
	})
	if err != nil {
		return err
	}

	u.trees = trees
	u.regions = regions
	u.ids = ids
	u.chrs = chrs
	return nil
}

// Len returns the number of indexed regions.
func (u *Universe) Len() int {
	return len(u.regions)
}

// Chromosomes returns chromosome names in the order of first appearance.
func (u *Universe) Chromosomes() []string {
	return u.chrs
}

// Regions returns all regions in vocabulary order.
// The returned slice should not be modified.
func (u *Universe) Regions() []region.Region {
	return u.regions
}

// ID returns the vocabulary rank of a universe region.
func (u *Universe) ID(r region.Region) (int, bool) {
	id, ok := u.ids[r.Key()]
	return id, ok
}

// Overlaps returns universe regions overlapping with the half-open span of r,
// in the enumeration order of the index. Unknown chromosomes and empty query
// regions give no hits.
func (u *Universe) Overlaps(r region.Region) []region.Region {
	if r.End <= r.Start {
		return nil
	}
	tree, ok := u.trees[r.Chr]
	if !ok {
		return nil
	}
	vals, ok := tree.AllIntersections(r.Start, r.End)
	if !ok {
		return nil
	}

	hits := make([]region.Region, 0, len(vals))
	var h region.Region
	for _, v := range vals {
		h = u.regions[v]
		if h.Start < r.End && r.Start < h.End {
			hits = append(hits, h)
		}
	}
	return hits
}

// First returns the first overlapping universe region.
func (u *Universe) First(r region.Region) (region.Region, bool) {
	hits := u.Overlaps(r)
	if len(hits) == 0 {
		return region.Region{}, false
	}
	return hits[0], true
}

// Query returns all universe regions overlapping with any of the given regions.
func (u *Universe) Query(regions ...region.Region) []region.Region {
	var hits []region.Region
	for _, r := range regions {
		hits = append(hits, u.Overlaps(r)...)
	}
	return hits
}

// QueryEach returns overlapping universe regions for each query,
// index-aligned with the input.
func (u *Universe) QueryEach(regions ...region.Region) [][]region.Region {
	hits := make([][]region.Region, len(regions))
	for i, r := range regions {
		hits[i] = u.Overlaps(r)
	}
	return hits
}

// Contains reports whether a region overlaps with any universe region.
func (u *Universe) Contains(r region.Region) bool {
	return len(u.Overlaps(r)) > 0
}

func (u *Universe) String() string {
	return fmt.Sprintf("Universe with %d regions", u.Len())
}
