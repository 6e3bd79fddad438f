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

package tokenizer

import (
	"sort"

	"github.com/shenwei356/geniml/geniml/region"
	"github.com/shenwei356/geniml/geniml/universe"
)

// InMemTokenizer tokenizes regions with an in-memory universe.
type InMemTokenizer struct {
	Universe *universe.Universe
}

// NewInMemTokenizer creates an InMemTokenizer from a built universe.
func NewInMemTokenizer(u *universe.Universe) *InMemTokenizer {
	return &InMemTokenizer{Universe: u}
}

// NewInMemTokenizerFromFile builds the universe from a BED file.
func NewInMemTokenizerFromFile(file string) (*InMemTokenizer, error) {
	u, err := universe.NewFromFile(file)
	if err != nil {
		return nil, err
	}
	return &InMemTokenizer{Universe: u}, nil
}

// Tokenize returns the first overlapping universe region for each input
// region, or nil if there's none.
func (t *InMemTokenizer) Tokenize(src region.Source) ([]*region.Region, error) {
	tokens := make([]*region.Region, 0, src.Len())
	err := src.Each(func(r region.Region) error {
		if hit, ok := t.Universe.First(r); ok {
			tokens = append(tokens, &hit)
		} else {
			tokens = append(tokens, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// TokenizeAll returns all overlapping universe regions for each input region.
// The result has the same length and order as the input.
func (t *InMemTokenizer) TokenizeAll(src region.Source) ([][]region.Region, error) {
	tokens := make([][]region.Region, 0, src.Len())
	err := src.Each(func(r region.Region) error {
		tokens = append(tokens, t.Universe.Overlaps(r))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// TokenizeFile writes distinct universe regions overlapping with any region
// in src, in vocabulary order.
func (t *InMemTokenizer) TokenizeFile(src, dst string) error {
	hits := make(map[int]interface{}, 1024)
	var id int
	err := region.ReadFile(src, func(r region.Region) error {
		for _, h := range t.Universe.Overlaps(r) {
			id, _ = t.Universe.ID(h)
			hits[id] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ids := make([]int, 0, len(hits))
	for id = range hits {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	all := t.Universe.Regions()
	regions := make([]region.Region, len(ids))
	for i, id := range ids {
		regions[i] = all[id]
	}
	return writeRegions(dst, regions)
}

// ConvertTokensToIDs maps tokens to vocabulary ranks. It never fails.
func (t *InMemTokenizer) ConvertTokensToIDs(tokens []*region.Region) ([]int, error) {
	return convertTokensToIDs(t.Universe, tokens), nil
}

// UnknownID returns the id for unknown tokens.
func (t *InMemTokenizer) UnknownID() int {
	return UnknownID(t.Universe)
}
