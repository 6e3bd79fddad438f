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

// Package tokenizer converts region sets into universe tokens, either with
// an in-memory interval index or with bedtools ("hard tokenization").
package tokenizer

import (
	"bufio"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shenwei356/geniml/geniml/region"
	"github.com/shenwei356/xopen"
)

// Tokenizer is the common interface of in-memory and file tokenizers.
type Tokenizer interface {
	// TokenizeFile tokenizes a BED file and writes the matched universe
	// regions to dst.
	TokenizeFile(src, dst string) error

	// ConvertTokensToIDs maps tokens to vocabulary ranks.
	// Nil tokens and regions absent from the vocabulary get UnknownID.
	ConvertTokensToIDs(tokens []*region.Region) ([]int, error)
}

// Vocabulary maps universe regions to ranks.
type Vocabulary interface {
	Len() int
	ID(r region.Region) (int, bool)
}

// UnknownID returns the id reserved for unknown tokens,
// which is the slot right after the last region of the vocabulary.
func UnknownID(v Vocabulary) int {
	return v.Len()
}

// convertTokensToIDs is shared by all tokenizers.
func convertTokensToIDs(v Vocabulary, tokens []*region.Region) []int {
	ids := make([]int, len(tokens))
	unk := UnknownID(v)
	var id int
	var ok bool
	for i, t := range tokens {
		if t == nil {
			ids[i] = unk
			continue
		}
		if id, ok = v.ID(*t); !ok {
			id = unk
		}
		ids[i] = id
	}
	return ids
}

// Vocab is a vocabulary read from a universe file, without an interval index.
type Vocab struct {
	regions []region.Region
	ids     map[region.Region]int
}

// NewVocab creates a vocabulary from regions, keeping the first occurrence
// of duplicated ones.
func NewVocab(regions []region.Region) *Vocab {
	v := &Vocab{
		regions: make([]region.Region, 0, len(regions)),
		ids:     make(map[region.Region]int, len(regions)),
	}
	for _, r := range regions {
		v.add(r)
	}
	return v
}

// ReadVocab reads a vocabulary from a universe file.
func ReadVocab(file string) (*Vocab, error) {
	v := &Vocab{
		regions: make([]region.Region, 0, 1024),
		ids:     make(map[region.Region]int, 1024),
	}
	err := region.ReadFile(file, func(r region.Region) error {
		v.add(r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vocab) add(r region.Region) {
	key := r.Key()
	if _, ok := v.ids[key]; ok {
		return
	}
	v.ids[key] = len(v.regions)
	v.regions = append(v.regions, key)
}

// Len returns the vocabulary size, excluding the unknown token.
func (v *Vocab) Len() int { return len(v.regions) }

// ID returns the rank of a region.
func (v *Vocab) ID(r region.Region) (int, bool) {
	id, ok := v.ids[r.Key()]
	return id, ok
}

// Region returns the region of a rank.
func (v *Vocab) Region(id int) (region.Region, bool) {
	if id < 0 || id >= len(v.regions) {
		return region.Region{}, false
	}
	return v.regions[id], true
}

// writeRegions writes regions in BED3 format, compressed according to
// the file extension.
func writeRegions(file string, regions []region.Region) error {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrapf(err, "write tokens: %s", file)
	}
	bw := bufio.NewWriter(outfh)
	for _, r := range regions {
		fmt.Fprintf(bw, "%s\t%d\t%d\n", r.Chr, r.Start, r.End)
	}
	if err = bw.Flush(); err != nil {
		outfh.Close()
		return errors.Wrapf(err, "write tokens: %s", file)
	}
	return outfh.Close()
}
