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

package assess

import (
	"github.com/shenwei356/geniml/geniml/region"
)

// windowSize is the number of reference positions kept around a query.
const windowSize = 3

// cursor walks a sorted reference file along a sorted query stream,
// keeping at most three consecutive reference positions of the current
// chromosome, and one lookahead record across chromosome boundaries.
type cursor struct {
	ref  *recordReader
	dist distFunc

	chr     string
	started bool

	window [windowSize]span
	n      int

	pending    record
	hasPending bool

	chrDone bool // no more reference records of chr
	waiting bool // chr is absent in the reference, skip its queries

	dists []int
}

func newCursor(file string, cols [2]int, fn distFunc) (*cursor, error) {
	rdr, err := newRecordReader(file, cols, cols)
	if err != nil {
		return nil, err
	}
	return &cursor{
		ref:   rdr,
		dist:  fn,
		dists: make([]int, 0, 1024),
	}, nil
}

func (c *cursor) close() error {
	return c.ref.close()
}

// peek returns the next reference record without consuming it.
func (c *cursor) peek() (record, bool, error) {
	if c.hasPending {
		return c.pending, true, nil
	}
	rec, ok, err := c.ref.next()
	if err != nil || !ok {
		return rec, false, err
	}
	c.pending = rec
	c.hasPending = true
	return rec, true, nil
}

// process computes the distance of a query position to the nearest reference
// position, and records it unless the chromosome is absent in the reference.
func (c *cursor) process(chr string, q span) error {
	if !c.started || chr != c.chr {
		c.started = true
		if err := c.switchChr(chr); err != nil {
			return err
		}
	}
	if c.waiting {
		return nil
	}

	d, err := c.nearest(q)
	if err != nil {
		return err
	}
	c.dists = append(c.dists, d)
	return nil
}

// switchChr drops the window, skips reference records of chromosomes
// before chr, and fills the window with up to three records of chr.
func (c *cursor) switchChr(chr string) error {
	c.chr = chr
	c.n = 0
	c.chrDone = false
	c.waiting = true

	var rec record
	var ok bool
	var err error
	for {
		rec, ok, err = c.peek()
		if err != nil {
			return err
		}
		if !ok {
			c.chrDone = true
			return nil
		}
		if rec.chr == chr {
			break
		}
		if region.CompareChr(rec.chr, chr) > 0 { // the reference has passed chr
			c.chrDone = true
			return nil
		}
		c.hasPending = false
	}

	for c.n < windowSize {
		rec, ok, err = c.peek()
		if err != nil {
			return err
		}
		if !ok || rec.chr != chr {
			c.chrDone = true
			break
		}
		c.window[c.n] = rec.pos
		c.n++
		c.hasPending = false
	}

	c.waiting = c.n == 0
	return nil
}

// nearest returns the minimum distance from q to the window. While the
// last position is one of the closest, the window slides forward by one.
func (c *cursor) nearest(q span) (int, error) {
	var dists [windowSize]int
	i := c.argmin(q, &dists)

	var rec record
	var ok bool
	var err error
	for c.n == windowSize && dists[windowSize-1] == dists[i] && !c.chrDone {
		rec, ok, err = c.peek()
		if err != nil {
			return 0, err
		}
		if !ok || rec.chr != c.chr {
			c.chrDone = true
			break
		}
		c.hasPending = false

		copy(c.window[:], c.window[1:])
		c.window[windowSize-1] = rec.pos
		i = c.argmin(q, &dists)
	}
	return dists[i], nil
}

// argmin returns the index of the first minimum distance in the window.
func (c *cursor) argmin(q span, dists *[windowSize]int) int {
	var m int
	for j := 0; j < c.n; j++ {
		dists[j] = c.dist(c.window[j], q)
		if dists[j] < dists[m] {
			m = j
		}
	}
	return m
}
