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

package universe

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/shenwei356/geniml/geniml/region"
)

var _regions = region.Regions{
	{Chr: "chr1", Start: 100, End: 200},
	{Chr: "chr1", Start: 150, End: 250},
	{Chr: "chr1", Start: 300, End: 400},
	{Chr: "chr1", Start: 100, End: 200}, // duplicated
	{Chr: "chr2", Start: 0, End: 50},
	{Chr: "chrX", Start: 1000, End: 1001},
}

func TestBuildAndLen(t *testing.T) {
	u, err := New(_regions)
	if err != nil {
		t.Error(err)
		return
	}
	if u.Len() != 5 {
		t.Errorf("expected 5 regions, returned %d", u.Len())
	}
	if len(u.Chromosomes()) != 3 {
		t.Errorf("expected 3 chromosomes, returned %d", len(u.Chromosomes()))
	}

	id, ok := u.ID(region.Region{Chr: "chr1", Start: 300, End: 400, Label: "x"})
	if !ok || id != 2 {
		t.Errorf("unexpected id: %d, %v", id, ok)
	}
	id, ok = u.ID(region.Region{Chr: "chr2", Start: 0, End: 50})
	if !ok || id != 3 {
		t.Errorf("unexpected id: %d, %v", id, ok)
	}

	// rebuilding replaces the index
	err = u.Build(region.Regions{{Chr: "chr3", Start: 1, End: 2}})
	if err != nil {
		t.Error(err)
		return
	}
	if u.Len() != 1 || u.Contains(region.Region{Chr: "chr1", Start: 100, End: 200}) {
		t.Errorf("old index should be replaced")
	}
}

func TestBuildFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "universe.bed")
	err := os.WriteFile(file, []byte("chr1\t100\t200\nchr1\t300\t400\nchr2\t1\t10\n"), 0644)
	if err != nil {
		t.Error(err)
		return
	}
	u, err := NewFromFile(file)
	if err != nil {
		t.Error(err)
		return
	}
	if u.Len() != 3 {
		t.Errorf("expected 3 regions, returned %d", u.Len())
	}

	err = os.WriteFile(file, []byte("chr1\t100\t200\nchr1\tabc\t400\n"), 0644)
	if err != nil {
		t.Error(err)
		return
	}
	_, err = NewFromFile(file)
	var fe *region.FormatError
	if !errors.As(err, &fe) {
		t.Errorf("expected a FormatError, got: %v", err)
	}

	_, err = New(region.Regions{{Chr: "chr1", Start: 5, End: 5}})
	if !errors.As(err, &fe) {
		t.Errorf("expected a FormatError for an empty interval, got: %v", err)
	}
}

func TestQuery(t *testing.T) {
	u, err := New(_regions)
	if err != nil {
		t.Error(err)
		return
	}

	tests := []struct {
		q    region.Region
		hits int
	}{
		{region.Region{Chr: "chr1", Start: 160, End: 170}, 2},
		{region.Region{Chr: "chr1", Start: 200, End: 300}, 1}, // touches 100-200 and 300-400 only at the ends
		{region.Region{Chr: "chr1", Start: 250, End: 300}, 0},
		{region.Region{Chr: "chr1", Start: 0, End: 1000}, 3},
		{region.Region{Chr: "chr1", Start: 399, End: 400}, 1},
		{region.Region{Chr: "chr1", Start: 160, End: 160}, 0},
		{region.Region{Chr: "chr9", Start: 0, End: 1000}, 0},
		{region.Region{Chr: "chrX", Start: 1000, End: 1001}, 1},
	}
	for _, test := range tests {
		hits := u.Overlaps(test.q)
		if len(hits) != test.hits {
			t.Errorf("query %s: expected %d hits, returned %d: %v", test.q, test.hits, len(hits), hits)
		}
		for _, h := range hits {
			if !h.Overlap(test.q) {
				t.Errorf("query %s: %s does not overlap", test.q, h)
			}
		}
		if u.Contains(test.q) != (test.hits > 0) {
			t.Errorf("query %s: unexpected Contains result", test.q)
		}
	}

	qs := make([]region.Region, len(tests))
	for i, test := range tests {
		qs[i] = test.q
	}
	groups := u.QueryEach(qs...)
	if len(groups) != len(qs) {
		t.Errorf("expected %d groups, returned %d", len(qs), len(groups))
	}
	if len(u.Query(qs...)) != 8 {
		t.Errorf("expected 8 hits in total, returned %d", len(u.Query(qs...)))
	}
}

func TestContainment(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	regions := make(region.Regions, 0, 1000)
	var start int
	for i := 0; i < 1000; i++ {
		start += r.Intn(1000) + 1
		regions = append(regions, region.Region{Chr: "chr1", Start: start, End: start + r.Intn(500) + 1})
	}
	u, err := New(regions)
	if err != nil {
		t.Error(err)
		return
	}

	for _, q := range regions {
		if !u.Contains(q) {
			t.Errorf("inserted region %s not found", q)
			return
		}
	}

	end := regions[len(regions)-1].End + 1000
	if u.Contains(region.Region{Chr: "chr1", Start: end, End: end + 10}) {
		t.Errorf("region outside of all intervals should not be found")
	}
	if u.Contains(region.Region{Chr: "chr2", Start: regions[0].Start, End: regions[0].End}) {
		t.Errorf("region on another chromosome should not be found")
	}
}
