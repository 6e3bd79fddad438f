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

package search

import (
	"testing"
)

func TestMemoryBackend(t *testing.T) {
	var b Backend = NewMemoryBackend()

	err := b.Load(
		[][]float64{{1, 0}, {0, 1}, {1, 1}},
		[]map[string]string{{"name": "x"}, {"name": "y"}, {"name": "xy"}},
	)
	if err != nil {
		t.Error(err)
		return
	}
	err = b.Load([][]float64{{-1, 0}}, []map[string]string{{"name": "-x"}})
	if err != nil {
		t.Error(err)
		return
	}
	if b.Len() != 4 {
		t.Errorf("expected 4 vectors, returned %d", b.Len())
	}

	results, err := b.Search([]float64{2, 0.1}, 2)
	if err != nil {
		t.Error(err)
		return
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, returned %d", len(results))
		return
	}
	if results[0].Payload["name"] != "x" || results[1].Payload["name"] != "xy" {
		t.Errorf("unexpected ranking: %s, %s", results[0].Payload["name"], results[1].Payload["name"])
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results should be sorted by score")
	}

	infos, err := b.RetrieveInfo(3, 1)
	if err != nil {
		t.Error(err)
		return
	}
	if infos[0].ID != 3 || infos[0].Payload["name"] != "-x" || infos[1].Payload["name"] != "y" {
		t.Errorf("unexpected items: %v", infos)
	}

	if _, err = b.RetrieveInfo(10); err == nil {
		t.Errorf("error expected for an unknown id")
	}
	if err = b.Load([][]float64{{1, 2, 3}}, []map[string]string{{}}); err == nil {
		t.Errorf("error expected for a vector of another dimension")
	}
	if err = b.Load([][]float64{{1, 2}}, nil); err == nil {
		t.Errorf("error expected for missing payloads")
	}
}
