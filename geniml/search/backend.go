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

// Package search defines the storage interface of region-set embeddings,
// with an in-memory brute-force backend.
package search

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Result is a stored vector with its payload.
// Score is only set for search results.
type Result struct {
	ID      int
	Score   float64
	Payload map[string]string
	Vector  []float64
}

// Backend stores embedding vectors with payloads and searches them.
type Backend interface {
	// Load appends vectors and their payloads.
	Load(vectors [][]float64, payloads []map[string]string) error
	// Search returns the k nearest vectors, most similar first.
	Search(query []float64, k int) ([]Result, error)
	// RetrieveInfo returns stored items by ids, in the order of ids.
	RetrieveInfo(ids ...int) ([]Result, error)
	// Len returns the number of stored vectors.
	Len() int
}

// MemoryBackend keeps all vectors in memory and ranks by cosine similarity.
type MemoryBackend struct {
	mu sync.RWMutex

	dim      int
	vectors  [][]float64
	norms    []float64
	payloads []map[string]string
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load appends vectors. IDs continue from the current size.
func (b *MemoryBackend) Load(vectors [][]float64, payloads []map[string]string) error {
	if len(vectors) != len(payloads) {
		return fmt.Errorf("unequal numbers of vectors (%d) and payloads (%d)", len(vectors), len(payloads))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	dim := b.dim
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("empty vector #%d", i)
		}
		if dim == 0 {
			dim = len(v)
		} else if len(v) != dim {
			return fmt.Errorf("vector #%d has a dimension of %d, %d expected", i, len(v), dim)
		}
	}
	b.dim = dim

	for i, v := range vectors {
		vec := make([]float64, len(v))
		copy(vec, v)
		b.vectors = append(b.vectors, vec)
		b.norms = append(b.norms, floats.Norm(vec, 2))
		b.payloads = append(b.payloads, payloads[i])
	}
	return nil
}

// Search ranks all vectors by cosine similarity with the query.
func (b *MemoryBackend) Search(query []float64, k int) ([]Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.vectors) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != b.dim {
		return nil, fmt.Errorf("query has a dimension of %d, %d expected", len(query), b.dim)
	}

	qnorm := floats.Norm(query, 2)
	results := make([]Result, len(b.vectors))
	var s float64
	for i, v := range b.vectors {
		s = 0
		if qnorm > 0 && b.norms[i] > 0 {
			s = floats.Dot(query, v) / (qnorm * b.norms[i])
		}
		results[i] = Result{ID: i, Score: s, Payload: b.payloads[i], Vector: v}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// RetrieveInfo returns stored vectors and payloads.
func (b *MemoryBackend) RetrieveInfo(ids ...int) ([]Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if id < 0 || id >= len(b.vectors) {
			return nil, fmt.Errorf("id not found: %d", id)
		}
		results = append(results, Result{ID: id, Payload: b.payloads[id], Vector: b.vectors[id]})
	}
	return results, nil
}

// Len returns the number of stored vectors.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.vectors)
}

func (b *MemoryBackend) String() string {
	return fmt.Sprintf("MemoryBackend with %d items", b.Len())
}
