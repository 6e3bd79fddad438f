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

package cmd

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/shenwei356/geniml/geniml/region"
)

func TestRunDistance(t *testing.T) {
	dir := t.TempDir()
	uni := writeFile(t, dir, "universe.bed", "chr1\t100\t200\nchr1\t300\t400\n")

	in := filepath.Join(dir, "collection")
	if err := os.MkdirAll(filepath.Join(in, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, in, "a.bed", "chr1\t110\t190\n")
	writeFile(t, in, "sub/b.bed", "chr1\t320\t420\n")
	writeFile(t, in, "c.bed", "chr9\t1\t5\n")

	out := filepath.Join(dir, "out")
	opt := &DistanceOptions{
		NumCPUs:      2,
		UniverseFile: uni,
		Dir:          in,
		Files:        []string{"a.bed", "sub/b.bed", "c.bed"},
		OutDir:       out,
		Prefix:       "test",
		SaveEach:     true,
		SaveReport:   true,
	}
	summary, err := RunDistance(opt)
	if err != nil {
		t.Error(err)
		return
	}

	if summary.Used != 2 || summary.NoResult != 1 {
		t.Errorf("expected 2 files with results and 1 without, returned %d and %d",
			summary.Used, summary.NoResult)
	}
	if summary.Mean != 15 {
		t.Errorf("expected mean 15, returned %v", summary.Mean)
	}
	for i, f := range opt.Files {
		if summary.Results[i].File != f {
			t.Errorf("results should be in input order: %s != %s", summary.Results[i].File, f)
		}
	}

	data, err := os.ReadFile(opt.ReportFile())
	if err != nil {
		t.Error(err)
		return
	}
	if string(data) != "file\tmedian_dist\na.bed\t10\nsub/b.bed\t20\n" {
		t.Errorf("unexpected report: %q", data)
	}

	data, err = os.ReadFile(filepath.Join(out, "test", "sub", "b.bed"))
	if err != nil {
		t.Error(err)
		return
	}
	if string(data) != "20\t20\n" {
		t.Errorf("unexpected distances: %q", data)
	}
}

func TestRunDistanceNoResult(t *testing.T) {
	dir := t.TempDir()
	uni := writeFile(t, dir, "universe.bed", "chr1\t100\t200\n")
	writeFile(t, dir, "a.bed", "chr2\t1\t5\n")

	summary, err := RunDistance(&DistanceOptions{
		NumCPUs:      1,
		UniverseFile: uni,
		Dir:          dir,
		Files:        []string{"a.bed"},
	})
	if err != nil {
		t.Error(err)
		return
	}
	if !math.IsNaN(summary.Mean) {
		t.Errorf("NaN expected, returned %v", summary.Mean)
	}
}

func TestRunDistanceUnsortedUniverse(t *testing.T) {
	dir := t.TempDir()
	uni := writeFile(t, dir, "universe.bed", "chr1\t300\t400\nchr1\t100\t200\n")
	writeFile(t, dir, "a.bed", "chr1\t1\t5\n")

	_, err := RunDistance(&DistanceOptions{
		NumCPUs:      1,
		UniverseFile: uni,
		Dir:          dir,
		Files:        []string{"a.bed"},
	})
	var e *region.NotSortedError
	if !errors.As(err, &e) {
		t.Errorf("NotSortedError expected, returned %v", err)
	}
}

func TestRunDistanceBadFile(t *testing.T) {
	dir := t.TempDir()
	uni := writeFile(t, dir, "universe.bed", "chr1\t100\t200\n")
	writeFile(t, dir, "a.bed", "chr1\t110\t190\n")
	writeFile(t, dir, "b.bed", "chr1\t110\n")

	_, err := RunDistance(&DistanceOptions{
		NumCPUs:      2,
		UniverseFile: uni,
		Dir:          dir,
		Files:        []string{"a.bed", "b.bed"},
	})
	var e *BatchError
	if !errors.As(err, &e) {
		t.Errorf("BatchError expected, returned %v", err)
		return
	}
	if len(e.Failed) != 1 || e.Failed[0].File != "b.bed" {
		t.Errorf("unexpected error: %s", e)
	}
}

var regexpBed = regexp.MustCompile(`(?i)\.bed(\.gz)?$`)

func TestGetFileListFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "x"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "b.bed", "")
	writeFile(t, dir, "a.bed.gz", "")
	writeFile(t, dir, "x/c.bed", "")
	writeFile(t, dir, "note.txt", "")

	files, err := getFileListFromDir(dir, regexpBed, 2)
	if err != nil {
		t.Error(err)
		return
	}
	expected := []string{
		"a.bed.gz",
		"b.bed",
		filepath.Join("x", "c.bed"),
	}
	if len(files) != len(expected) {
		t.Errorf("expected %d files, returned %d: %v", len(expected), len(files), files)
		return
	}
	for i := range files {
		if files[i] != expected[i] {
			t.Errorf("expected %s, returned %s", expected[i], files[i])
		}
	}
}

func TestRunDistanceEmptyFile(t *testing.T) {
	dir := t.TempDir()
	uni := writeFile(t, dir, "universe.bed", "chr1\t100\t200\nchr1\t300\t400\n")
	writeFile(t, dir, "a.bed", "chr1\t110\t190\n")
	writeFile(t, dir, "empty.bed", "")

	summary, err := RunDistance(&DistanceOptions{
		NumCPUs:      2,
		UniverseFile: uni,
		Dir:          dir,
		Files:        []string{"a.bed", "empty.bed"},
	})
	if err != nil {
		t.Errorf("an empty file should not fail the batch: %s", err)
		return
	}
	if summary.Used != 1 || summary.NoResult != 1 {
		t.Errorf("expected 1 file with results and 1 without, returned %d and %d",
			summary.Used, summary.NoResult)
	}
	if summary.Mean != 10 {
		t.Errorf("expected mean 10, returned %v", summary.Mean)
	}
}
