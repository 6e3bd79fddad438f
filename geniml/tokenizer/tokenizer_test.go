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
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/shenwei356/geniml/geniml/region"
	"github.com/shenwei356/geniml/geniml/universe"
)

// a minimal "bedtools intersect -a A -b B -u -f F" for tests
var fakeBedtools = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "bedtools v2.31.1"
  exit 0
fi
if [ "$1" != "intersect" ]; then
  exit 1
fi
awk -F '\t' 'FILENAME == ARGV[1] { c[++n] = $1; s[n] = $2 + 0; e[n] = $3 + 0; next }
{ for (i = 1; i <= n; i++) if (c[i] == $1 && s[i] < $3 + 0 && $2 + 0 < e[i]) { print; break } }' "$5" "$3"
`

func installFakeBedtools(t *testing.T, script string) string {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported")
	}
	if _, err := exec.LookPath("awk"); err != nil {
		t.Skip("awk is not available")
	}
	file := filepath.Join(t.TempDir(), "bedtools")
	if err := os.WriteFile(file, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return file
}

func writeFile(t *testing.T, dir, name, content string) string {
	file := filepath.Join(dir, name)
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

const _universe = "chr1\t100\t200\nchr1\t300\t400\nchr1\t500\t600\nchr2\t10\t50\n"

const _query = "chr1\t120\t150\nchr1\t250\t260\nchr1\t550\t560\nchr2\t20\t30\nchr3\t1\t5\n"

func TestTokenize(t *testing.T) {
	dir := t.TempDir()
	tk, err := NewInMemTokenizerFromFile(writeFile(t, dir, "universe.bed", _universe))
	if err != nil {
		t.Error(err)
		return
	}

	rs, err := region.NewRegionSet(writeFile(t, dir, "query.bed", _query), true)
	if err != nil {
		t.Error(err)
		return
	}

	tokens, err := tk.Tokenize(rs)
	if err != nil {
		t.Error(err)
		return
	}
	if len(tokens) != rs.Len() {
		t.Errorf("expected %d tokens, returned %d", rs.Len(), len(tokens))
		return
	}
	expected := []string{"chr1_100_200", "", "chr1_500_600", "chr2_10_50", ""}
	for i, tok := range tokens {
		if expected[i] == "" {
			if tok != nil {
				t.Errorf("#%d: expected no token, returned %s", i, tok)
			}
			continue
		}
		if tok == nil || tok.ID() != expected[i] {
			t.Errorf("#%d: expected %s, returned %v", i, expected[i], tok)
		}
	}

	ids, err := tk.ConvertTokensToIDs(tokens)
	if err != nil {
		t.Error(err)
		return
	}
	expectedIDs := []int{0, 4, 2, 3, 4}
	for i, id := range ids {
		if id != expectedIDs[i] {
			t.Errorf("#%d: expected id %d, returned %d", i, expectedIDs[i], id)
		}
	}
	if tk.UnknownID() != 4 {
		t.Errorf("unexpected unknown id: %d", tk.UnknownID())
	}
}

func TestTokenizeAllPositional(t *testing.T) {
	u, err := universe.New(region.Regions{
		{Chr: "chr1", Start: 100, End: 200},
		{Chr: "chr1", Start: 150, End: 250},
	})
	if err != nil {
		t.Error(err)
		return
	}
	tk := NewInMemTokenizer(u)

	queries := region.Regions{
		{Chr: "chr9", Start: 0, End: 10},
		{Chr: "chr1", Start: 160, End: 170},
		{Chr: "chr1", Start: 0, End: 10},
		{Chr: "chr1", Start: 220, End: 230},
	}
	tokens, err := tk.TokenizeAll(queries)
	if err != nil {
		t.Error(err)
		return
	}
	if len(tokens) != len(queries) {
		t.Errorf("expected %d groups, returned %d", len(queries), len(tokens))
		return
	}
	sizes := []int{0, 2, 0, 1}
	for i, group := range tokens {
		if len(group) != sizes[i] {
			t.Errorf("#%d: expected %d tokens, returned %d", i, sizes[i], len(group))
		}
	}
}

func TestVocab(t *testing.T) {
	v := NewVocab([]region.Region{
		{Chr: "chr1", Start: 1, End: 2},
		{Chr: "chr1", Start: 1, End: 2},
		{Chr: "chr2", Start: 1, End: 2},
	})
	if v.Len() != 2 {
		t.Errorf("expected 2 regions, returned %d", v.Len())
	}
	r, ok := v.Region(1)
	if !ok || r.Chr != "chr2" {
		t.Errorf("unexpected region: %v", r)
	}
	ids := convertTokensToIDs(v, []*region.Region{nil, &region.Region{Chr: "chr3", Start: 1, End: 2}, &r})
	if ids[0] != 2 || ids[1] != 2 || ids[2] != 1 {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestCheckTool(t *testing.T) {
	var tnf *ToolNotFoundError
	err := CheckTool(filepath.Join(t.TempDir(), "no-such-tool"))
	if !errors.As(err, &tnf) {
		t.Errorf("expected a ToolNotFoundError, got: %v", err)
	}

	tool := installFakeBedtools(t, "#!/bin/sh\nexit 1\n")
	_, err = NewFileTokenizer("universe.bed", tool, DefaultFraction)
	if !errors.As(err, &tnf) {
		t.Errorf("expected a ToolNotFoundError, got: %v", err)
	}
}

func TestFirstMatchByStart(t *testing.T) {
	dir := t.TempDir()
	tk, err := NewInMemTokenizerFromFile(writeFile(t, dir, "universe.bed",
		"chr1\t150\t300\nchr1\t100\t200\n"))
	if err != nil {
		t.Error(err)
		return
	}

	tokens, err := tk.Tokenize(region.Regions{{Chr: "chr1", Start: 160, End: 170}})
	if err != nil {
		t.Error(err)
		return
	}
	if tokens[0] == nil || tokens[0].ID() != "chr1_100_200" {
		t.Errorf("expected the overlapping region with the smallest start, returned %v", tokens[0])
	}
}

func TestFileTokenizerInput(t *testing.T) {
	tool := installFakeBedtools(t, fakeBedtools)
	dir := t.TempDir()
	fileUniverse := writeFile(t, dir, "universe.bed", _universe)

	ft, err := NewFileTokenizer(fileUniverse, tool, DefaultFraction)
	if err != nil {
		t.Error(err)
		return
	}

	bad := writeFile(t, dir, "bad.bed", "chr1\t100\t200\nchr1\tx\t5\n")
	err = ft.TokenizeFile(bad, filepath.Join(dir, "bad.out"))
	var e *region.FormatError
	if !errors.As(err, &e) || e.Line != 2 {
		t.Errorf("FormatError at line 2 expected, returned %v", err)
	}

	empty := writeFile(t, dir, "empty.bed", "")
	out := filepath.Join(dir, "empty.out")
	if err = ft.TokenizeFile(empty, out); err != nil {
		t.Error(err)
		return
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Error(err)
		return
	}
	if len(data) != 0 {
		t.Errorf("no tokens expected for an empty file, returned %q", data)
	}
}

func TestFileModeMatchesInMemMode(t *testing.T) {
	tool := installFakeBedtools(t, fakeBedtools)
	dir := t.TempDir()
	fileUniverse := writeFile(t, dir, "universe.bed", _universe)
	fileQuery := writeFile(t, dir, "query.bed", _query)

	ft, err := NewFileTokenizer(fileUniverse, tool, DefaultFraction)
	if err != nil {
		t.Error(err)
		return
	}
	mt, err := NewInMemTokenizerFromFile(fileUniverse)
	if err != nil {
		t.Error(err)
		return
	}

	out1 := filepath.Join(dir, "file.bed")
	out2 := filepath.Join(dir, "mem.bed")
	for _, job := range []struct {
		tk  Tokenizer
		out string
	}{{ft, out1}, {mt, out2}} {
		if err = job.tk.TokenizeFile(fileQuery, job.out); err != nil {
			t.Error(err)
			return
		}
	}
	if _, err = os.Stat(out1 + SortedFileExt); !os.IsNotExist(err) {
		t.Errorf("temporary sorted file should be removed")
	}

	data1, err := os.ReadFile(out1)
	if err != nil {
		t.Error(err)
		return
	}
	data2, err := os.ReadFile(out2)
	if err != nil {
		t.Error(err)
		return
	}
	expected := "chr1\t100\t200\nchr1\t500\t600\nchr2\t10\t50\n"
	if string(data1) != expected {
		t.Errorf("file mode, expected:\n%s\nreturned:\n%s", expected, data1)
	}
	if string(data2) != expected {
		t.Errorf("in-memory mode, expected:\n%s\nreturned:\n%s", expected, data2)
	}

	// ids of file-mode tokens
	var tokens []*region.Region
	for _, line := range strings.Split(strings.TrimSpace(string(data1)), "\n") {
		r, err := region.ParseRegion(line)
		if err != nil {
			t.Error(err)
			return
		}
		tokens = append(tokens, &r)
	}
	ids1, err := ft.ConvertTokensToIDs(tokens)
	if err != nil {
		t.Error(err)
		return
	}
	ids2, _ := mt.ConvertTokensToIDs(tokens)
	for i := range ids1 {
		if ids1[i] != ids2[i] {
			t.Errorf("#%d: unequal ids: %d vs %d", i, ids1[i], ids2[i])
		}
	}
}

func TestCheckOutput(t *testing.T) {
	files := []string{"a.bed", "b.bed", "c.bed"}

	dir := filepath.Join(t.TempDir(), "tokens")
	status, err := CheckOutput(dir, files)
	if err != nil || status != StatusPending {
		t.Errorf("absent dir: unexpected status: %s, %v", status, err)
	}

	if err = os.MkdirAll(dir, 0755); err != nil {
		t.Error(err)
		return
	}
	status, err = CheckOutput(dir, files)
	if err != nil || status != StatusPending {
		t.Errorf("empty dir: unexpected status: %s, %v", status, err)
	}

	writeFile(t, dir, "a.bed", "")
	status, err = CheckOutput(dir, files)
	var ioe *IncompleteOutputError
	if status != StatusIncomplete || !errors.As(err, &ioe) {
		t.Errorf("partial dir: unexpected status: %s, %v", status, err)
	} else if len(ioe.Missing) != 2 {
		t.Errorf("expected 2 missing files, returned %d", len(ioe.Missing))
	}

	writeFile(t, dir, "b.bed", "")
	writeFile(t, dir, "c.bed", "")
	status, err = CheckOutput(dir, files)
	if err != nil || status != StatusSkipped {
		t.Errorf("complete dir: unexpected status: %s, %v", status, err)
	}

	writeFile(t, dir, "d.bed", "")
	status, err = CheckOutput(dir, files)
	if status != StatusIncomplete || !errors.As(err, &ioe) {
		t.Errorf("dir with extra files: unexpected status: %s, %v", status, err)
	}
}
