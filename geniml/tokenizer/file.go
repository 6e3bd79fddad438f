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
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shenwei356/geniml/geniml/region"
	"github.com/shenwei356/xopen"
)

// DefaultBedtools is the default bedtools executable, searched in PATH.
const DefaultBedtools = "bedtools"

// DefaultFraction is the default minimum overlap fraction of a universe
// region, i.e., any overlap.
const DefaultFraction = 1e-9

// SortedFileExt is the extension of temporary sorted input files.
const SortedFileExt = ".sorted.tmp"

// ToolNotFoundError means the external interval tool is missing or broken.
type ToolNotFoundError struct {
	Path string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("no usable executable found: %s: %s", e.Path, e.Err)
}

func (e *ToolNotFoundError) Unwrap() error { return e.Err }

// CheckTool checks if a tool is executable by running "<tool> --version".
func CheckTool(path string) error {
	if err := exec.Command(path, "--version").Run(); err != nil {
		return &ToolNotFoundError{Path: path, Err: err}
	}
	return nil
}

// FileTokenizer tokenizes BED files with "bedtools intersect", the output
// contains universe regions overlapping with any of the input regions.
type FileTokenizer struct {
	UniverseFile string
	ToolPath     string
	Fraction     float64 // minimum overlap fraction of universe regions

	vocabOnce sync.Once
	vocab     *Vocab
	vocabErr  error
}

// NewFileTokenizer checks the tool and returns a FileTokenizer.
func NewFileTokenizer(universeFile string, toolPath string, fraction float64) (*FileTokenizer, error) {
	if toolPath == "" {
		toolPath = DefaultBedtools
	}
	if fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("invalid overlap fraction: %v, valid range: (0, 1]", fraction)
	}
	if err := CheckTool(toolPath); err != nil {
		return nil, err
	}
	return &FileTokenizer{
		UniverseFile: universeFile,
		ToolPath:     toolPath,
		Fraction:     fraction,
	}, nil
}

// TokenizeFile sorts src into a temporary file next to dst,
// intersects the universe with it, and writes the result to dst.
func (t *FileTokenizer) TokenizeFile(src, dst string) error {
	regions, err := region.NewRegionSet(src, false)
	if err != nil {
		return err
	}
	rs, err := regions.Regions()
	if err != nil {
		return err
	}
	region.SortRegions(rs)

	tmp := dst + SortedFileExt
	if err = writeRegions(tmp, rs); err != nil {
		return err
	}
	defer os.Remove(tmp)

	outfh, err := xopen.Wopen(dst)
	if err != nil {
		return errors.Wrapf(err, "write tokens: %s", dst)
	}
	bw := bufio.NewWriter(outfh)

	var stderr bytes.Buffer
	cmd := exec.Command(t.ToolPath, "intersect",
		"-a", t.UniverseFile,
		"-b", tmp,
		"-u",
		"-f", strconv.FormatFloat(t.Fraction, 'g', -1, 64))
	cmd.Stdout = bw
	cmd.Stderr = &stderr
	err = cmd.Run()
	if err != nil {
		outfh.Close()
		return errors.Wrapf(err, "%s intersect on %s: %s", t.ToolPath, src,
			strings.TrimSpace(stderr.String()))
	}

	if err = bw.Flush(); err != nil {
		outfh.Close()
		return errors.Wrapf(err, "write tokens: %s", dst)
	}
	return outfh.Close()
}

// ConvertTokensToIDs maps tokens to ranks in the universe file.
// The vocabulary is read at the first call.
func (t *FileTokenizer) ConvertTokensToIDs(tokens []*region.Region) ([]int, error) {
	t.vocabOnce.Do(func() {
		t.vocab, t.vocabErr = ReadVocab(t.UniverseFile)
	})
	if t.vocabErr != nil {
		return nil, t.vocabErr
	}
	return convertTokensToIDs(t.vocab, tokens), nil
}
