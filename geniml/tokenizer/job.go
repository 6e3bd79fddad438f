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
	"fmt"
	"os"
	"strings"
)

// Status is the outcome of a file tokenization job.
type Status int

const (
	// StatusPending means the output directory is empty or absent,
	// and the job has to be done.
	StatusPending Status = iota
	// StatusSkipped means all outputs exist, nothing was done.
	StatusSkipped
	// StatusIncomplete means the output directory has a partial or
	// conflicting set of files, which should be removed by the user.
	StatusIncomplete
	// StatusCompleted means the job finished in this run.
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSkipped:
		return "skipped, already complete"
	case StatusIncomplete:
		return "incomplete output, please clean up"
	case StatusCompleted:
		return "completed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IncompleteOutputError means the output directory has some files which
// are not exactly the expected outputs.
type IncompleteOutputError struct {
	Dir      string
	Expected int
	Existing int
	Missing  []string // up to 10 missing files for reporting
}

func (e *IncompleteOutputError) Error() string {
	var more string
	if len(e.Missing) > 0 {
		more = ", missing: " + strings.Join(e.Missing, ", ")
	}
	return fmt.Sprintf("directory %s exists with incomplete tokenized files (%d existing, %d expected%s), please empty/delete it first",
		e.Dir, e.Existing, e.Expected, more)
}

// CheckOutput checks the output directory of a job which writes one file
// per input file with the same base name. It returns:
//
//	StatusPending     when the directory is absent or empty,
//	StatusSkipped     when it contains exactly the expected files,
//	StatusIncomplete  with an *IncompleteOutputError otherwise.
func CheckOutput(dir string, files []string) (Status, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusPending, nil
		}
		return StatusPending, err
	}
	if len(entries) == 0 {
		return StatusPending, nil
	}

	existing := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		existing[e.Name()] = struct{}{}
	}

	expected := make(map[string]interface{}, len(files))
	missing := make([]string, 0, 10)
	var ok bool
	for _, f := range files {
		f = strings.TrimSpace(f)
		expected[f] = struct{}{}
		if _, ok = existing[f]; !ok && len(missing) < 10 {
			missing = append(missing, f)
		}
	}

	if len(missing) == 0 && len(existing) == len(expected) {
		return StatusSkipped, nil
	}
	return StatusIncomplete, &IncompleteOutputError{
		Dir:      dir,
		Expected: len(expected),
		Existing: len(existing),
		Missing:  missing,
	}
}
