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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/geniml/geniml/tokenizer"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// FileFileList is the list of files to tokenize, kept in the output
// directory during tokenization.
const FileFileList = "file_list.txt"

// DirSplits holds the file lists of all workers.
const DirSplits = "splits"

// MinFilesPerWorker is the minimum number of files assigned to a worker.
const MinFilesPerWorker = 20

// TokenizationOptions contains the options of tokenizing files in a directory.
type TokenizationOptions struct {
	// general
	NumCPUs  int // maximum number of workers
	Verbose  bool
	Log2File bool

	SrcDir       string
	DstDir       string
	UniverseFile string
	Files        []string // file names in SrcDir, nil for all files

	// hard tokenization
	BedtoolsPath string
	Fraction     float64

	// tokenize with an in-memory universe instead of bedtools
	InMemory bool
}

// FileError is a failure of processing a file.
type FileError struct {
	File string
	Err  error
}

// BatchError is returned when some files of a batch job failed.
type BatchError struct {
	Failed    []FileError
	Succeeded int
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d file(s) failed, %d succeeded:", len(e.Failed), e.Succeeded)
	for _, fe := range e.Failed {
		fmt.Fprintf(&b, "\n  %s: %s", fe.File, fe.Err)
	}
	return b.String()
}

// HardTokenize tokenizes files of SrcDir into DstDir in parallel.
//
// Files are split into min(ceil(n/20), NumCPUs) contiguous shards. Each worker
// tokenizes its shard into a private directory DstDir/batch_<i>, and outputs
// are moved into DstDir after all workers succeed.
//
// It returns tokenizer.StatusSkipped if DstDir already has all the outputs,
// or tokenizer.StatusIncomplete with an error if DstDir has other files,
// which have to be removed by the user.
func HardTokenize(opt *TokenizationOptions) (tokenizer.Status, error) {
	timeStart := time.Now()

	entries, err := os.ReadDir(opt.SrcDir)
	if err != nil {
		return tokenizer.StatusPending, errors.Wrapf(err, "read source directory")
	}
	all := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			all = append(all, e.Name())
		}
	}
	if len(all) == 0 {
		return tokenizer.StatusPending, fmt.Errorf("no files in %s", opt.SrcDir)
	}

	files := make([]string, 0, len(all))
	if opt.Files == nil {
		files = append(files, all...)
		if opt.Verbose || opt.Log2File {
			log.Infof("using all (%d) files in %s", len(all), opt.SrcDir)
		}
	} else {
		for _, f := range opt.Files {
			if f = strings.TrimSpace(f); f != "" {
				files = append(files, f)
			}
		}
		if opt.Verbose || opt.Log2File {
			log.Infof("%d files in total, using %d of them", len(all), len(files))
		}
	}

	// -------------------------------------------------------------------
	// check existing outputs

	status, err := tokenizer.CheckOutput(opt.DstDir, files)
	switch status {
	case tokenizer.StatusSkipped:
		if opt.Verbose || opt.Log2File {
			log.Infof("skipping tokenization, using the existing tokenized files in %s", opt.DstDir)
		}
		return status, nil
	case tokenizer.StatusIncomplete:
		return status, err
	}
	if err != nil {
		return status, err
	}

	// -------------------------------------------------------------------
	// tokenizer, checked before any work is done

	var tk tokenizer.Tokenizer
	if opt.InMemory {
		if opt.Verbose || opt.Log2File {
			log.Infof("loading universe: %s", opt.UniverseFile)
		}
		tk, err = tokenizer.NewInMemTokenizerFromFile(opt.UniverseFile)
	} else {
		tk, err = tokenizer.NewFileTokenizer(opt.UniverseFile, opt.BedtoolsPath, opt.Fraction)
	}
	if err != nil {
		return tokenizer.StatusPending, err
	}

	err = os.MkdirAll(opt.DstDir, 0755)
	if err != nil {
		return tokenizer.StatusPending, errors.Wrapf(err, "create output directory")
	}

	fileList := filepath.Join(opt.DstDir, FileFileList)
	if err = writeFileList(fileList, files); err != nil {
		return tokenizer.StatusIncomplete, errors.Wrapf(err, "write file list")
	}

	// -------------------------------------------------------------------
	// workers

	nWorkers := (len(files) + MinFilesPerWorker - 1) / MinFilesPerWorker
	if nWorkers > opt.NumCPUs {
		nWorkers = opt.NumCPUs
	}
	if opt.Verbose || opt.Log2File {
		log.Infof("tokenizing %d files with %d worker(s) ...", len(files), max(nWorkers, 1))
	}

	// process bar
	var pbs *mpb.Progress
	var bar *mpb.Bar
	var chDuration chan time.Duration
	var doneDuration chan int
	if opt.Verbose {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(len(files)),
			mpb.PrependDecorators(
				decor.Name("processed files: ", decor.WC{W: len("processed files: "), C: decor.DindentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.EwmaETA(decor.ET_STYLE_GO, 10),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)

		chDuration = make(chan time.Duration, max(opt.NumCPUs, 1))
		doneDuration = make(chan int)
		go func() {
			for t := range chDuration {
				bar.EwmaIncrBy(1, t)
			}
			doneDuration <- 1
		}()
	}
	finishBar := func() {
		if opt.Verbose {
			close(chDuration)
			<-doneDuration
			pbs.Wait()
		}
	}

	var failed []FileError
	if nWorkers <= 1 {
		failed = tokenizeFileList(tk, opt.SrcDir, fileList, opt.DstDir, chDuration)
		finishBar()
		if len(failed) > 0 {
			return tokenizer.StatusIncomplete, &BatchError{Failed: failed, Succeeded: len(files) - len(failed)}
		}
	} else {
		dirSplits := filepath.Join(opt.DstDir, DirSplits)
		err = os.MkdirAll(dirSplits, 0755)
		if err != nil {
			finishBar()
			return tokenizer.StatusIncomplete, errors.Wrapf(err, "create split directory")
		}

		shards := splitFiles(files, nWorkers)
		lists := make([]string, len(shards))
		outDirs := make([]string, len(shards))
		for i, shard := range shards {
			lists[i] = filepath.Join(dirSplits, fmt.Sprintf("split_%d.txt", i))
			outDirs[i] = filepath.Join(opt.DstDir, fmt.Sprintf("batch_%d", i))
			if err = writeFileList(lists[i], shard); err != nil {
				finishBar()
				return tokenizer.StatusIncomplete, errors.Wrapf(err, "write file list of worker %d", i)
			}
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		for i := range shards {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_failed := tokenizeFileList(tk, opt.SrcDir, lists[i], outDirs[i], chDuration)
				if len(_failed) > 0 {
					mu.Lock()
					failed = append(failed, _failed...)
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		finishBar()

		// temporary directories are kept for inspection, and the
		// output directory is not seen as complete in the next run.
		if len(failed) > 0 {
			sort.Slice(failed, func(i, j int) bool { return failed[i].File < failed[j].File })
			return tokenizer.StatusIncomplete, &BatchError{Failed: failed, Succeeded: len(files) - len(failed)}
		}

		// merge
		if err = mergeTokenizedFiles(opt.DstDir, outDirs); err != nil {
			return tokenizer.StatusIncomplete, err
		}
		if err = os.RemoveAll(dirSplits); err != nil {
			return tokenizer.StatusIncomplete, errors.Wrapf(err, "remove split directory")
		}
	}

	if err = os.Remove(fileList); err != nil {
		return tokenizer.StatusIncomplete, errors.Wrapf(err, "remove file list")
	}

	if opt.Verbose || opt.Log2File {
		log.Infof("tokenization complete, %d files tokenized in %s", len(files), time.Since(timeStart))
	}
	return tokenizer.StatusCompleted, nil
}

// tokenizeFileList tokenizes files listed in a file, and returns failed files.
func tokenizeFileList(tk tokenizer.Tokenizer, srcDir, fileList, outDir string,
	chDuration chan time.Duration) []FileError {

	files, err := readFileList(fileList)
	if err != nil {
		return []FileError{{File: fileList, Err: err}}
	}
	if err = os.MkdirAll(outDir, 0755); err != nil {
		return []FileError{{File: outDir, Err: err}}
	}

	var failed []FileError
	var t time.Time
	for _, f := range files {
		t = time.Now()
		err = tk.TokenizeFile(filepath.Join(srcDir, f), filepath.Join(outDir, f))
		if err != nil {
			failed = append(failed, FileError{File: f, Err: err})
		}
		if chDuration != nil {
			chDuration <- time.Since(t)
		}
	}
	return failed
}

// mergeTokenizedFiles moves files of worker directories to dstDir,
// and removes these directories.
func mergeTokenizedFiles(dstDir string, dirs []string) error {
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return errors.Wrapf(err, "read worker directory")
		}
		for _, e := range entries {
			err = os.Rename(filepath.Join(dir, e.Name()), filepath.Join(dstDir, e.Name()))
			if err != nil {
				return errors.Wrapf(err, "move tokenized file")
			}
		}
		if err = os.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, "remove worker directory")
		}
	}
	return nil
}
