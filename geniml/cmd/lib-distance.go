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
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/geniml/geniml/assess"
	"github.com/shenwei356/geniml/geniml/region"
	"github.com/shenwei356/xopen"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"gonum.org/v1/gonum/stat"
)

// DistanceOptions contains the options of assessing a universe with
// distances to a collection of region files.
type DistanceOptions struct {
	// general
	NumCPUs  int
	Verbose  bool
	Log2File bool

	UniverseFile string
	Dir          string   // directory of the collection
	Files        []string // file paths relative to Dir

	Flexible       bool
	UniverseToFile bool

	OutDir     string
	Prefix     string
	SaveEach   bool // save raw distances to OutDir/Prefix/<file>
	SaveReport bool // save medians to OutDir/<Prefix>_data.tsv
}

// DistanceSummary is the aggregated result of a collection.
type DistanceSummary struct {
	Results []*assess.Result // in the order of input files

	// Mean of medians of files with results, NaN if none.
	Mean float64

	Used     int // number of files with results
	NoResult int // number of files without comparable chromosomes
}

// ReportFile returns the path of the report file.
func (opt *DistanceOptions) ReportFile() string {
	return filepath.Join(opt.OutDir, opt.Prefix+"_data.tsv")
}

// RunDistance computes distances between the universe and each file in parallel.
func RunDistance(opt *DistanceOptions) (*DistanceSummary, error) {
	timeStart := time.Now()

	if len(opt.Files) == 0 {
		return nil, fmt.Errorf("no files given")
	}
	if opt.Prefix == "" {
		opt.Prefix = "distance"
	}

	if err := region.CheckSorted(opt.UniverseFile); err != nil {
		return nil, errors.Wrapf(err, "universe should be sorted")
	}

	if opt.Verbose || opt.Log2File {
		log.Infof("computing distances of %d files (flexible: %v, universe to file: %v) ...",
			len(opt.Files), opt.Flexible, opt.UniverseToFile)
	}

	// process bar
	var pbs *mpb.Progress
	var bar *mpb.Bar
	var chDuration chan time.Duration
	var doneDuration chan int
	if opt.Verbose {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(len(opt.Files)),
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

		chDuration = make(chan time.Duration, opt.NumCPUs)
		doneDuration = make(chan int)
		go func() {
			for t := range chDuration {
				bar.EwmaIncrBy(1, t)
			}
			doneDuration <- 1
		}()
	}

	aopt := &assess.Options{Flexible: opt.Flexible, UniverseToFile: opt.UniverseToFile}
	results := make([]*assess.Result, len(opt.Files))
	errs := make([]error, len(opt.Files))

	var wg sync.WaitGroup
	tokens := make(chan int, max(opt.NumCPUs, 1))
	for i, file := range opt.Files {
		tokens <- 1
		wg.Add(1)
		go func(i int, file string) {
			defer func() {
				wg.Done()
				<-tokens
			}()
			t := time.Now()

			res, err := assess.CalcDistance(opt.UniverseFile, filepath.Join(opt.Dir, file), aopt)
			if err == nil {
				res.File = file
				if opt.SaveEach {
					err = saveDistances(filepath.Join(opt.OutDir, opt.Prefix), res)
				}
			}
			results[i], errs[i] = res, err

			if opt.Verbose {
				chDuration <- time.Since(t)
			}
		}(i, file)
	}
	wg.Wait()

	if opt.Verbose {
		close(chDuration)
		<-doneDuration
		pbs.Wait()
	}

	var failed []FileError
	for i, err := range errs {
		if err != nil {
			failed = append(failed, FileError{File: opt.Files[i], Err: err})
		}
	}
	if len(failed) > 0 {
		return nil, &BatchError{Failed: failed, Succeeded: len(opt.Files) - len(failed)}
	}

	summary := &DistanceSummary{Results: results}
	medians := make([]float64, 0, len(results))
	for _, res := range results {
		if !res.OK {
			summary.NoResult++
			if opt.Verbose || opt.Log2File {
				log.Warningf("no comparable chromosome: %s", res.File)
			}
			continue
		}
		medians = append(medians, res.Median)
	}
	summary.Used = len(medians)
	if len(medians) > 0 {
		summary.Mean = stat.Mean(medians, nil)
	} else {
		summary.Mean = math.NaN()
	}

	if opt.SaveReport {
		if err := writeDistanceReport(opt.ReportFile(), results); err != nil {
			return summary, err
		}
		if opt.Verbose || opt.Log2File {
			log.Infof("report saved to %s", opt.ReportFile())
		}
	}

	if opt.Verbose || opt.Log2File {
		log.Infof("%d files with results, %d without, elapsed time: %s",
			summary.Used, summary.NoResult, time.Since(timeStart))
	}
	return summary, nil
}

func saveDistances(dir string, res *assess.Result) error {
	file, err := outputFile(dir, res.File)
	if err != nil {
		return errors.Wrapf(err, "create output directory")
	}
	return assess.WriteDistances(file, res)
}

// writeDistanceReport writes medians of files with results.
func writeDistanceReport(file string, results []*assess.Result) error {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return errors.Wrapf(err, "create output directory")
	}
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrapf(err, "write report file")
	}

	w := bufio.NewWriter(outfh)
	w.WriteString("file\tmedian_dist\n")
	for _, res := range results {
		if !res.OK {
			continue
		}
		w.WriteString(res.File)
		w.WriteByte('\t')
		w.WriteString(strconv.FormatFloat(res.Median, 'f', -1, 64))
		w.WriteByte('\n')
	}
	if err = w.Flush(); err != nil {
		outfh.Close()
		return errors.Wrapf(err, "write report file")
	}
	return outfh.Close()
}
