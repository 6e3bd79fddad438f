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
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/iafan/cwalk"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"github.com/twotwotwo/sorts"
)

// Options contains the global flags
type Options struct {
	NumCPUs int
	Verbose bool

	LogFile  string
	Log2File bool
}

func getOptions(cmd *cobra.Command) *Options {
	checkError(applyConfig(cmd, getFlagString(cmd, "config")))

	threads := getFlagNonNegativeInt(cmd, "threads")
	if threads == 0 {
		threads = runtime.NumCPU()
	}

	sorts.MaxProcs = threads
	runtime.GOMAXPROCS(threads)

	logfile := getFlagString(cmd, "log")
	return &Options{
		NumCPUs: threads,
		Verbose: !getFlagBool(cmd, "quiet"),

		LogFile:  logfile,
		Log2File: logfile != "",
	}
}

func checkError(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

func formatFlagUsage(s string) string {
	return "► " + s
}

func getFlagString(cmd *cobra.Command, flag string) string {
	value, err := cmd.Flags().GetString(flag)
	checkError(err)
	return value
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	value, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return value
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	value, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return value
}

func getFlagNonNegativeInt(cmd *cobra.Command, flag string) int {
	value := getFlagInt(cmd, flag)
	if value < 0 {
		checkError(fmt.Errorf("value of flag --%s should be greater than or equal to 0", flag))
	}
	return value
}

func getFlagFloat64(cmd *cobra.Command, flag string) float64 {
	value, err := cmd.Flags().GetFloat64(flag)
	checkError(err)
	return value
}

// checkFile exits if a file does not exist.
func checkFile(file string, name string) {
	if file == "" {
		checkError(fmt.Errorf("flag %s needed", name))
	}
	ok, err := pathutil.Exists(file)
	checkError(errors.Wrap(err, file))
	if !ok {
		checkError(fmt.Errorf("%s not found: %s", name, file))
	}
}

// checkDir exits if a path is not a directory.
func checkDir(dir string, name string) {
	if dir == "" {
		checkError(fmt.Errorf("flag %s needed", name))
	}
	isDir, err := pathutil.IsDir(dir)
	if err != nil {
		checkError(errors.Wrapf(err, "checking %s", name))
	}
	if !isDir {
		checkError(fmt.Errorf("value of %s should be a directory: %s", name, dir))
	}
}

// getFileListFromDir returns paths of files matching the pattern, relative to path.
func getFileListFromDir(path string, pattern *regexp.Regexp, threads int) ([]string, error) {
	files := make([]string, 0, 512)
	ch := make(chan string, threads)
	done := make(chan int)
	go func() {
		for file := range ch {
			files = append(files, file)
		}
		done <- 1
	}()

	cwalk.NumWorkers = threads
	err := cwalk.WalkWithSymlinks(path, func(_path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && pattern.MatchString(info.Name()) {
			ch <- _path
		}
		return nil
	})
	close(ch)
	<-done
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, err
}

// readFileList reads a list of file names, one per line.
func readFileList(file string) ([]string, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		if errors.Is(err, xopen.ErrNoContent) {
			return []string{}, nil
		}
		return nil, errors.Wrapf(err, "read file list: %s", file)
	}
	defer fh.Close()

	files := make([]string, 0, 512)
	scanner := bufio.NewScanner(fh)
	var line string
	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		files = append(files, line)
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read file list: %s", file)
	}
	return files, nil
}

// writeFileList writes file names, one per line.
func writeFileList(file string, files []string) error {
	fh, err := os.Create(file)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(fh)
	for _, f := range files {
		bw.WriteString(f)
		bw.WriteByte('\n')
	}
	if err = bw.Flush(); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// splitFiles splits files into n contiguous shards of similar sizes.
func splitFiles(files []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	if n > len(files) {
		n = len(files)
	}
	shards := make([][]string, 0, n)
	size := (len(files) + n - 1) / n
	var begin, end int
	for begin = 0; begin < len(files); begin += size {
		end = begin + size
		if end > len(files) {
			end = len(files)
		}
		shards = append(shards, files[begin:end])
	}
	return shards
}

// outputFile returns the path of an output file, creating its parent directory.
func outputFile(dir, file string) (string, error) {
	out := filepath.Join(dir, file)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", err
	}
	return out, nil
}
