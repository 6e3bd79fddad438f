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
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

var distanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "Assess a universe with distances to a collection of region files",
	Long: `Assess a universe with distances to a collection of region files

For each region of a file, the distances from its start and end to the
nearest universe start and end on the same chromosome are computed, and
the median of them is reported for the file. The mean of medians of all
files with results is the score of the universe, the lower the better.

Both the universe and input files should be sorted by chromosome
(natural order, e.g., chr2 < chr10) and start position.

Flexible universes (--flexible) have the right bound of start positions
in column 7 and the left bound of end positions in column 8, and the
distance is 0 if a position falls into a bound.

Output:
  1. <out-dir>/<prefix>_data.tsv (--save-report), with columns file, median_dist
  2. <out-dir>/<prefix>/<file>  (--save-each), with columns start, end distances

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		defer func() {
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		uFile := getFlagString(cmd, "universe")
		checkFile(uFile, "-u/--universe")

		inDir := getFlagString(cmd, "in-dir")
		checkDir(inDir, "-I/--in-dir")

		var files []string
		var err error
		fileList := getFlagString(cmd, "file-list")
		if fileList != "" {
			files, err = readFileList(fileList)
			checkError(err)
		} else {
			reFileStr := getFlagString(cmd, "file-regexp")
			reFile, err := regexp.Compile("(?i)" + reFileStr)
			if err != nil {
				checkError(fmt.Errorf("failed to parse regular expression for matching file: %s", reFileStr))
			}

			files, err = getFileListFromDir(inDir, reFile, opt.NumCPUs)
			checkError(err)
		}
		if len(files) == 0 {
			checkError(fmt.Errorf("no files found in %s", inDir))
		}

		saveEach := getFlagBool(cmd, "save-each")
		saveReport := getFlagBool(cmd, "save-report")
		outDir := getFlagString(cmd, "out-dir")
		if (saveEach || saveReport) && outDir == "" {
			checkError(fmt.Errorf("flag -O/--out-dir needed for --save-each or --save-report"))
		}
		prefix := strings.TrimSpace(getFlagString(cmd, "prefix"))
		if prefix == "" {
			checkError(fmt.Errorf("value of flag --prefix should not be empty"))
		}

		summary, err := RunDistance(&DistanceOptions{
			NumCPUs:  opt.NumCPUs,
			Verbose:  opt.Verbose,
			Log2File: opt.Log2File,

			UniverseFile: uFile,
			Dir:          inDir,
			Files:        files,

			Flexible:       getFlagBool(cmd, "flexible"),
			UniverseToFile: getFlagBool(cmd, "universe-to-file"),

			OutDir:     outDir,
			Prefix:     prefix,
			SaveEach:   saveEach,
			SaveReport: saveReport,
		})
		checkError(err)

		if math.IsNaN(summary.Mean) {
			fmt.Println("NA")
		} else {
			fmt.Printf("%g\n", summary.Mean)
		}
	},
}

func init() {
	RootCmd.AddCommand(distanceCmd)

	distanceCmd.Flags().StringP("universe", "u", "",
		formatFlagUsage(`Sorted universe file in BED format.`))

	distanceCmd.Flags().StringP("in-dir", "I", "",
		formatFlagUsage(`Directory of sorted region files. Files in sub-directories are also used.`))

	distanceCmd.Flags().StringP("file-regexp", "r", `\.bed(\.gz)?$`,
		formatFlagUsage(`Regular expression for matching files in -I/--in-dir, case ignored.`))

	distanceCmd.Flags().StringP("file-list", "X", "",
		formatFlagUsage(`File of file paths relative to -I/--in-dir, one per line. `+
			`It overrides -r/--file-regexp.`))

	distanceCmd.Flags().BoolP("flexible", "", false,
		formatFlagUsage(`The universe has flexible boundaries.`))

	distanceCmd.Flags().BoolP("universe-to-file", "", false,
		formatFlagUsage(`Compute distances from universe regions to regions of each file.`))

	distanceCmd.Flags().StringP("out-dir", "O", "",
		formatFlagUsage(`Output directory.`))

	distanceCmd.Flags().StringP("prefix", "", "distance",
		formatFlagUsage(`Prefix of output files.`))

	distanceCmd.Flags().BoolP("save-each", "", false,
		formatFlagUsage(`Save distances of each file.`))

	distanceCmd.Flags().BoolP("save-report", "", false,
		formatFlagUsage(`Save medians of all files.`))

	distanceCmd.SetUsageTemplate(usageTemplate(""))
}
