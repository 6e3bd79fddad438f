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

	"github.com/shenwei356/geniml/geniml/tokenizer"
	"github.com/spf13/cobra"
)

var hardTokenizeCmd = &cobra.Command{
	Use:   "hard-tokenize",
	Short: "Tokenize all files in a directory with bedtools",
	Long: `Tokenize all files in a directory with bedtools

For each input file, universe regions overlapping any input region are
written to a file of the same name in the output directory, with
  bedtools intersect -a <universe> -b <sorted input> -u -f <fraction>

Files are split into min(ceil(#files/20), #threads) groups processed in parallel.

Existing outputs:
  1. If the output directory has exactly the files to produce, nothing is done.
  2. If it has other files, e.g., from an interrupted run, please remove it
     before rerunning.

Tokenization with an in-memory universe is also supported (--in-memory),
where bedtools is not needed.

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

		srcDir := getFlagString(cmd, "in-dir")
		checkDir(srcDir, "-I/--in-dir")

		dstDir := getFlagString(cmd, "out-dir")
		if dstDir == "" {
			checkError(fmt.Errorf("flag -O/--out-dir needed"))
		}
		if filepath.Clean(srcDir) == filepath.Clean(dstDir) {
			checkError(fmt.Errorf("output directory should not be the input directory"))
		}

		uFile := getFlagString(cmd, "universe")
		checkFile(uFile, "-u/--universe")

		fraction := getFlagFloat64(cmd, "fraction")
		if fraction <= 0 || fraction > 1 {
			checkError(fmt.Errorf("value of flag -f/--fraction should be in range of (0, 1]"))
		}

		var files []string
		var err error
		fileList := getFlagString(cmd, "file-list")
		if fileList != "" {
			files, err = readFileList(fileList)
			checkError(err)
		}

		tokOpt := &TokenizationOptions{
			NumCPUs:  opt.NumCPUs,
			Verbose:  opt.Verbose,
			Log2File: opt.Log2File,

			SrcDir:       srcDir,
			DstDir:       dstDir,
			UniverseFile: uFile,
			Files:        files,

			BedtoolsPath: getFlagString(cmd, "bedtools"),
			Fraction:     fraction,

			InMemory: getFlagBool(cmd, "in-memory"),
		}

		status, err := HardTokenize(tokOpt)
		if err != nil {
			log.Errorf("tokenization status: %s", status)
			checkError(err)
		}
		if opt.Verbose || opt.Log2File {
			log.Infof("tokenization status: %s", status)
		}
	},
}

func init() {
	RootCmd.AddCommand(hardTokenizeCmd)

	hardTokenizeCmd.Flags().StringP("in-dir", "I", "",
		formatFlagUsage(`Directory of region files to tokenize.`))

	hardTokenizeCmd.Flags().StringP("out-dir", "O", "",
		formatFlagUsage(`Output directory.`))

	hardTokenizeCmd.Flags().StringP("universe", "u", "",
		formatFlagUsage(`Universe file in BED format.`))

	hardTokenizeCmd.Flags().Float64P("fraction", "f", tokenizer.DefaultFraction,
		formatFlagUsage(`Minimum overlap as a fraction of a universe region.`))

	hardTokenizeCmd.Flags().StringP("bedtools", "", tokenizer.DefaultBedtools,
		formatFlagUsage(`Path of bedtools.`))

	hardTokenizeCmd.Flags().StringP("file-list", "X", "",
		formatFlagUsage(`File of file names in the input directory to tokenize, one per line. `+
			`By default, all files are used.`))

	hardTokenizeCmd.Flags().BoolP("in-memory", "", false,
		formatFlagUsage(`Tokenize with an in-memory universe instead of bedtools. `+
			`The overlap fraction is ignored.`))

	hardTokenizeCmd.SetUsageTemplate(usageTemplate(""))
}
