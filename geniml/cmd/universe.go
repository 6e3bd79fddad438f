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
	"sort"
	"strconv"

	"github.com/shenwei356/geniml/geniml/region"
	"github.com/shenwei356/geniml/geniml/universe"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Summarize, check, or sort a universe",
	Long: `Summarize, check, or sort a universe

Identical regions are counted once.

Output format of the summary (tab-delimited):
  1. chrom,     chromosome, "total" for all chromosomes
  2. regions,   number of distinct regions
  3. bases,     total length of regions
  4. mean_len,  mean region length

With --sort, distinct regions are written in BED3 format, sorted by
chromosome (natural order) and positions, which is required by "geniml distance".

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		uFile := getFlagString(cmd, "universe")
		checkFile(uFile, "-u/--universe")

		outFile := getFlagString(cmd, "out-file")

		if getFlagBool(cmd, "check-sorted") {
			if err := region.CheckSorted(uFile); err != nil {
				checkError(err)
			}
			if opt.Verbose || opt.Log2File {
				log.Infof("the universe is sorted: %s", uFile)
			}
			return
		}

		u, err := universe.NewFromFile(uFile)
		checkError(err)

		outfh, err := xopen.Wopen(outFile)
		checkError(err)
		defer outfh.Close()
		w := bufio.NewWriter(outfh)
		defer w.Flush()

		if getFlagBool(cmd, "sort") {
			regions := make(region.Regions, u.Len())
			copy(regions, u.Regions())
			region.SortRegions(regions)
			for _, r := range regions {
				fmt.Fprintf(w, "%s\t%d\t%d\n", r.Chr, r.Start, r.End)
			}
			return
		}

		lens := make(map[string][]float64, len(u.Chromosomes()))
		all := make([]float64, 0, u.Len())
		for _, r := range u.Regions() {
			lens[r.Chr] = append(lens[r.Chr], float64(r.Len()))
			all = append(all, float64(r.Len()))
		}

		chrs := make([]string, len(u.Chromosomes()))
		copy(chrs, u.Chromosomes())
		sortChrs(chrs)

		w.WriteString("chrom\tregions\tbases\tmean_len\n")
		for _, chr := range chrs {
			writeUniverseStats(w, chr, lens[chr])
		}
		writeUniverseStats(w, "total", all)
	},
}

func writeUniverseStats(w *bufio.Writer, name string, lens []float64) {
	var sum float64
	for _, l := range lens {
		sum += l
	}
	var mean float64
	if len(lens) > 0 {
		mean = stat.Mean(lens, nil)
	}
	fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, len(lens), int64(sum),
		strconv.FormatFloat(mean, 'f', 2, 64))
}

// sortChrs sorts chromosome names in natural order.
func sortChrs(chrs []string) {
	sort.Slice(chrs, func(i, j int) bool { return region.CompareChr(chrs[i], chrs[j]) < 0 })
}

func init() {
	RootCmd.AddCommand(universeCmd)

	universeCmd.Flags().StringP("universe", "u", "",
		formatFlagUsage(`Universe file in BED format.`))

	universeCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	universeCmd.Flags().BoolP("check-sorted", "c", false,
		formatFlagUsage(`Only check whether the universe is sorted.`))

	universeCmd.Flags().BoolP("sort", "s", false,
		formatFlagUsage(`Output distinct regions in sorted order.`))

	universeCmd.SetUsageTemplate(usageTemplate(""))
}
