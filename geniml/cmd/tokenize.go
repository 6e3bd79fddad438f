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
	"strconv"
	"strings"

	"github.com/shenwei356/geniml/geniml/region"
	"github.com/shenwei356/geniml/geniml/tokenizer"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize",
	Short: "Tokenize regions with an in-memory universe",
	Long: `Tokenize regions with an in-memory universe

Each input region is mapped to the first overlapping universe region
in the order of the index (by start position). Overlaps are on half-open
intervals, i.e., regions sharing only a boundary do not overlap.

Output format (tab-delimited):
  1. file,     input file
  2. query,    query region, chr:start-end
  3. token,    overlapping universe region(s), chr_start_end, separated by ";" with --all
  4. id,       vocabulary id(s) of tokens, the unknown id is the vocabulary size

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		uFile := getFlagString(cmd, "universe")
		checkFile(uFile, "-u/--universe")

		outFile := getFlagString(cmd, "out-file")
		all := getFlagBool(cmd, "all")

		if len(args) == 0 {
			checkError(fmt.Errorf("input files needed"))
		}

		if opt.Verbose || opt.Log2File {
			log.Infof("building universe: %s", uFile)
		}
		tk, err := tokenizer.NewInMemTokenizerFromFile(uFile)
		checkError(err)
		if opt.Verbose || opt.Log2File {
			log.Infof("  %d regions of %d chromosomes", tk.Universe.Len(), len(tk.Universe.Chromosomes()))
		}

		outfh, err := xopen.Wopen(outFile)
		checkError(err)
		defer outfh.Close()
		w := bufio.NewWriter(outfh)
		defer w.Flush()

		w.WriteString("file\tquery\ttoken\tid\n")
		unknown := strconv.Itoa(tk.UnknownID())
		var id int
		for _, file := range args {
			rs, err := region.NewRegionSet(file, false)
			checkError(err)
			queries, err := rs.Regions()
			checkError(err)

			if all {
				tokens, err := tk.TokenizeAll(rs)
				checkError(err)

				for i, q := range queries {
					ts := make([]string, len(tokens[i]))
					ids := make([]string, len(tokens[i]))
					for j, t := range tokens[i] {
						ts[j] = t.ID()
						id, _ = tk.Universe.ID(t)
						ids[j] = strconv.Itoa(id)
					}
					if len(ids) == 0 {
						ids = append(ids, unknown)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", file, q.String(),
						strings.Join(ts, ";"), strings.Join(ids, ";"))
				}
				continue
			}

			tokens, err := tk.Tokenize(rs)
			checkError(err)
			ids, _ := tk.ConvertTokensToIDs(tokens)
			for i, q := range queries {
				if tokens[i] == nil {
					fmt.Fprintf(w, "%s\t%s\t\t%d\n", file, q.String(), ids[i])
				} else {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", file, q.String(), tokens[i].ID(), ids[i])
				}
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(tokenizeCmd)

	tokenizeCmd.Flags().StringP("universe", "u", "",
		formatFlagUsage(`Universe file in BED format.`))

	tokenizeCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	tokenizeCmd.Flags().BoolP("all", "a", false,
		formatFlagUsage(`Output all overlapping universe regions instead of the first one.`))

	tokenizeCmd.SetUsageTemplate(usageTemplate("[region files]"))
}
