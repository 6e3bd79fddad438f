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

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// DefaultConfigFile is the default TOML file holding default values of flags.
const DefaultConfigFile = "~/.geniml.toml"

// readConfig reads a TOML file of flag names and values.
// A missing default config file is not an error.
func readConfig(file string) (map[string]interface{}, error) {
	path, err := homedir.Expand(file)
	if err != nil {
		return nil, errors.Wrapf(err, "expand path: %s", file)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && file == DefaultConfigFile {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read config file: %s", path)
	}

	cfg := make(map[string]interface{}, 8)
	if err = toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config file: %s", path)
	}
	return cfg, nil
}

// applyConfig sets values of flags not given in the command line.
// Keys not matching any flag of the command are ignored.
func applyConfig(cmd *cobra.Command, file string) error {
	if file == "" {
		return nil
	}
	cfg, err := readConfig(file)
	if err != nil {
		return err
	}

	for key, value := range cfg {
		flag := cmd.Flags().Lookup(key)
		if flag == nil || flag.Changed {
			continue
		}
		if err = flag.Value.Set(fmt.Sprintf("%v", value)); err != nil {
			return errors.Wrapf(err, "invalid value of %s in config file %s", key, file)
		}
	}
	return nil
}
