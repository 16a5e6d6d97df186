// Copyright (c) 2025 The pngler authors
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

	"github.com/spf13/cobra"

	"github.com/pngler/pngler/internal/check"
	"github.com/pngler/pngler/pkg/util/format"
)

func DefineCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "check <path>",
		Short:        "Validate all PNG files under a path and write an XML report",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunCheck,
	}

	cmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	cmd.Flags().Bool("full", false, "run the full pixel pipeline, not just the structural checks")
	cmd.Flags().String("max-file-size", "1GB", "skip files larger than this size")
	cmd.Flags().Bool("no-log", false, "disable logging")
	cmd.Flags().StringP("output", "o", "", "the path of the XML report file")

	return cmd
}

func RunCheck(cmd *cobra.Command, args []string) error {
	opts, err := parseCheckOptions(cmd)
	if err != nil {
		return err
	}

	sum, err := check.Check(args[0], opts)
	if err != nil {
		return err
	}

	if sum.FilesInvalid > 0 || sum.FilesErrored > 0 {
		return fmt.Errorf("%d of %d files failed validation", sum.FilesInvalid+sum.FilesErrored, sum.FilesChecked)
	}
	return nil
}

func parseCheckOptions(cmd *cobra.Command) (check.Options, error) {
	recursive, _ := cmd.Flags().GetBool("recursive")
	fullDecode, _ := cmd.Flags().GetBool("full")
	disableLog, _ := cmd.Flags().GetBool("no-log")
	outputFile, _ := cmd.Flags().GetString("output")
	logLevel, _ := cmd.Flags().GetString("log-level")

	return check.Options{
		ReportFile:  outputFile,
		Recursive:   recursive,
		FullDecode:  fullDecode,
		MaxFileSize: getBytes(cmd, "max-file-size"),
		DisableLog:  disableLog,
		LogLevel:    check.ParseLogLevel(logLevel),
	}, nil
}

func getBytes(cmd *cobra.Command, name string) uint64 {
	s, _ := cmd.Flags().GetString(name)

	v, err := format.ParseBytes(s)
	if err != nil {
		return math.MaxUint64
	}
	return v
}
