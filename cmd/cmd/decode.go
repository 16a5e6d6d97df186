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
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pngler/pngler/internal/check"
	"github.com/pngler/pngler/internal/png"
	fmtutil "github.com/pngler/pngler/pkg/util/format"
)

func DefineDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "decode <file>",
		Short:        "Run the full decode pipeline and report the outcome",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunDecode,
	}
}

func RunDecode(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	start := time.Now()
	img, err := png.Decode(data)
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	elapsed := time.Since(start)

	samples := len(img.Pix)
	fmt.Printf("Decoded: \t%s\n", args[0])
	fmt.Printf("Dimensions: \t%dx%d, %s, %d-bit\n", img.Width, img.Height, img.ColorType, img.BitDepth)
	fmt.Printf("Samples: \t%d (%d per pixel)\n", samples, img.Channels)
	fmt.Printf("Compressed: \t%s\n", fmtutil.FormatBytes(int64(len(data))))
	fmt.Printf("Duration: \t%s\n", check.FormatDurationHMS(elapsed))
	return nil
}
