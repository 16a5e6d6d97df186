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

	"github.com/spf13/cobra"

	"github.com/pngler/pngler/internal/png"
	fmtutil "github.com/pngler/pngler/pkg/util/format"
)

func DefineInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "info <file>",
		Short:        "Print the structure and metadata of a PNG file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunInfo,
	}
}

func RunInfo(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	info, err := png.Parse(data)
	if err != nil {
		return err
	}
	hdr := info.Header

	fmt.Printf("File: \t\t%s (%s)\n", args[0], fmtutil.FormatBytes(int64(len(data))))
	fmt.Printf("Dimensions: \t%dx%d\n", hdr.Width, hdr.Height)
	fmt.Printf("Color type: \t%s\n", hdr.ColorType)
	fmt.Printf("Bit depth: \t%d\n", hdr.BitDepth)
	fmt.Printf("Interlace: \t%s\n", hdr.Interlace)
	fmt.Printf("Image data: \t%s in %d chunk(s)\n", fmtutil.FormatBytes(int64(info.DataSize)), info.DataChunks)

	if info.Palette != nil {
		fmt.Printf("Palette: \t%d entries\n", len(info.Palette))
	}

	printMetadata(&info.Meta)
	return nil
}

func printMetadata(m *png.Metadata) {
	if m.Gamma != nil {
		fmt.Printf("Gamma: \t\t%.5f\n", *m.Gamma)
	}
	if m.Intent != nil {
		fmt.Printf("Rendering: \t%s\n", *m.Intent)
	}
	if m.ICCProfile != nil {
		fmt.Printf("ICC profile: \t%q (%s compressed)\n",
			m.ICCProfile.Name, fmtutil.FormatBytes(int64(len(m.ICCProfile.Compressed))))
	}
	if m.Chromaticity != nil {
		c := m.Chromaticity
		fmt.Printf("White point: \t(%.4f, %.4f)\n", c.WhiteX, c.WhiteY)
	}
	if m.Transparency != nil {
		fmt.Println("Transparency: \tpresent (tRNS)")
	}
	if m.Background != nil {
		fmt.Println("Background: \tpresent (bKGD)")
	}
	if m.Physical != nil {
		unit := "unknown unit"
		if m.Physical.Meters {
			unit = "pixels/meter"
		}
		fmt.Printf("Phys. dims: \t%dx%d %s\n", m.Physical.PerUnitX, m.Physical.PerUnitY, unit)
	}
	if m.ModTime != nil {
		tm := m.ModTime
		fmt.Printf("Modified: \t%04d-%02d-%02d %02d:%02d:%02d\n",
			tm.Year, tm.Month, tm.Day, tm.Hour, tm.Minute, tm.Second)
	}
	for _, txt := range m.Text {
		fmt.Printf("Text: \t\t%s: %s\n", txt.Keyword, txt.Text)
	}
	for _, txt := range m.CompText {
		fmt.Printf("Text: \t\t%s: (%s compressed)\n", txt.Keyword, fmtutil.FormatBytes(int64(len(txt.Compressed))))
	}
	for _, txt := range m.IntlText {
		fmt.Printf("Text: \t\t%s [%s]\n", txt.Keyword, txt.LanguageTag)
	}
	for _, sp := range m.SuggPalettes {
		fmt.Printf("Sugg. palette: \t%q, %d entries at depth %d\n", sp.Name, len(sp.Entries), sp.SampleDepth)
	}
	for _, u := range m.Unknown {
		fmt.Printf("Unknown chunk: \t%s (%s)\n", u.Type, fmtutil.FormatBytes(int64(len(u.Data))))
	}
}
