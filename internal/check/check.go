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
package check

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pngler/pngler/internal/env"
	"github.com/pngler/pngler/internal/png"
	"github.com/pngler/pngler/internal/report"
	"github.com/pngler/pngler/pkg/pbar"
	"github.com/pngler/pngler/pkg/table"
	fmtutil "github.com/pngler/pngler/pkg/util/format"
)

type Options struct {
	ReportFile  string
	Recursive   bool
	FullDecode  bool
	MaxFileSize uint64
	DisableLog  bool
	LogLevel    slog.Level
}

// Summary aggregates the verdicts of one check run.
type Summary struct {
	FilesChecked int
	FilesValid   int
	FilesInvalid int
	FilesErrored int
	TotalBytes   int64
	ReportFile   string
}

// Check validates every PNG file under root and writes an XML report. Files
// are selected by their content signature, so the extension does not matter.
func Check(root string, opts Options) (*Summary, error) {
	root = absPath(root)

	files, totalBytes, err := collectFiles(root, opts)
	if err != nil {
		return nil, err
	}

	session := GenSessionID()

	reportFileName := opts.ReportFile
	if reportFileName == "" {
		reportFileName = fmt.Sprintf("report_%s.xml", session)
	}

	outFile, err := os.Create(reportFileName)
	if err != nil {
		return nil, err
	}
	defer outFile.Close()

	reportWriter := report.NewWriter(outFile)
	defer reportWriter.Close()

	err = reportWriter.WriteHeader(report.Header{
		XMLOutput: report.XMLOutputVersion,
		Creator: report.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: report.GetExecEnv(),
		},
		Source: report.Source{
			Root:      root,
			Recursive: opts.Recursive,
		},
	})
	if err != nil {
		return nil, err
	}

	var logFilePath string
	if !opts.DisableLog {
		logFilePath = absPath(session + ".log")
	}

	logger, logFile, err := setupLogger(logFilePath, opts.LogLevel)
	if err != nil {
		return nil, err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	mode := "structure"
	if opts.FullDecode {
		mode = "full decode"
	}

	fmt.Println("[INFO] Starting check operation...")
	fmt.Printf("[INFO] Source: \t%s\n", root)
	fmt.Printf("[INFO] Files: \t%d (%s)\n", len(files), fmtutil.FormatBytes(totalBytes))
	fmt.Printf("[INFO] Mode: \t%s\n", mode)

	outLog := "disabled"
	if !opts.DisableLog {
		outLog = logFilePath
	}
	fmt.Printf("[INFO] Output Log: \t%s\n", outLog)

	start := time.Now()
	bar := pbar.NewProgressBarState(totalBytes)
	sum := &Summary{TotalBytes: totalBytes, ReportFile: absPath(reportFileName)}

	for _, f := range files {
		res := checkFile(f, opts, logger)

		sum.FilesChecked++
		switch res.Status {
		case report.StatusOK:
			sum.FilesValid++
		case report.StatusInvalid:
			sum.FilesInvalid++
		default:
			sum.FilesErrored++
		}

		if err := reportWriter.WriteResult(res); err != nil {
			logger.Error("unable to write report entry", "err", err)
		}

		bar.ProcessedBytes += int64(res.FileSize)
		bar.FilesChecked = sum.FilesChecked
		bar.FilesInvalid = sum.FilesInvalid + sum.FilesErrored
		bar.Render(false)
	}
	bar.Render(true)
	bar.Finish()

	fmt.Printf("[INFO] Check completed!\n")
	fmt.Printf("[INFO] Valid: \t%d\n", sum.FilesValid)
	fmt.Printf("[INFO] Invalid: \t%d\n", sum.FilesInvalid)
	if sum.FilesErrored > 0 {
		fmt.Printf("[INFO] Unreadable: \t%d\n", sum.FilesErrored)
	}
	fmt.Printf("[INFO] Total data: \t%s\n", fmtutil.FormatBytes(totalBytes))
	fmt.Printf("[INFO] Duration: \t%s\n", FormatDurationHMS(time.Since(start)))
	fmt.Printf("[INFO] Report saved to: \t%s\n", sum.ReportFile)

	if !opts.DisableLog {
		fmt.Printf("[INFO] Detailed check log: \t%s\n", logFilePath)
	}
	return sum, nil
}

type fileEntry struct {
	path string
	size int64
}

// collectFiles gathers the candidate files under root. A file qualifies when
// its first bytes match the PNG signature; selection by content keeps
// misnamed files in scope and skips foreign formats cheaply.
func collectFiles(root string, opts Options) ([]fileEntry, int64, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, 0, err
	}

	sigs := table.New[string]()
	sigs.Insert(png.Signature, "png")

	var files []fileEntry
	var total int64

	add := func(path string, size int64) {
		if opts.MaxFileSize > 0 && uint64(size) > opts.MaxFileSize {
			return
		}
		if !matchesSignature(sigs, path) {
			return
		}
		files = append(files, fileEntry{path: path, size: size})
		total += size
	}

	if !info.IsDir() {
		// A single explicit file is always checked, even when its
		// signature is wrong: the verdict belongs in the report.
		files = append(files, fileEntry{path: root, size: info.Size()})
		return files, info.Size(), nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !opts.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		add(path, fi.Size())
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

func matchesSignature(sigs *table.PrefixTable[string], path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var head [8]byte
	if _, err := io.ReadFull(f, head[:]); err != nil {
		return false
	}

	matched := false
	sigs.Walk(head[:], func(string) bool {
		matched = true
		return true
	})
	return matched
}

func checkFile(f fileEntry, opts Options, logger *slog.Logger) report.Result {
	res := report.Result{
		Filename: f.path,
		FileSize: uint64(f.size),
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		logger.Error("unable to read file", "path", f.path, "err", err)
		res.Status = report.StatusError
		res.Reason = err.Error()
		return res
	}

	info, err := png.Parse(data)
	if err == nil && opts.FullDecode {
		// Structure is sound; run the pixel pipeline as well.
		_, err = png.Decode(data)
	}
	if err != nil {
		logger.Warn("invalid file", "path", f.path, "err", err)
		res.Status = report.StatusInvalid
		res.Reason = err.Error()
		return res
	}

	logger.Debug("valid file",
		"path", f.path,
		"width", info.Header.Width,
		"height", info.Header.Height,
		"color_type", info.Header.ColorType.String(),
	)

	res.Status = report.StatusOK
	res.Image = &report.ImageInfo{
		Width:      info.Header.Width,
		Height:     info.Header.Height,
		BitDepth:   info.Header.BitDepth,
		ColorType:  info.Header.ColorType.String(),
		Interlaced: info.Header.Interlace == png.InterlaceAdam7,
		DataChunks: info.DataChunks,
	}
	return res
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// GenSessionID returns a timestamp-based identifier for report and log file
// names.
func GenSessionID() string {
	return time.Now().Format("20060102_150405")
}

// FormatDurationHMS formats a time.Duration into HH:MM:SS string.
// It handles durations that might be less than an hour or greater than 24 hours.
func FormatDurationHMS(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	totalSeconds := int64(d.Seconds())

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// setupLogger initializes a new slog.Logger that writes to a specified file or discards output.
// It returns the logger instance and the *os.File, which will be nil if file logging is disabled.
// The returned *os.File (if not nil) should be closed by the caller.
func setupLogger(logFilePath string, minLevel slog.Level) (*slog.Logger, *os.File, error) {
	var writer io.Writer
	var file *os.File

	if logFilePath == "" {
		writer = io.Discard
	} else {
		logDir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %q: %w", logDir, err)
		}

		f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %q: %w", logFilePath, err)
		}
		writer = f
		file = f
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level:     minLevel,
		AddSource: true,
	})

	return slog.New(handler), file, nil
}

// ParseLogLevel maps a textual level to a slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}
