package report

import (
	"encoding/xml"
	"os"
	"os/user"
	"runtime"
	"strconv"
	"time"

	"github.com/pngler/pngler/pkg/sysinfo"
)

const XMLOutputVersion = "1.0"

// Status of a single checked file.
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid"
	StatusError   = "error" // I/O failure, not a verdict about the file
)

// Header is the root element of a check report.
type Header struct {
	XMLName   xml.Name `xml:"pngreport"`
	XMLOutput string   `xml:"xmloutputversion,attr,omitempty"`
	Creator   Creator  `xml:"creator"`
	Source    Source   `xml:"source"`
}

// Creator describes the software and environment that produced the report.
type Creator struct {
	Package              string  `xml:"package"`
	Version              string  `xml:"version"`
	ExecutionEnvironment ExecEnv `xml:"execution_environment"`
}

// ExecEnv provides information about the host the report was created on.
type ExecEnv struct {
	OS      string `xml:"os_sysname"`
	Release string `xml:"os_release"`
	Version string `xml:"os_version"`
	Host    string `xml:"host"`
	Arch    string `xml:"arch"`
	UID     int    `xml:"uid"`
	Start   string `xml:"start_time"`
}

// Source describes the file set the check ran over.
type Source struct {
	Root      string `xml:"root"`
	Recursive bool   `xml:"recursive"`
}

// Result is the verdict for one checked file.
type Result struct {
	XMLName  xml.Name   `xml:"result"`
	Filename string     `xml:"filename"`
	FileSize uint64     `xml:"filesize"`
	Status   string     `xml:"status"`
	Reason   string     `xml:"reason,omitempty"`
	Image    *ImageInfo `xml:"image,omitempty"`
}

// ImageInfo carries the decoded stream properties of a valid file.
type ImageInfo struct {
	Width      uint32 `xml:"width"`
	Height     uint32 `xml:"height"`
	BitDepth   uint8  `xml:"bit_depth"`
	ColorType  string `xml:"color_type"`
	Interlaced bool   `xml:"interlaced"`
	DataChunks int    `xml:"data_chunks"`
}

// GetExecEnv retrieves runtime information to populate the ExecEnv struct.
func GetExecEnv() ExecEnv {
	sinfo, err := sysinfo.Stat()
	if err != nil {
		sinfo = &sysinfo.SysUnknown
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown_host"
	}

	uid := 0
	if currentUser, err := user.Current(); err == nil {
		if uidInt, parseErr := strconv.Atoi(currentUser.Uid); parseErr == nil {
			uid = uidInt
		}
	}

	return ExecEnv{
		OS:      sinfo.Name,
		Release: sinfo.Release,
		Version: sinfo.Version,
		Host:    host,
		Arch:    runtime.GOARCH,
		UID:     uid,
		Start:   time.Now().UTC().Format(time.RFC3339),
	}
}
