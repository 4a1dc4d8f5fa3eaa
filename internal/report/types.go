package report

import (
	"runtime"
	"time"

	"github.com/DjordjeVuckovic/modelcfg/internal/check"
	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
)

type Report struct {
	Meta    Meta           `json:"meta"`
	Summary Summary        `json:"summary"`
	Files   []check.Result `json:"files"`
}

type Meta struct {
	Version     string          `json:"version"`
	Timestamp   time.Time       `json:"timestamp"`
	Strict      bool            `json:"strict"`
	Environment EnvironmentInfo `json:"environment"`
}

type EnvironmentInfo struct {
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	NumCPU    int    `json:"num_cpu"`
}

func NewEnvironmentInfo() EnvironmentInfo {
	return EnvironmentInfo{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
	}
}

type Counts struct {
	Total      int `json:"total"`
	Valid      int `json:"valid"`
	Invalid    int `json:"invalid"`
	Unreadable int `json:"unreadable"`
	Errors     int `json:"errors"`
	Warnings   int `json:"warnings"`
}

type Summary struct {
	Counts
	ByKind map[descriptor.Kind]Counts `json:"by_kind"`
}

// Failed reports whether any file did not pass.
func (s Summary) Failed() bool {
	return s.Invalid > 0 || s.Unreadable > 0
}
