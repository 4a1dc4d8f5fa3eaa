package check

import (
	"time"

	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
	"github.com/DjordjeVuckovic/modelcfg/internal/validate"
	"github.com/google/uuid"
)

type Status string

const (
	StatusValid      Status = "valid"
	StatusInvalid    Status = "invalid"
	StatusUnreadable Status = "unreadable"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusValid, StatusInvalid, StatusUnreadable:
		return st, true
	}
	return "", false
}

// Result is the outcome of checking one descriptor.
type Result struct {
	ID        uuid.UUID        `json:"id"`
	Path      string           `json:"path,omitempty"`
	Kind      descriptor.Kind  `json:"kind"`
	Name      string           `json:"name,omitempty"`
	Status    Status           `json:"status"`
	Strict    bool             `json:"strict"`
	Issues    []validate.Issue `json:"issues"`
	CheckedAt time.Time        `json:"checked_at"`
	Duration  time.Duration    `json:"duration_ns"`
}

func (r Result) Passed() bool {
	return r.Status == StatusValid
}

func (r Result) ErrorCount() int {
	return r.count(validate.SeverityError)
}

func (r Result) WarningCount() int {
	return r.count(validate.SeverityWarning)
}

func (r Result) count(sev validate.Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}
