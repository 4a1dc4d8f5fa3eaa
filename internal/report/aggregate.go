package report

import (
	"time"

	"github.com/DjordjeVuckovic/modelcfg/internal/check"
	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
)

const Version = "1"

func Generate(results []check.Result) *Report {
	r := &Report{
		Meta: Meta{
			Version:     Version,
			Timestamp:   time.Now().UTC(),
			Environment: NewEnvironmentInfo(),
		},
		Summary: Summary{ByKind: make(map[descriptor.Kind]Counts)},
		Files:   results,
	}
	if r.Files == nil {
		r.Files = []check.Result{}
	}

	for _, res := range results {
		if res.Strict {
			r.Meta.Strict = true
		}
		r.Summary.Counts.add(res)
		kc := r.Summary.ByKind[res.Kind]
		kc.add(res)
		r.Summary.ByKind[res.Kind] = kc
	}
	return r
}

func (c *Counts) add(res check.Result) {
	c.Total++
	switch res.Status {
	case check.StatusValid:
		c.Valid++
	case check.StatusInvalid:
		c.Invalid++
	case check.StatusUnreadable:
		c.Unreadable++
	}
	c.Errors += res.ErrorCount()
	c.Warnings += res.WarningCount()
}
