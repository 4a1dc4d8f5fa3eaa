package es

import (
	"time"

	"github.com/DjordjeVuckovic/modelcfg/internal/check"
	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
	"github.com/DjordjeVuckovic/modelcfg/internal/validate"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/google/uuid"
)

// ResultDocument is the indexed form of a check.Result.
type ResultDocument struct {
	ID           string           `json:"id"`
	Path         string           `json:"path"`
	Kind         string           `json:"kind"`
	Name         string           `json:"name"`
	Status       string           `json:"status"`
	Strict       bool             `json:"strict"`
	Issues       []validate.Issue `json:"issues"`
	ErrorCount   int              `json:"error_count"`
	WarningCount int              `json:"warning_count"`
	CheckedAt    time.Time        `json:"checked_at"`
	DurationNs   int64            `json:"duration_ns"`
}

func toDocument(r check.Result) ResultDocument {
	issues := r.Issues
	if issues == nil {
		issues = []validate.Issue{}
	}
	return ResultDocument{
		ID:           r.ID.String(),
		Path:         r.Path,
		Kind:         string(r.Kind),
		Name:         r.Name,
		Status:       string(r.Status),
		Strict:       r.Strict,
		Issues:       issues,
		ErrorCount:   r.ErrorCount(),
		WarningCount: r.WarningCount(),
		CheckedAt:    r.CheckedAt,
		DurationNs:   r.Duration.Nanoseconds(),
	}
}

func (d ResultDocument) toResult() (check.Result, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return check.Result{}, err
	}
	return check.Result{
		ID:        id,
		Path:      d.Path,
		Kind:      descriptor.Kind(d.Kind),
		Name:      d.Name,
		Status:    check.Status(d.Status),
		Strict:    d.Strict,
		Issues:    d.Issues,
		CheckedAt: d.CheckedAt.UTC(),
		Duration:  time.Duration(d.DurationNs),
	}, nil
}

func buildMapping() types.TypeMapping {
	// issue values mix strings and numbers, so the issues are stored but not indexed
	issues := types.NewObjectProperty()
	disabled := false
	issues.Enabled = &disabled

	return types.TypeMapping{
		Properties: map[string]types.Property{
			"id":            types.NewKeywordProperty(),
			"path":          types.NewKeywordProperty(),
			"kind":          types.NewKeywordProperty(),
			"name":          types.NewKeywordProperty(),
			"status":        types.NewKeywordProperty(),
			"strict":        types.NewBooleanProperty(),
			"issues":        issues,
			"error_count":   types.NewIntegerNumberProperty(),
			"warning_count": types.NewIntegerNumberProperty(),
			"checked_at":    types.NewDateProperty(),
			"duration_ns":   types.NewLongNumberProperty(),
		},
	}
}
