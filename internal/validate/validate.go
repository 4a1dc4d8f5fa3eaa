// Package validate accumulates field-level issues found while checking a descriptor.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/DjordjeVuckovic/modelcfg/internal/apperr"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding against a field path such as models[0].datasets[1].metrics[0].top_k.
type Issue struct {
	Path     string   `json:"path" yaml:"path"`
	Message  string   `json:"message" yaml:"message"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
	Severity Severity `json:"severity" yaml:"severity"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Issues is an error made of error-severity issues.
type Issues []Issue

func (is Issues) Error() string {
	msgs := make([]string, len(is))
	for i, issue := range is {
		msgs[i] = issue.String()
	}
	return strings.Join(msgs, "; ")
}

// Validator accumulates issues. The zero value is ready to use.
type Validator struct {
	issues []Issue
}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) add(sev Severity, path string, value any, msg string) {
	v.issues = append(v.issues, Issue{Path: path, Message: msg, Value: value, Severity: sev})
}

func (v *Validator) Errorf(path string, value any, format string, args ...any) {
	v.add(SeverityError, path, value, fmt.Sprintf(format, args...))
}

func (v *Validator) Warnf(path string, value any, format string, args ...any) {
	v.add(SeverityWarning, path, value, fmt.Sprintf(format, args...))
}

// Merge appends issues found by another validator.
func (v *Validator) Merge(issues []Issue) {
	v.issues = append(v.issues, issues...)
}

func (v *Validator) Issues() []Issue {
	out := make([]Issue, len(v.issues))
	copy(out, v.issues)
	return out
}

func (v *Validator) Errors() []Issue {
	return filter(v.issues, SeverityError)
}

func (v *Validator) Warnings() []Issue {
	return filter(v.issues, SeverityWarning)
}

func (v *Validator) HasErrors() bool {
	for _, i := range v.issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err bundles the error-severity issues into an *apperr.ValidationError, or returns nil.
func (v *Validator) Err() error {
	errs := v.Errors()
	if len(errs) == 0 {
		return nil
	}
	return apperr.NewValidationWrap(fmt.Sprintf("%d validation error(s)", len(errs)), Issues(errs))
}

func filter(issues []Issue, sev Severity) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

func (v *Validator) NotEmpty(path, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.Errorf(path, nil, "is required")
		return false
	}
	return true
}

func (v *Validator) Positive(path string, value int) bool {
	if value <= 0 {
		v.Errorf(path, value, "must be positive, got %d", value)
		return false
	}
	return true
}

func (v *Validator) NonNegative(path string, value int) bool {
	if value < 0 {
		v.Errorf(path, value, "cannot be negative, got %d", value)
		return false
	}
	return true
}

func (v *Validator) PositiveFloat(path string, value float64) bool {
	if math.IsNaN(value) || value <= 0 {
		v.Errorf(path, value, "must be positive, got %s", formatFloat(value))
		return false
	}
	return true
}

// Fraction checks that value lies in [0, 1].
func (v *Validator) Fraction(path string, value float64) bool {
	if math.IsNaN(value) || value < 0 || value > 1 {
		v.Errorf(path, value, "must be in [0, 1], got %s", formatFloat(value))
		return false
	}
	return true
}

// OneOf checks membership case-insensitively.
func (v *Validator) OneOf(path, value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	v.Errorf(path, value, "must be one of %v, got %q", allowed, value)
	return false
}

// SameLength checks that every named list has the length of the first one.
// Lists are given as name/length pairs in a stable order.
func (v *Validator) SameLength(path string, names []string, lengths []int) bool {
	if len(names) == 0 || len(names) != len(lengths) {
		return true
	}
	ok := true
	for i := 1; i < len(lengths); i++ {
		if lengths[i] != lengths[0] {
			ok = false
			break
		}
	}
	if !ok {
		parts := make([]string, len(names))
		for i := range names {
			parts[i] = names[i] + "=" + strconv.Itoa(lengths[i])
		}
		v.Errorf(path, nil, "lists must have matching lengths (%s)", strings.Join(parts, ", "))
	}
	return ok
}

// Ascending checks that values are strictly increasing.
func (v *Validator) Ascending(path string, values []int) bool {
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			v.Errorf(Index(path, i), values[i], "must be greater than previous value %d, got %d", values[i-1], values[i])
			return false
		}
	}
	return true
}

// NonDecreasing checks that values never go down.
func (v *Validator) NonDecreasing(path string, values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			v.Errorf(Index(path, i), values[i], "must not be less than previous value %s, got %s",
				formatFloat(values[i-1]), formatFloat(values[i]))
			return false
		}
	}
	return true
}

func Field(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func Index(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
