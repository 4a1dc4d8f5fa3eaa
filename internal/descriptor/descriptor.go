// Package descriptor loads benchmark and compression descriptors and routes
// them to the matching validator.
package descriptor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor/accuracy"
	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor/compression"
	"github.com/DjordjeVuckovic/modelcfg/internal/validate"
)

type Kind string

const (
	KindAccuracy    Kind = "accuracy"
	KindCompression Kind = "compression"
)

var Kinds = []Kind{KindAccuracy, KindCompression}

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindAccuracy:
		return KindAccuracy, nil
	case KindCompression:
		return KindCompression, nil
	default:
		return "", fmt.Errorf("unknown descriptor kind %q, expected one of %v", s, Kinds)
	}
}

// IsDescriptorFile reports whether the file extension marks a descriptor.
func IsDescriptorFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml", ".json":
		return true
	}
	return false
}

// DetectKind picks the kind from the file extension, falling back to the
// first non-space byte of the content.
func DetectKind(path string, data []byte) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return KindAccuracy
	case ".json":
		return KindCompression
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return KindCompression
	}
	return KindAccuracy
}

type Document struct {
	Kind        Kind
	Name        string
	Accuracy    *accuracy.Config
	Compression *compression.Config
}

type Options struct {
	// Strict makes warnings fail a document the way errors do.
	Strict bool
}

func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	return Parse(DetectKind(path, data), data)
}

func Parse(kind Kind, data []byte) (*Document, error) {
	switch kind {
	case KindAccuracy:
		c, err := accuracy.Parse(data)
		if err != nil {
			return nil, err
		}
		doc := &Document{Kind: kind, Accuracy: c}
		if len(c.Models) > 0 {
			doc.Name = c.Models[0].Name
		}
		return doc, nil
	case KindCompression:
		c, err := compression.Parse(data)
		if err != nil {
			return nil, err
		}
		return &Document{Kind: kind, Name: c.Model, Compression: c}, nil
	default:
		return nil, fmt.Errorf("unknown descriptor kind %q", kind)
	}
}

// Validate runs the kind-specific checks. passed is false when any error is
// found, or any warning in strict mode.
func Validate(doc *Document, opts Options) (issues []validate.Issue, passed bool) {
	v := validator(doc)
	passed = !v.HasErrors() && (!opts.Strict || len(v.Warnings()) == 0)
	return v.Issues(), passed
}

// Verify returns the errors found in doc as an *apperr.ValidationError, or
// nil when it has none. Warnings never fail it.
func Verify(doc *Document) error {
	return validator(doc).Err()
}

func validator(doc *Document) *validate.Validator {
	v := validate.New()
	switch doc.Kind {
	case KindAccuracy:
		v.Merge(accuracy.Validate(doc.Accuracy))
	case KindCompression:
		v.Merge(compression.Validate(doc.Compression))
	default:
		v.Errorf("", doc.Kind, "unknown descriptor kind %q", doc.Kind)
	}
	return v
}
