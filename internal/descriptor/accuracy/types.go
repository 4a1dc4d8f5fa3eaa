package accuracy

import (
	"fmt"
	"math"

	"github.com/DjordjeVuckovic/modelcfg/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Config is an accuracy benchmark descriptor: a list of models, each evaluated
// by one or more launchers against one or more datasets.
type Config struct {
	Models []Model        `yaml:"models" json:"models" schema:"required,minItems=1"`
	Extra  map[string]any `yaml:",inline" json:"-"`
}

type Model struct {
	Name      string         `yaml:"name" json:"name" schema:"required,minLength=1"`
	Launchers []Launcher     `yaml:"launchers" json:"launchers" schema:"required,minItems=1"`
	Datasets  []Dataset      `yaml:"datasets" json:"datasets" schema:"required,minItems=1"`
	Extra     map[string]any `yaml:",inline" json:"-"`
}

type Launcher struct {
	Framework string         `yaml:"framework" json:"framework" schema:"required,minLength=1"`
	Device    string         `yaml:"device,omitempty" json:"device,omitempty"`
	Adapter   Ref            `yaml:"adapter,omitempty" json:"adapter,omitempty"`
	Model     string         `yaml:"model,omitempty" json:"model,omitempty"`
	Weights   string         `yaml:"weights,omitempty" json:"weights,omitempty"`
	Batch     int            `yaml:"batch,omitempty" json:"batch,omitempty"`
	Extra     map[string]any `yaml:",inline" json:"-"`
}

type Dataset struct {
	Name                 string         `yaml:"name" json:"name" schema:"required,minLength=1"`
	DataSource           string         `yaml:"data_source,omitempty" json:"data_source,omitempty"`
	Annotation           string         `yaml:"annotation,omitempty" json:"annotation,omitempty"`
	DatasetMeta          string         `yaml:"dataset_meta,omitempty" json:"dataset_meta,omitempty"`
	AnnotationConversion Ref            `yaml:"annotation_conversion,omitempty" json:"annotation_conversion,omitempty"`
	Reader               Ref            `yaml:"reader,omitempty" json:"reader,omitempty"`
	Preprocessing        []Step         `yaml:"preprocessing,omitempty" json:"preprocessing,omitempty"`
	Postprocessing       []Step         `yaml:"postprocessing,omitempty" json:"postprocessing,omitempty"`
	Metrics              []Step         `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Extra                map[string]any `yaml:",inline" json:"-"`
}

// Ref names a strategy either as a bare string ("adapter: classification")
// or as a mapping with a type key and free parameters.
type Ref struct {
	Type   string         `yaml:"type" json:"type"`
	Params map[string]any `yaml:",inline" json:"params,omitempty"`
}

func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Params = nil
		return node.Decode(&r.Type)
	case yaml.MappingNode:
		type plain Ref
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*r = Ref(p)
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a mapping", node.Line)
	}
}

func (r Ref) MarshalYAML() (any, error) {
	if len(r.Params) == 0 {
		return r.Type, nil
	}
	out := make(map[string]any, len(r.Params)+1)
	for k, v := range r.Params {
		out[k] = v
	}
	out["type"] = r.Type
	return out, nil
}

func (r Ref) IsZero() bool {
	return r.Type == "" && len(r.Params) == 0
}

func (Ref) JSONSchema(*schema.Generator) (*schema.JSONSchema, error) {
	minLen := 1
	return &schema.JSONSchema{
		AnyOf: []*schema.JSONSchema{
			{Type: "string", MinLength: &minLen},
			{
				Type:                 "object",
				Properties:           map[string]*schema.JSONSchema{"type": {Type: "string", MinLength: &minLen}},
				Required:             []string{"type"},
				AdditionalProperties: true,
			},
		},
	}, nil
}

// Step is a typed, parameterized operation: a preprocessing transform,
// a postprocessing transform or a metric.
type Step struct {
	Type   string         `yaml:"type" json:"type" schema:"required,minLength=1"`
	Params map[string]any `yaml:",inline" json:"params,omitempty"`
}

// Name returns the step's explicit name parameter, falling back to its type.
func (s Step) Name() string {
	if n, ok := s.Params["name"].(string); ok && n != "" {
		return n
	}
	return s.Type
}

func (s Step) Has(key string) bool {
	_, ok := s.Params[key]
	return ok
}

func (s Step) String(key string) (string, bool) {
	v, ok := s.Params[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Int returns an integral parameter. present reports whether the key exists;
// err is set when it exists but is not an integer.
func (s Step) Int(key string) (val int, present bool, err error) {
	v, ok := s.Params[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case int64:
		if int64(int(n)) != n {
			return 0, true, fmt.Errorf("out of range, got %v", n)
		}
		return int(n), true, nil
	case uint64:
		if n > math.MaxInt {
			return 0, true, fmt.Errorf("out of range, got %v", n)
		}
		return int(n), true, nil
	case float64:
		if n == math.Trunc(n) {
			if n < math.MinInt || n >= -float64(math.MinInt) {
				return 0, true, fmt.Errorf("out of range, got %v", n)
			}
			return int(n), true, nil
		}
	}
	return 0, true, fmt.Errorf("must be an integer, got %v", v)
}

// Float returns a numeric parameter, integral or not.
func (s Step) Float(key string) (val float64, present bool, err error) {
	v, ok := s.Params[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case uint64:
		return float64(n), true, nil
	}
	return 0, true, fmt.Errorf("must be a number, got %v", v)
}
