package accuracy

import (
	"fmt"
	"testing"

	"github.com/DjordjeVuckovic/modelcfg/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, yaml string) *Config {
	t.Helper()
	c, err := Parse([]byte(yaml))
	require.NoError(t, err)
	return c
}

func errorPaths(issues []validate.Issue) []string {
	var paths []string
	for _, i := range issues {
		if i.Severity == validate.SeverityError {
			paths = append(paths, i.Path)
		}
	}
	return paths
}

func warningPaths(issues []validate.Issue) []string {
	var paths []string
	for _, i := range issues {
		if i.Severity == validate.SeverityWarning {
			paths = append(paths, i.Path)
		}
	}
	return paths
}

func TestValidate_ValidDescriptor(t *testing.T) {
	issues := Validate(mustParse(t, mobilenetYAML))
	assert.Empty(t, issues)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantPath string
	}{
		{
			name:     "no models",
			yaml:     "models: []",
			wantPath: "models",
		},
		{
			name:     "empty document",
			yaml:     "",
			wantPath: "models",
		},
		{
			name: "model without name",
			yaml: `
models:
  - launchers: [{framework: dlsdk, adapter: classification}]
    datasets: [{name: d, data_source: s, annotation: a}]
`,
			wantPath: "models[0].name",
		},
		{
			name: "duplicate model names",
			yaml: `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets: [{name: d, data_source: s, annotation: a}]
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets: [{name: d, data_source: s, annotation: a}]
`,
			wantPath: "models[1].name",
		},
		{
			name: "no launchers",
			yaml: `
models:
  - name: m
    datasets: [{name: d, data_source: s, annotation: a}]
`,
			wantPath: "models[0].launchers",
		},
		{
			name: "launcher without framework",
			yaml: `
models:
  - name: m
    launchers: [{device: CPU, adapter: classification}]
    datasets: [{name: d, data_source: s, annotation: a}]
`,
			wantPath: "models[0].launchers[0].framework",
		},
		{
			name: "bad device",
			yaml: `
models:
  - name: m
    launchers: [{framework: dlsdk, device: TPU, adapter: classification}]
    datasets: [{name: d, data_source: s, annotation: a}]
`,
			wantPath: "models[0].launchers[0].device",
		},
		{
			name: "no datasets",
			yaml: `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
`,
			wantPath: "models[0].datasets",
		},
		{
			name: "resize without size",
			yaml: `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets:
      - name: d
        data_source: s
        annotation: a
        preprocessing:
          - type: resize
            interpolation: BILINEAR
`,
			wantPath: "models[0].datasets[0].preprocessing[0]",
		},
		{
			name: "negative crop size",
			yaml: `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets:
      - name: d
        data_source: s
        annotation: a
        preprocessing:
          - type: crop
            size: -224
`,
			wantPath: "models[0].datasets[0].preprocessing[0].size",
		},
		{
			name: "unknown interpolation",
			yaml: `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets:
      - name: d
        data_source: s
        annotation: a
        preprocessing:
          - type: resize
            size: 256
            interpolation: SPLINE
`,
			wantPath: "models[0].datasets[0].preprocessing[0].interpolation",
		},
		{
			name: "zero top_k",
			yaml: `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets:
      - name: d
        data_source: s
        annotation: a
        metrics:
          - type: accuracy
            top_k: 0
`,
			wantPath: "models[0].datasets[0].metrics[0].top_k",
		},
		{
			name: "duplicate metric names",
			yaml: `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets:
      - name: d
        data_source: s
        annotation: a
        metrics:
          - type: accuracy
            top_k: 1
          - type: accuracy
            top_k: 5
`,
			wantPath: "models[0].datasets[0].metrics[1]",
		},
		{
			name: "metric without type",
			yaml: `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets:
      - name: d
        data_source: s
        annotation: a
        metrics:
          - name: top1
`,
			wantPath: "models[0].datasets[0].metrics[0].type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(mustParse(t, tt.yaml))
			assert.Contains(t, errorPaths(issues), tt.wantPath)
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	c := mustParse(t, `
models:
  - name: m
    launcher: typo
    launchers: [{framework: exotic}]
    datasets:
      - name: d
        preprocessing:
          - type: sharpen
        metrics:
          - type: psnr
            top_k: 3
`)
	issues := Validate(c)

	assert.Empty(t, errorPaths(issues))
	warnings := warningPaths(issues)
	assert.Contains(t, warnings, "models[0].launcher")
	assert.Contains(t, warnings, "models[0].launchers[0].framework")
	assert.Contains(t, warnings, "models[0].launchers[0].adapter")
	assert.Contains(t, warnings, "models[0].datasets[0].data_source")
	assert.Contains(t, warnings, "models[0].datasets[0].annotation")
	assert.Contains(t, warnings, "models[0].datasets[0].preprocessing[0].type")
	assert.Contains(t, warnings, "models[0].datasets[0].metrics[0].top_k")
}

func TestValidate_SizeByDimensions(t *testing.T) {
	c := mustParse(t, `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets:
      - name: d
        data_source: s
        annotation: a
        preprocessing:
          - type: resize
            dst_width: 300
            dst_height: 300
          - type: crop
            dst_width: 224
`)
	issues := Validate(c)
	assert.Equal(t, []string{"models[0].datasets[0].preprocessing[1]"}, errorPaths(issues))
}

func TestValidate_CentralFraction(t *testing.T) {
	const tmpl = `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets:
      - name: d
        data_source: s
        annotation: a
        preprocessing:
          - type: resize
            size: 256
          - type: %s
            central_fraction: %s
`
	tests := []struct {
		name       string
		step       string
		fraction   string
		wantErrors []string
	}{
		{"crop", "crop", "0.875", nil},
		{"center crop keeps all", "center_crop", "1", nil},
		{"zero fraction", "crop", "0", []string{"models[0].datasets[0].preprocessing[1].central_fraction"}},
		{"fraction above one", "crop", "1.5", []string{"models[0].datasets[0].preprocessing[1].central_fraction"}},
		{"not a number", "crop", "most", []string{"models[0].datasets[0].preprocessing[1].central_fraction"}},
		{"resize ignores it", "resize", "0.875", []string{"models[0].datasets[0].preprocessing[1]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(mustParse(t, fmt.Sprintf(tmpl, tt.step, tt.fraction)))
			assert.Equal(t, tt.wantErrors, errorPaths(issues))
		})
	}
}

func TestValidate_TopKOutOfRange(t *testing.T) {
	issues := Validate(mustParse(t, `
models:
  - name: m
    launchers: [{framework: dlsdk, adapter: classification}]
    datasets:
      - name: d
        data_source: s
        annotation: a
        metrics:
          - type: accuracy
            top_k: 18446744073709551615
`))
	require.Len(t, issues, 1)
	assert.Equal(t, "models[0].datasets[0].metrics[0].top_k", issues[0].Path)
	assert.Contains(t, issues[0].Message, "out of range")
}

func TestValidDevice(t *testing.T) {
	tests := []struct {
		device string
		want   bool
	}{
		{"CPU", true},
		{"cpu", true},
		{"GPU.1", true},
		{"HETERO:GPU,CPU", true},
		{"MULTI:CPU, GPU", true},
		{"HETERO:", false},
		{"CPU:GPU", false},
		{"TPU", false},
	}
	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			assert.Equal(t, tt.want, validDevice(tt.device))
		})
	}
}
