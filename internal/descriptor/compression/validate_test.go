package compression

import (
	"testing"

	"github.com/DjordjeVuckovic/modelcfg/internal/validate"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) *Config {
	t.Helper()
	c, err := Parse([]byte(doc))
	require.NoError(t, err)
	return c
}

func paths(issues []validate.Issue, sev validate.Severity) []string {
	var out []string
	for _, i := range issues {
		if i.Severity == sev {
			out = append(out, i.Path)
		}
	}
	return out
}

func TestValidate_ValidDescriptor(t *testing.T) {
	issues := Validate(mustParse(t, ssdSparsityJSON))
	if diff := cmp.Diff([]validate.Issue{}, issues); diff != "" {
		t.Errorf("unexpected issues (-want +got):\n%s", diff)
	}
}

func TestValidate_RequiredKeys(t *testing.T) {
	issues := Validate(mustParse(t, `{}`))
	assert.Equal(t, []string{"model", "input_info", "compression"}, paths(issues, validate.SeverityError))
}

func TestValidate_Errors(t *testing.T) {
	const base = `"model": "m", "input_info": {"sample_size": [1, 3, 224, 224]}`

	tests := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{
			name:     "zero sample dim",
			doc:      `{"model": "m", "input_info": {"sample_size": [1, 0, 224, 224]}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "input_info.sample_size[1]",
		},
		{
			name:     "empty sample size in list",
			doc:      `{"model": "m", "input_info": [{"sample_size": [1, 3]}, {"sample_size": []}], "compression": {"algorithm": "quantization"}}`,
			wantPath: "input_info[1].sample_size",
		},
		{
			name:     "bad input type",
			doc:      `{"model": "m", "input_info": {"sample_size": [1], "type": "complex"}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "input_info.type",
		},
		{
			name:     "zero batch size",
			doc:      `{` + base + `, "batch_size": 0, "compression": {"algorithm": "quantization"}}`,
			wantPath: "batch_size",
		},
		{
			name:     "negative num classes",
			doc:      `{` + base + `, "num_classes": -1, "compression": {"algorithm": "quantization"}}`,
			wantPath: "num_classes",
		},
		{
			name:     "mean and std lengths differ",
			doc:      `{` + base + `, "preprocessing": {"mean": [0.4, 0.4, 0.4], "std": [0.2, 0.2]}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "preprocessing",
		},
		{
			name:     "zero std",
			doc:      `{` + base + `, "preprocessing": {"mean": [0.4], "std": [0]}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "preprocessing.std[0]",
		},
		{
			name:     "optimizer without type",
			doc:      `{` + base + `, "optimizer": {"base_lr": 0.1}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "optimizer.type",
		},
		{
			name:     "negative learning rate",
			doc:      `{` + base + `, "optimizer": {"type": "SGD", "base_lr": -0.1}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "optimizer.base_lr",
		},
		{
			name:     "unsorted optimizer steps",
			doc:      `{` + base + `, "optimizer": {"type": "SGD", "steps": [40, 20]}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "optimizer.steps[1]",
		},
		{
			name:     "zero sample dim in list",
			doc:      `{"model": "m", "input_info": [{"sample_size": [1, 3]}, {"sample_size": [1, -3]}], "compression": {"algorithm": "quantization"}}`,
			wantPath: "input_info[1].sample_size[1]",
		},
		{
			name:     "zero normalize coef",
			doc:      `{` + base + `, "preprocessing": {"normalize_coef": 0}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "preprocessing.normalize_coef",
		},
		{
			name:     "negative weight decay",
			doc:      `{` + base + `, "optimizer": {"type": "Adam", "weight_decay": -0.0001}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "optimizer.weight_decay",
		},
		{
			name:     "gamma above one",
			doc:      `{` + base + `, "optimizer": {"type": "SGD", "gamma": 1.5}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "optimizer.gamma",
		},
		{
			name:     "zero gamma",
			doc:      `{` + base + `, "optimizer": {"type": "SGD", "gamma": 0}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "optimizer.gamma",
		},
		{
			name: "ssd zero step",
			doc: `{` + base + `, "ssd_params": {"steps": [8, 0], "min_sizes": [30, 60], "max_sizes": [60, 111],
				"aspect_ratios": [[2], [2]]}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "ssd_params.steps[1]",
		},
		{
			name: "ssd negative aspect ratio",
			doc: `{` + base + `, "ssd_params": {"steps": [8], "min_sizes": [30], "max_sizes": [60],
				"aspect_ratios": [[2, -3]]}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "ssd_params.aspect_ratios[0][1]",
		},
		{
			name: "ssd lists of different lengths",
			doc: `{` + base + `, "ssd_params": {"steps": [8, 16], "min_sizes": [30, 60], "max_sizes": [60],
				"aspect_ratios": [[2], [2]]}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "ssd_params",
		},
		{
			name: "ssd max below min",
			doc: `{` + base + `, "ssd_params": {"steps": [8], "min_sizes": [60], "max_sizes": [30],
				"aspect_ratios": [[2]]}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "ssd_params.max_sizes[0]",
		},
		{
			name: "ssd variance of three",
			doc: `{` + base + `, "ssd_params": {"steps": [8], "min_sizes": [30], "max_sizes": [60],
				"aspect_ratios": [[2]], "variance": [0.1, 0.1, 0.2]}, "compression": {"algorithm": "quantization"}}`,
			wantPath: "ssd_params.variance",
		},
		{
			name:     "empty compression list",
			doc:      `{` + base + `, "compression": []}`,
			wantPath: "compression",
		},
		{
			name:     "unknown algorithm",
			doc:      `{` + base + `, "compression": {"algorithm": "distillation"}}`,
			wantPath: "compression.algorithm",
		},
		{
			name:     "duplicate algorithm",
			doc:      `{` + base + `, "compression": [{"algorithm": "quantization"}, {"algorithm": "quantization"}]}`,
			wantPath: "compression[1].algorithm",
		},
		{
			name:     "sparsity init above one",
			doc:      `{` + base + `, "compression": {"algorithm": "magnitude_sparsity", "sparsity_init": 1.3}}`,
			wantPath: "compression.sparsity_init",
		},
		{
			name:     "sparsity target below zero",
			doc:      `{` + base + `, "compression": {"algorithm": "rb_sparsity", "params": {"sparsity_target": -0.5}}}`,
			wantPath: "compression.params.sparsity_target",
		},
		{
			name:     "unknown sparsity schedule",
			doc:      `{` + base + `, "compression": {"algorithm": "rb_sparsity", "params": {"schedule": "linear"}}}`,
			wantPath: "compression.params.schedule",
		},
		{
			name: "multistep levels length mismatch",
			doc: `{` + base + `, "compression": {"algorithm": "magnitude_sparsity", "params": {"schedule": "multistep",
				"multistep_steps": [10, 20], "multistep_sparsity_levels": [0.3, 0.5]}}}`,
			wantPath: "compression.params.multistep_sparsity_levels",
		},
		{
			name: "multistep levels decreasing",
			doc: `{` + base + `, "compression": {"algorithm": "magnitude_sparsity", "params": {
				"multistep_steps": [10, 20], "multistep_sparsity_levels": [0.3, 0.6, 0.5]}}}`,
			wantPath: "compression.params.multistep_sparsity_levels[2]",
		},
		{
			name: "multistep steps unsorted",
			doc: `{` + base + `, "compression": {"algorithm": "magnitude_sparsity", "params": {
				"multistep_steps": [20, 10], "multistep_sparsity_levels": [0.3, 0.5, 0.6]}}}`,
			wantPath: "compression.params.multistep_steps[1]",
		},
		{
			name: "multistep zero step",
			doc: `{` + base + `, "compression": {"algorithm": "magnitude_sparsity", "params": {
				"multistep_steps": [0, 10], "multistep_sparsity_levels": [0.1, 0.3, 0.5]}}}`,
			wantPath: "compression.params.multistep_steps[0]",
		},
		{
			name:     "pruning target above one",
			doc:      `{` + base + `, "compression": {"algorithm": "filter_pruning", "params": {"pruning_target": 2}}}`,
			wantPath: "compression.params.pruning_target",
		},
		{
			name:     "negative init samples",
			doc:      `{` + base + `, "compression": {"algorithm": "quantization", "initializer": {"range": {"num_init_samples": -1}}}}`,
			wantPath: "compression.initializer.range.num_init_samples",
		},
		{
			name:     "unknown range init type",
			doc:      `{` + base + `, "compression": {"algorithm": "quantization", "initializer": {"range": [{"type": "min_max"}, {"type": "guess"}]}}}`,
			wantPath: "compression.initializer.range[1].type",
		},
		{
			name:     "negative bn adaptation samples",
			doc:      `{` + base + `, "compression": {"algorithm": "quantization", "initializer": {"batchnorm_adaptation": {"num_bn_adaptation_samples": -5}}}}`,
			wantPath: "compression.initializer.batchnorm_adaptation.num_bn_adaptation_samples",
		},
		{
			name:     "precision bits out of range",
			doc:      `{` + base + `, "compression": {"algorithm": "quantization", "initializer": {"precision": {"type": "hawq", "bits": [4, 16]}}}}`,
			wantPath: "compression.initializer.precision.bits[1]",
		},
		{
			name:     "weights quantizer mode",
			doc:      `{` + base + `, "compression": {"algorithm": "quantization", "weights": {"mode": "uniform", "bits": 8}}}`,
			wantPath: "compression.weights.mode",
		},
		{
			name:     "activations bits",
			doc:      `{` + base + `, "compression": {"algorithm": "quantization", "activations": {"bits": 1}}}`,
			wantPath: "compression.activations.bits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(mustParse(t, tt.doc))
			assert.Contains(t, paths(issues, validate.SeverityError), tt.wantPath)
		})
	}
}

func TestValidate_Accepted(t *testing.T) {
	const base = `"model": "m", "input_info": {"sample_size": [1, 3, 300, 300]}`

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "multistep schedule with default lists",
			doc:  `{` + base + `, "compression": {"algorithm": "magnitude_sparsity", "params": {"schedule": "multistep"}}}`,
		},
		{
			name: "multistep levels without steps",
			doc: `{` + base + `, "compression": {"algorithm": "rb_sparsity", "params": {"schedule": "multistep",
				"multistep_sparsity_levels": [0.1, 0.5]}}}`,
		},
		{
			name: "multistep steps without levels",
			doc: `{` + base + `, "compression": {"algorithm": "rb_sparsity", "params": {"schedule": "multistep",
				"multistep_steps": [5, 10]}}}`,
		},
		{
			name: "ssd variance of four",
			doc: `{` + base + `, "ssd_params": {"steps": [8], "min_sizes": [30], "max_sizes": [60],
				"aspect_ratios": [[2]], "variance": [0.1, 0.1, 0.2, 0.2]}, "compression": {"algorithm": "quantization"}}`,
		},
		{
			name: "gamma of one",
			doc:  `{` + base + `, "optimizer": {"type": "SGD", "gamma": 1, "weight_decay": 0}, "compression": {"algorithm": "quantization"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(mustParse(t, tt.doc))
			assert.Empty(t, paths(issues, validate.SeverityError))
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	c := mustParse(t, `{
		"model": "m",
		"input_info": {"sample_size": [1, 3, 224, 224]},
		"epochs": 30,
		"batchsize": 4,
		"optimizer": {"type": "SGD", "schedule_type": "warmup_cosine", "steps": [10, 30]},
		"compression": [
			{"algorithm": "magnitude_sparsity", "sparsity_init": 0.1,
			 "params": {"sparsity_target": 0.05, "multistep_steps": [5], "multistep_sparsity_levels": [0.2, 0.5]}},
			{"algorithm": "quantization", "params": {"schedule": "multistep"}}
		]
	}`)
	issues := Validate(c)

	assert.Empty(t, paths(issues, validate.SeverityError))
	warnings := paths(issues, validate.SeverityWarning)
	assert.Contains(t, warnings, "batchsize")
	assert.Contains(t, warnings, "optimizer.schedule_type")
	assert.Contains(t, warnings, "optimizer.steps")
	assert.Contains(t, warnings, "compression[0].params.sparsity_target")
	assert.Contains(t, warnings, "compression[0].params.multistep_sparsity_levels[0]")
	assert.Contains(t, warnings, "compression[1].params.schedule")
}
