package compression

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/DjordjeVuckovic/modelcfg/pkg/schema"
)

// Config is a training/compression descriptor for a model compression run.
type Config struct {
	Model             string                     `json:"model" schema:"required,minLength=1"`
	Pretrained        *bool                      `json:"pretrained,omitempty"`
	InputInfo         OneOrMany[InputInfo]       `json:"input_info" schema:"required"`
	NumClasses        *int                       `json:"num_classes,omitempty"`
	Dataset           string                     `json:"dataset,omitempty"`
	Preprocessing     *Normalization             `json:"preprocessing,omitempty"`
	Epochs            *int                       `json:"epochs,omitempty"`
	BatchSize         *int                       `json:"batch_size,omitempty"`
	SaveFreq          *int                       `json:"save_freq,omitempty"`
	PrintFreq         *int                       `json:"print_freq,omitempty"`
	CheckpointSaveDir string                     `json:"checkpoint_save_dir,omitempty"`
	Optimizer         *Optimizer                 `json:"optimizer,omitempty"`
	SSDParams         *SSDParams                 `json:"ssd_params,omitempty"`
	Compression       OneOrMany[Algorithm]       `json:"compression" schema:"required"`
	Extra             map[string]json.RawMessage `json:"-"`
}

type InputInfo struct {
	SampleSize []int  `json:"sample_size" schema:"required,minItems=1"`
	Type       string `json:"type,omitempty"`
	Filler     string `json:"filler,omitempty"`
	Keyword    string `json:"keyword,omitempty"`
}

// Normalization holds the per-channel input normalization.
type Normalization struct {
	Mean          []float64 `json:"mean,omitempty"`
	Std           []float64 `json:"std,omitempty"`
	NormalizeCoef *float64  `json:"normalize_coef,omitempty"`
	RGB           *bool     `json:"rgb,omitempty"`
}

type Optimizer struct {
	Type            string         `json:"type" schema:"required"`
	BaseLR          *float64       `json:"base_lr,omitempty"`
	WeightDecay     *float64       `json:"weight_decay,omitempty"`
	ScheduleType    string         `json:"schedule_type,omitempty"`
	Steps           []int          `json:"steps,omitempty"`
	Gamma           *float64       `json:"gamma,omitempty"`
	ScheduleParams  map[string]any `json:"schedule_params,omitempty"`
	OptimizerParams map[string]any `json:"optimizer_params,omitempty"`
}

// SSDParams are the anchor box priors of an SSD detector, one entry per feature map.
type SSDParams struct {
	Steps        []int       `json:"steps,omitempty"`
	MinSizes     []float64   `json:"min_sizes,omitempty"`
	MaxSizes     []float64   `json:"max_sizes,omitempty"`
	AspectRatios [][]float64 `json:"aspect_ratios,omitempty"`
	Variance     []float64   `json:"variance,omitempty"`
	Clip         *bool       `json:"clip,omitempty"`
	Flip         *bool       `json:"flip,omitempty"`
	TopK         *int        `json:"top_k,omitempty"`
	Basenet      string      `json:"basenet,omitempty"`
}

type Algorithm struct {
	Algorithm     string           `json:"algorithm" schema:"required,minLength=1"`
	SparsityInit  *float64         `json:"sparsity_init,omitempty"`
	PruningInit   *float64         `json:"pruning_init,omitempty"`
	Params        *AlgorithmParams `json:"params,omitempty"`
	Initializer   *Initializer     `json:"initializer,omitempty"`
	Weights       *QuantizerSpec   `json:"weights,omitempty"`
	Activations   *QuantizerSpec   `json:"activations,omitempty"`
	IgnoredScopes []string         `json:"ignored_scopes,omitempty"`
	TargetScopes  []string         `json:"target_scopes,omitempty"`
}

type AlgorithmParams struct {
	Schedule                string    `json:"schedule,omitempty"`
	SparsityTarget          *float64  `json:"sparsity_target,omitempty"`
	SparsityTargetEpoch     *int      `json:"sparsity_target_epoch,omitempty"`
	SparsityFreezeEpoch     *int      `json:"sparsity_freeze_epoch,omitempty"`
	MultistepSteps          []int     `json:"multistep_steps,omitempty"`
	MultistepSparsityLevels []float64 `json:"multistep_sparsity_levels,omitempty"`
	PruningTarget           *float64  `json:"pruning_target,omitempty"`
	PruningSteps            *int      `json:"pruning_steps,omitempty"`
}

type Initializer struct {
	Range               OneOrMany[RangeInit] `json:"range,omitempty"`
	BatchnormAdaptation *BNAdaptation        `json:"batchnorm_adaptation,omitempty"`
	Precision           *PrecisionInit       `json:"precision,omitempty"`
}

type RangeInit struct {
	NumInitSamples *int   `json:"num_init_samples,omitempty"`
	Type           string `json:"type,omitempty"`
}

type BNAdaptation struct {
	NumBNAdaptationSamples *int `json:"num_bn_adaptation_samples,omitempty"`
}

type PrecisionInit struct {
	Type          string `json:"type,omitempty"`
	Bits          []int  `json:"bits,omitempty"`
	NumDataPoints *int   `json:"num_data_points,omitempty"`
}

type QuantizerSpec struct {
	Mode       string `json:"mode,omitempty"`
	Bits       *int   `json:"bits,omitempty"`
	PerChannel *bool  `json:"per_channel,omitempty"`
	Signed     *bool  `json:"signed,omitempty"`
}

// OneOrMany decodes either a single JSON object or an array of them.
type OneOrMany[T any] []T

func (l *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one T
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return locate(trimmed, err)
		}
		*l = OneOrMany[T]{one}
		return nil
	}
	var many []T
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return locate(trimmed, err)
	}
	*l = many
	return nil
}

func (OneOrMany[T]) JSONSchema(g *schema.Generator) (*schema.JSONSchema, error) {
	one, err := g.Of(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	minItems := 1
	return &schema.JSONSchema{
		AnyOf: []*schema.JSONSchema{one, {Type: "array", Items: one, MinItems: &minItems}},
	}, nil
}

// Keys consumed by training scripts rather than the compression run itself.
var passthroughKeys = []string{
	"log_dir", "target_device", "workers", "seed", "weights", "mode",
	"resuming_checkpoint_path", "accuracy_aware_training", "test_every_n_epochs",
	"multiprocessing_distributed", "dist_url", "world_size", "rank", "gpu_id",
	"dataset_dir", "disable_compression", "export_to_onnx_standard_ops",
	"input_sample_size", "iter_size", "start_epoch", "test_interval", "ssd_params_file",
	"label_smoothing", "mixed_precision", "cpu_only", "pretrained_model", "pretrained_weights",
}

var knownKeys = func() map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	for _, k := range passthroughKeys {
		keys[k] = true
	}
	return keys
}()

func (c *Config) UnmarshalJSON(data []byte) error {
	type fields Config
	var p fields
	if err := json.Unmarshal(data, &p); err != nil {
		return locate(data, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Config(p)
	for k, v := range raw {
		if knownKeys[k] {
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]json.RawMessage)
		}
		c.Extra[k] = v
	}
	return nil
}
