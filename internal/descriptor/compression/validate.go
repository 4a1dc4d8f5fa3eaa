package compression

import (
	"sort"

	"github.com/DjordjeVuckovic/modelcfg/internal/validate"
)

const (
	AlgoMagnitudeSparsity = "magnitude_sparsity"
	AlgoRBSparsity        = "rb_sparsity"
	AlgoConstSparsity     = "const_sparsity"
	AlgoMovementSparsity  = "movement_sparsity"
	AlgoQuantization      = "quantization"
	AlgoFilterPruning     = "filter_pruning"
	AlgoBinarization      = "binarization"
	AlgoDistillation      = "knowledge_distillation"
)

var knownAlgorithms = []string{
	AlgoMagnitudeSparsity, AlgoRBSparsity, AlgoConstSparsity, AlgoMovementSparsity,
	AlgoQuantization, AlgoFilterPruning, AlgoBinarization, AlgoDistillation,
}

var schedulesByAlgorithm = map[string][]string{
	AlgoMagnitudeSparsity: {"polynomial", "exponential", "adaptive", "multistep"},
	AlgoRBSparsity:        {"polynomial", "exponential", "adaptive", "multistep"},
	AlgoFilterPruning:     {"baseline", "exponential", "exponential_with_bias"},
}

var (
	inputTypes      = []string{"float", "long", "int", "bool"}
	lrSchedules     = []string{"multistep", "step", "plateau", "exponential", "cosine", "poly", "none"}
	rangeInitTypes  = []string{"min_max", "mean_min_max", "threesigma", "percentile", "mean_percentile", "mixed_min_max"}
	precisionInits  = []string{"hawq", "autoq", "manual"}
	quantizerModes  = []string{"symmetric", "asymmetric"}
	minQuantizeBits = 2
	maxQuantizeBits = 8
)

// Validate checks a compression descriptor and returns every issue found.
func Validate(c *Config) []validate.Issue {
	v := validate.New()

	warnUnknownKeys(v, c)

	v.NotEmpty("model", c.Model)
	validateInputInfo(v, c.InputInfo)

	if c.NumClasses != nil {
		v.Positive("num_classes", *c.NumClasses)
	}
	if c.Epochs != nil {
		v.Positive("epochs", *c.Epochs)
	}
	if c.BatchSize != nil {
		v.Positive("batch_size", *c.BatchSize)
	}
	if c.SaveFreq != nil {
		v.NonNegative("save_freq", *c.SaveFreq)
	}
	if c.PrintFreq != nil {
		v.NonNegative("print_freq", *c.PrintFreq)
	}

	if c.Preprocessing != nil {
		validateNormalization(v, c.Preprocessing)
	}
	if c.Optimizer != nil {
		validateOptimizer(v, c.Optimizer, c.Epochs)
	}
	if c.SSDParams != nil {
		validateSSD(v, c.SSDParams)
	}

	validateCompression(v, c.Compression, c.Epochs)

	return v.Issues()
}

func validateInputInfo(v *validate.Validator, infos []InputInfo) {
	if len(infos) == 0 {
		v.Errorf("input_info", nil, "is required")
		return
	}
	for i, info := range infos {
		path := validate.Index("input_info", i)
		if len(infos) == 1 {
			path = "input_info"
		}
		if len(info.SampleSize) == 0 {
			v.Errorf(validate.Field(path, "sample_size"), nil, "is required")
		}
		for d, dim := range info.SampleSize {
			v.Positive(validate.Index(validate.Field(path, "sample_size"), d), dim)
		}
		if info.Type != "" {
			v.OneOf(validate.Field(path, "type"), info.Type, inputTypes)
		}
	}
}

func validateNormalization(v *validate.Validator, n *Normalization) {
	const path = "preprocessing"
	if len(n.Mean) > 0 && len(n.Std) > 0 {
		v.SameLength(path, []string{"mean", "std"}, []int{len(n.Mean), len(n.Std)})
	}
	for i, s := range n.Std {
		v.PositiveFloat(validate.Index(validate.Field(path, "std"), i), s)
	}
	if n.NormalizeCoef != nil {
		v.PositiveFloat(validate.Field(path, "normalize_coef"), *n.NormalizeCoef)
	}
}

func validateOptimizer(v *validate.Validator, o *Optimizer, epochs *int) {
	const path = "optimizer"
	v.NotEmpty(validate.Field(path, "type"), o.Type)
	if o.BaseLR != nil {
		v.PositiveFloat(validate.Field(path, "base_lr"), *o.BaseLR)
	}
	if o.WeightDecay != nil && *o.WeightDecay < 0 {
		v.Errorf(validate.Field(path, "weight_decay"), *o.WeightDecay, "cannot be negative")
	}
	if o.ScheduleType != "" && !contains(lrSchedules, o.ScheduleType) {
		v.Warnf(validate.Field(path, "schedule_type"), o.ScheduleType, "unknown schedule type %q", o.ScheduleType)
	}
	if o.Gamma != nil && (*o.Gamma <= 0 || *o.Gamma > 1) {
		v.Errorf(validate.Field(path, "gamma"), *o.Gamma, "must be in (0, 1]")
	}
	validateSteps(v, validate.Field(path, "steps"), o.Steps, epochs, v.NonNegative)
}

// validateSteps checks epoch milestones: each passes bound, the list is
// strictly ascending, and the last one falls within the training run when
// its length is known.
func validateSteps(v *validate.Validator, path string, steps []int, epochs *int, bound func(string, int) bool) bool {
	for i, s := range steps {
		if !bound(validate.Index(path, i), s) {
			return false
		}
	}
	if !v.Ascending(path, steps) {
		return false
	}
	if epochs != nil && len(steps) > 0 && steps[len(steps)-1] >= *epochs {
		v.Warnf(path, steps[len(steps)-1], "last step %d is not before the final epoch %d", steps[len(steps)-1], *epochs)
	}
	return true
}

func validateSSD(v *validate.Validator, p *SSDParams) {
	const path = "ssd_params"
	v.SameLength(path,
		[]string{"steps", "min_sizes", "max_sizes", "aspect_ratios"},
		[]int{len(p.Steps), len(p.MinSizes), len(p.MaxSizes), len(p.AspectRatios)},
	)
	for i, s := range p.Steps {
		v.Positive(validate.Index(validate.Field(path, "steps"), i), s)
	}
	for i, s := range p.MinSizes {
		v.PositiveFloat(validate.Index(validate.Field(path, "min_sizes"), i), s)
		if i < len(p.MaxSizes) && p.MaxSizes[i] <= s {
			v.Errorf(validate.Index(validate.Field(path, "max_sizes"), i), p.MaxSizes[i],
				"must be greater than min_sizes[%d] (%v)", i, s)
		}
	}
	for i, ratios := range p.AspectRatios {
		for j, r := range ratios {
			v.PositiveFloat(validate.Index(validate.Index(validate.Field(path, "aspect_ratios"), i), j), r)
		}
	}
	if len(p.Variance) > 0 {
		if len(p.Variance) != 2 && len(p.Variance) != 4 {
			v.Errorf(validate.Field(path, "variance"), p.Variance, "must have 2 or 4 entries, got %d", len(p.Variance))
		}
		for i, x := range p.Variance {
			v.PositiveFloat(validate.Index(validate.Field(path, "variance"), i), x)
		}
	}
	if p.TopK != nil {
		v.Positive(validate.Field(path, "top_k"), *p.TopK)
	}
}

func validateCompression(v *validate.Validator, algos []Algorithm, epochs *int) {
	if len(algos) == 0 {
		v.Errorf("compression", nil, "must contain at least one algorithm")
		return
	}
	seen := make(map[string]int, len(algos))
	for i := range algos {
		path := validate.Index("compression", i)
		if len(algos) == 1 {
			path = "compression"
		}
		a := &algos[i]
		if !v.NotEmpty(validate.Field(path, "algorithm"), a.Algorithm) {
			continue
		}
		if !contains(knownAlgorithms, a.Algorithm) {
			v.Errorf(validate.Field(path, "algorithm"), a.Algorithm, "unknown algorithm %q, expected one of %v", a.Algorithm, knownAlgorithms)
			continue
		}
		if first, dup := seen[a.Algorithm]; dup {
			v.Errorf(validate.Field(path, "algorithm"), a.Algorithm, "duplicates compression[%d]", first)
			continue
		}
		seen[a.Algorithm] = i
		validateAlgorithm(v, path, a, epochs)
	}
}

func validateAlgorithm(v *validate.Validator, path string, a *Algorithm, epochs *int) {
	if a.SparsityInit != nil {
		v.Fraction(validate.Field(path, "sparsity_init"), *a.SparsityInit)
	}
	if a.PruningInit != nil {
		v.Fraction(validate.Field(path, "pruning_init"), *a.PruningInit)
	}
	if a.Params != nil {
		validateParams(v, validate.Field(path, "params"), a, epochs)
	}
	if a.Initializer != nil {
		validateInitializer(v, validate.Field(path, "initializer"), a.Initializer)
	}
	validateQuantizer(v, validate.Field(path, "weights"), a.Weights)
	validateQuantizer(v, validate.Field(path, "activations"), a.Activations)
}

func validateParams(v *validate.Validator, path string, a *Algorithm, epochs *int) {
	p := a.Params
	if p.Schedule != "" {
		if allowed, ok := schedulesByAlgorithm[a.Algorithm]; ok {
			v.OneOf(validate.Field(path, "schedule"), p.Schedule, allowed)
		} else {
			v.Warnf(validate.Field(path, "schedule"), p.Schedule, "is ignored by algorithm %q", a.Algorithm)
		}
	}
	if p.SparsityTarget != nil && v.Fraction(validate.Field(path, "sparsity_target"), *p.SparsityTarget) {
		if a.SparsityInit != nil && *p.SparsityTarget < *a.SparsityInit {
			v.Warnf(validate.Field(path, "sparsity_target"), *p.SparsityTarget,
				"is below sparsity_init %v", *a.SparsityInit)
		}
	}
	if p.PruningTarget != nil {
		v.Fraction(validate.Field(path, "pruning_target"), *p.PruningTarget)
	}
	if p.SparsityTargetEpoch != nil {
		v.NonNegative(validate.Field(path, "sparsity_target_epoch"), *p.SparsityTargetEpoch)
	}
	if p.SparsityFreezeEpoch != nil {
		v.NonNegative(validate.Field(path, "sparsity_freeze_epoch"), *p.SparsityFreezeEpoch)
	}
	if p.PruningSteps != nil {
		v.Positive(validate.Field(path, "pruning_steps"), *p.PruningSteps)
	}

	isSparsity := a.Algorithm == AlgoMagnitudeSparsity || a.Algorithm == AlgoRBSparsity
	if isSparsity && (p.Schedule == "multistep" || len(p.MultistepSteps) > 0 || len(p.MultistepSparsityLevels) > 0) {
		validateMultistep(v, path, a, epochs)
	}
}

// validateMultistep checks a stepwise sparsity plan: the first level applies
// immediately, so there is one more level than there are steps. Either list
// may be omitted, in which case the consumer falls back to its defaults.
func validateMultistep(v *validate.Validator, path string, a *Algorithm, epochs *int) {
	p := a.Params
	stepsPath := validate.Field(path, "multistep_steps")
	levelsPath := validate.Field(path, "multistep_sparsity_levels")

	stepsOK := validateSteps(v, stepsPath, p.MultistepSteps, epochs, v.Positive)

	levelsOK := true
	for i, l := range p.MultistepSparsityLevels {
		levelsOK = v.Fraction(validate.Index(levelsPath, i), l) && levelsOK
	}
	if levelsOK {
		levelsOK = v.NonDecreasing(levelsPath, p.MultistepSparsityLevels)
	}

	bothSet := len(p.MultistepSteps) > 0 && len(p.MultistepSparsityLevels) > 0
	if stepsOK && bothSet && len(p.MultistepSparsityLevels) != len(p.MultistepSteps)+1 {
		v.Errorf(levelsPath, nil, "must have exactly one more entry than multistep_steps (%d), got %d",
			len(p.MultistepSteps), len(p.MultistepSparsityLevels))
		return
	}
	if levelsOK && a.SparsityInit != nil && len(p.MultistepSparsityLevels) > 0 &&
		p.MultistepSparsityLevels[0] != *a.SparsityInit {
		v.Warnf(validate.Field(path, "multistep_sparsity_levels[0]"), p.MultistepSparsityLevels[0],
			"differs from sparsity_init %v, the first level wins", *a.SparsityInit)
	}
}

func validateInitializer(v *validate.Validator, path string, init *Initializer) {
	for i, r := range init.Range {
		rpath := validate.Field(path, "range")
		if len(init.Range) > 1 {
			rpath = validate.Index(rpath, i)
		}
		if r.NumInitSamples != nil {
			v.NonNegative(validate.Field(rpath, "num_init_samples"), *r.NumInitSamples)
		}
		if r.Type != "" {
			v.OneOf(validate.Field(rpath, "type"), r.Type, rangeInitTypes)
		}
	}
	if bn := init.BatchnormAdaptation; bn != nil && bn.NumBNAdaptationSamples != nil {
		v.NonNegative(validate.Field(path, "batchnorm_adaptation.num_bn_adaptation_samples"), *bn.NumBNAdaptationSamples)
	}
	if pr := init.Precision; pr != nil {
		ppath := validate.Field(path, "precision")
		if pr.Type != "" {
			v.OneOf(validate.Field(ppath, "type"), pr.Type, precisionInits)
		}
		for i, b := range pr.Bits {
			validateBits(v, validate.Index(validate.Field(ppath, "bits"), i), b)
		}
		if pr.NumDataPoints != nil {
			v.Positive(validate.Field(ppath, "num_data_points"), *pr.NumDataPoints)
		}
	}
}

func validateQuantizer(v *validate.Validator, path string, q *QuantizerSpec) {
	if q == nil {
		return
	}
	if q.Mode != "" {
		v.OneOf(validate.Field(path, "mode"), q.Mode, quantizerModes)
	}
	if q.Bits != nil {
		validateBits(v, validate.Field(path, "bits"), *q.Bits)
	}
}

func validateBits(v *validate.Validator, path string, bits int) {
	if bits < minQuantizeBits || bits > maxQuantizeBits {
		v.Errorf(path, bits, "must be between %d and %d, got %d", minQuantizeBits, maxQuantizeBits, bits)
	}
}

func warnUnknownKeys(v *validate.Validator, c *Config) {
	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Warnf(k, nil, "unknown key")
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
