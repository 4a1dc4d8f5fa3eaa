package accuracy

import (
	"sort"
	"strings"

	"github.com/DjordjeVuckovic/modelcfg/internal/validate"
)

var knownFrameworks = []string{
	"dlsdk", "openvino", "onnx_runtime", "tf", "tf2", "tf_lite", "caffe",
	"mxnet", "pytorch", "paddle_paddle", "opencv", "g-api",
}

var knownDevices = []string{
	"CPU", "GPU", "NPU", "MYRIAD", "HDDL", "FPGA", "GNA", "HETERO", "MULTI", "AUTO",
}

var knownPreprocessing = map[string]bool{
	"resize": true, "auto_resize": true, "crop": true, "center_crop": true,
	"crop_rectangle": true, "crop_image_with_padding": true, "normalization": true,
	"bgr_to_rgb": true, "rgb_to_bgr": true, "bgr_to_gray": true, "rgb_to_gray": true,
	"bgr_to_yuv": true, "rgb_to_yuv": true, "flip": true, "padding": true,
	"tiling": true, "transpose": true, "select_channel": true, "resize3d": true,
	"crop3d": true, "normalize3d": true, "extend_around_rect": true,
	"point_alignment": true, "free_form_mask": true, "rect_mask": true,
}

var knownMetrics = map[string]bool{
	"accuracy": true, "accuracy_per_class": true, "character_recognition_accuracy": true,
	"classification_f1-score": true, "map": true, "coco_precision": true,
	"coco_orig_precision": true, "recall": true, "miss_rate": true,
	"detection_accuracy": true, "mean_iou": true, "segmentation_accuracy": true,
	"mean_accuracy": true, "frequency_weighted_accuracy": true, "cmc": true,
	"reid_map": true, "pairwise_accuracy": true, "psnr": true, "ssim": true,
	"mae": true, "mse": true, "rmse": true, "f1": true, "wer": true, "bleu": true,
}

// Metrics that take a top_k rank.
var rankedMetrics = map[string]bool{"accuracy": true, "accuracy_per_class": true, "cmc": true}

var interpolationModes = []string{
	"NEAREST", "LINEAR", "BILINEAR", "CUBIC", "BICUBIC", "AREA", "LANCZOS", "LANCZOS4", "BOX", "HAMMING", "MAX",
}

var aspectRatioScales = []string{
	"width", "height", "greater", "fit_to_window", "frcnn_keep_aspect_ratio",
	"east_keep_aspect_ratio", "min_ratio", "ctpn_keep_aspect_ratio",
}

// Validate checks the structure of a benchmark descriptor and returns every
// issue found, errors and warnings alike.
func Validate(c *Config) []validate.Issue {
	v := validate.New()

	warnUnknownKeys(v, "", c.Extra)

	if len(c.Models) == 0 {
		v.Errorf("models", nil, "must contain at least one model")
		return v.Issues()
	}

	seen := make(map[string]int, len(c.Models))
	for i := range c.Models {
		path := validate.Index("models", i)
		m := &c.Models[i]
		if v.NotEmpty(validate.Field(path, "name"), m.Name) {
			if first, dup := seen[m.Name]; dup {
				v.Errorf(validate.Field(path, "name"), m.Name, "duplicates the name of models[%d]", first)
			} else {
				seen[m.Name] = i
			}
		}
		validateModel(v, path, m)
	}

	return v.Issues()
}

func validateModel(v *validate.Validator, path string, m *Model) {
	warnUnknownKeys(v, path, m.Extra)

	if len(m.Launchers) == 0 {
		v.Errorf(validate.Field(path, "launchers"), nil, "must contain at least one launcher")
	}
	for i := range m.Launchers {
		validateLauncher(v, validate.Index(validate.Field(path, "launchers"), i), &m.Launchers[i])
	}

	if len(m.Datasets) == 0 {
		v.Errorf(validate.Field(path, "datasets"), nil, "must contain at least one dataset")
	}
	for i := range m.Datasets {
		validateDataset(v, validate.Index(validate.Field(path, "datasets"), i), &m.Datasets[i])
	}
}

func validateLauncher(v *validate.Validator, path string, l *Launcher) {
	if v.NotEmpty(validate.Field(path, "framework"), l.Framework) && !contains(knownFrameworks, l.Framework) {
		v.Warnf(validate.Field(path, "framework"), l.Framework, "unknown framework %q", l.Framework)
	}
	if l.Device != "" && !validDevice(l.Device) {
		v.Errorf(validate.Field(path, "device"), l.Device, "unknown device %q, expected one of %v", l.Device, knownDevices)
	}
	if l.Batch != 0 {
		v.Positive(validate.Field(path, "batch"), l.Batch)
	}
	if l.Adapter.IsZero() {
		v.Warnf(validate.Field(path, "adapter"), nil, "is not set, raw launcher output will be used")
	}
}

// validDevice accepts plain devices, indexed devices (GPU.1) and
// composite specs (HETERO:GPU,CPU).
func validDevice(device string) bool {
	head, tail, composite := strings.Cut(device, ":")
	if composite {
		if !contains([]string{"HETERO", "MULTI", "AUTO"}, head) || tail == "" {
			return false
		}
		for _, d := range strings.Split(tail, ",") {
			if !validDevice(strings.TrimSpace(d)) {
				return false
			}
		}
		return true
	}
	base, _, _ := strings.Cut(device, ".")
	return contains(knownDevices, base)
}

func validateDataset(v *validate.Validator, path string, d *Dataset) {
	v.NotEmpty(validate.Field(path, "name"), d.Name)

	if d.DataSource == "" {
		v.Warnf(validate.Field(path, "data_source"), nil, "is not set, it must come from a global dataset definition")
	}
	if d.Annotation == "" && d.AnnotationConversion.IsZero() {
		v.Warnf(validate.Field(path, "annotation"), nil, "neither annotation nor annotation_conversion is set")
	}

	for i, s := range d.Preprocessing {
		validatePreprocessing(v, validate.Index(validate.Field(path, "preprocessing"), i), s)
	}
	for i, s := range d.Postprocessing {
		v.NotEmpty(validate.Field(validate.Index(validate.Field(path, "postprocessing"), i), "type"), s.Type)
	}

	names := make(map[string]int, len(d.Metrics))
	for i, s := range d.Metrics {
		mpath := validate.Index(validate.Field(path, "metrics"), i)
		if !validateMetric(v, mpath, s) {
			continue
		}
		name := s.Name()
		if first, dup := names[name]; dup {
			v.Errorf(mpath, name, "metric name %q duplicates metrics[%d]", name, first)
			continue
		}
		names[name] = i
	}
}

func validatePreprocessing(v *validate.Validator, path string, s Step) {
	if !v.NotEmpty(validate.Field(path, "type"), s.Type) {
		return
	}
	if !knownPreprocessing[s.Type] {
		v.Warnf(validate.Field(path, "type"), s.Type, "unknown preprocessing type %q", s.Type)
	}

	switch s.Type {
	case "resize", "crop", "center_crop":
		validateSize(v, path, s)
	}

	if mode, ok := s.String("interpolation"); ok {
		v.OneOf(validate.Field(path, "interpolation"), mode, interpolationModes)
	} else if s.Has("interpolation") {
		v.Errorf(validate.Field(path, "interpolation"), s.Params["interpolation"], "must be a string")
	}
	if scale, ok := s.String("aspect_ratio_scale"); ok {
		v.OneOf(validate.Field(path, "aspect_ratio_scale"), scale, aspectRatioScales)
	}
}

// validateSize requires either size or both dst_width and dst_height. Crops
// may instead keep a central_fraction of the image.
func validateSize(v *validate.Validator, path string, s Step) {
	_, hasSize := positiveInt(v, path, s, "size")
	_, hasW := positiveInt(v, path, s, "dst_width")
	_, hasH := positiveInt(v, path, s, "dst_height")

	if s.Type != "resize" && s.Has("central_fraction") {
		centralFraction(v, path, s)
		if !s.Has("size") && !s.Has("dst_width") && !s.Has("dst_height") {
			return
		}
	}
	if hasSize {
		return
	}
	if hasW != hasH {
		v.Errorf(path, nil, "%s needs both dst_width and dst_height", s.Type)
		return
	}
	if !hasW && !s.Has("size") && !s.Has("dst_width") && !s.Has("dst_height") {
		v.Errorf(path, nil, "%s needs size or dst_width and dst_height", s.Type)
	}
}

func centralFraction(v *validate.Validator, path string, s Step) {
	key := validate.Field(path, "central_fraction")
	f, _, err := s.Float("central_fraction")
	if err != nil {
		v.Errorf(key, s.Params["central_fraction"], "%v", err)
		return
	}
	if f <= 0 || f > 1 {
		v.Errorf(key, f, "must be in (0, 1], got %v", f)
	}
}

func positiveInt(v *validate.Validator, path string, s Step, key string) (int, bool) {
	n, present, err := s.Int(key)
	if !present {
		return 0, false
	}
	if err != nil {
		v.Errorf(validate.Field(path, key), s.Params[key], "%v", err)
		return 0, false
	}
	if !v.Positive(validate.Field(path, key), n) {
		return 0, false
	}
	return n, true
}

func validateMetric(v *validate.Validator, path string, s Step) bool {
	if !v.NotEmpty(validate.Field(path, "type"), s.Type) {
		return false
	}
	if !knownMetrics[s.Type] {
		v.Warnf(validate.Field(path, "type"), s.Type, "unknown metric type %q", s.Type)
	}
	if s.Has("top_k") {
		if !rankedMetrics[s.Type] {
			v.Warnf(validate.Field(path, "top_k"), s.Params["top_k"], "is ignored by metric type %q", s.Type)
		}
		positiveInt(v, path, s, "top_k")
	}
	return true
}

func warnUnknownKeys(v *validate.Validator, path string, extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Warnf(validate.Field(path, k), nil, "unknown key")
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
