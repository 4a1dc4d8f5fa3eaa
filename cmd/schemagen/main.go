package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor/accuracy"
	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor/compression"
	"github.com/DjordjeVuckovic/modelcfg/pkg/schema"
)

type target struct {
	kind    descriptor.Kind
	name    string
	value   any
	tagKey  string
	example string
	exFile  string
}

func main() {
	outputDir := flag.String("output", "api", "Output directory for generated schemas")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	targets := []target{
		{kind: descriptor.KindAccuracy, name: "accuracy", value: accuracy.Config{}, tagKey: "yaml", example: accuracyExample, exFile: "accuracy-example.yml"},
		{kind: descriptor.KindCompression, name: "compression", value: compression.Config{}, tagKey: "json", example: compressionExample, exFile: "compression-example.json"},
	}

	for _, tg := range targets {
		schemaJSON, err := schema.NewGenerator(schema.WithTagKey(tg.tagKey)).GenerateJSONSchema(tg.value)
		if err != nil {
			log.Fatalf("Failed to generate schema for %s: %v", tg.name, err)
		}

		jsonFile := filepath.Join(*outputDir, tg.name+"-v1.schema.json")
		if err := os.WriteFile(jsonFile, []byte(schemaJSON), 0644); err != nil {
			log.Fatalf("Failed to write JSON schema: %v", err)
		}
		fmt.Printf("Generated JSON schema: %s\n", jsonFile)

		if err := verifyExample(tg); err != nil {
			log.Fatalf("Refusing to write %s example: %v", tg.name, err)
		}
		exFile := filepath.Join(*outputDir, tg.exFile)
		if err := os.WriteFile(exFile, []byte(tg.example), 0644); err != nil {
			log.Fatalf("Failed to write example: %v", err)
		}
		fmt.Printf("Generated example: %s\n", exFile)
	}
}

func verifyExample(tg target) error {
	doc, err := descriptor.Parse(tg.kind, []byte(tg.example))
	if err != nil {
		return err
	}
	return descriptor.Verify(doc)
}

const accuracyExample = `# Accuracy benchmark descriptor example
models:
  - name: mobilenet-v2
    launchers:
      - framework: openvino
        device: CPU
        adapter: classification
        batch: 1
    datasets:
      - name: imagenet_1000_classes
        data_source: ILSVRC2012_img_val
        annotation: imagenet1000.pickle
        dataset_meta: imagenet1000.json
        annotation_conversion:
          converter: imagenet
          annotation_file: val.txt
        preprocessing:
          - type: resize
            size: 256
          - type: crop
            size: 224
        metrics:
          - name: accuracy@top1
            type: accuracy
            top_k: 1
          - name: accuracy@top5
            type: accuracy
            top_k: 5
`

const compressionExample = `{
    "model": "resnet50",
    "pretrained": true,
    "input_info": {
        "sample_size": [1, 3, 224, 224]
    },
    "num_classes": 1000,
    "batch_size": 256,
    "epochs": 30,
    "optimizer": {
        "type": "Adam",
        "base_lr": 0.00001,
        "schedule_type": "multistep",
        "steps": [10, 20]
    },
    "compression": [
        {
            "algorithm": "magnitude_sparsity",
            "params": {
                "schedule": "multistep",
                "multistep_steps": [5, 10],
                "multistep_sparsity_levels": [0.1, 0.3, 0.5]
            }
        },
        {
            "algorithm": "quantization",
            "initializer": {
                "range": {
                    "num_init_samples": 256
                }
            }
        }
    ]
}
`
