package config

// Default returns the configuration used when no file overrides a value.
func Default() Config {
	return Config{
		Model: Model{
			Name:      "joytag",
			Dir:       "models",
			FileName:  "model.onnx",
			TagsName:  "selected_tags.csv",
			ImageSize: 448,
			Sigmoid:   true,
			Mean:      [3]float32{0.48145466, 0.4578275, 0.40821073},
			Std:       [3]float32{0.26862954, 0.26130258, 0.27577711},
		},
		Tagging: Tagging{
			Threshold: 0.4,
			MaxTags:   50,
		},
		Paths: Paths{
			BaseDir:      "images",
			OutputDir:    "outputs",
			OutputSuffix: "tags.jsonl",
			Blacklist:    "blacklist.txt",
			LogDir:       "logs",
		},
		Batch: Batch{
			Size:    16,
			Workers: 1,
		},
		Server: Server{
			Host: "0.0.0.0",
			Port: "8000",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
