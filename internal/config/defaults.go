package config

import "github.com/hyperjump/tfexplorer/internal/camera"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "./data"
	}
	if cfg.Data.Files.Full == "" {
		cfg.Data.Files.Full = "embeddings_full.json"
	}
	if cfg.Data.Files.Projected == "" {
		cfg.Data.Files.Projected = "embeddings_projected.json"
	}
	if cfg.Data.Files.Tokenizer == "" {
		cfg.Data.Files.Tokenizer = "tokenizer_examples.json"
	}
	if cfg.Data.Files.Attention == "" {
		cfg.Data.Files.Attention = "attention_data.json"
	}
	if cfg.Data.DebounceMS == 0 {
		cfg.Data.DebounceMS = 500
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/tfexplorer.db"
	}
	if cfg.Storage.HistoryLimit == 0 {
		cfg.Storage.HistoryLimit = 100
	}
	if cfg.Embedding.NeighborCount == 0 {
		cfg.Embedding.NeighborCount = 10
	}
	if cfg.Embedding.AnalogyCount == 0 {
		cfg.Embedding.AnalogyCount = 5
	}
	if cfg.Embedding.MaxTopN == 0 {
		cfg.Embedding.MaxTopN = 100
	}
	if cfg.Embedding.SuggestCount == 0 {
		cfg.Embedding.SuggestCount = 5
	}
	if cfg.Embedding.SuggestFuzziness == 0 {
		cfg.Embedding.SuggestFuzziness = 2
	}
	if cfg.Camera.MinDistance == 0 {
		cfg.Camera.MinDistance = camera.MinDistance
	}
	if cfg.Camera.Default == (camera.Pose{}) {
		cfg.Camera.Default = camera.DefaultPose()
	}
	if cfg.Camera.ViewportCapacity == 0 {
		cfg.Camera.ViewportCapacity = 256
	}
	if cfg.Attention.TemperatureEpsilon == 0 {
		cfg.Attention.TemperatureEpsilon = 0.01
	}
	if cfg.Attention.MinTemperature == 0 {
		cfg.Attention.MinTemperature = 0.1
	}
	if cfg.Attention.MaxTemperature == 0 {
		cfg.Attention.MaxTemperature = 5
	}
}
