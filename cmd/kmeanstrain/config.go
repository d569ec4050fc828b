package main

import "github.com/BurntSushi/toml"

// Config is the on-disk TOML shape for a training run, loaded once at
// startup by the train command.
type Config struct {
	Input                     string  `toml:"input"`
	CategoricalColumns        []int   `toml:"categorical_columns"`
	CategoricalCardinalities  []int   `toml:"categorical_cardinalities"`

	K                    int     `toml:"k"`
	MaxIters             int     `toml:"max_iters"`
	Init                 string  `toml:"init"` // "none", "plusplus", "furthest"
	Standardize          bool    `toml:"standardize"`
	Seed                 int64   `toml:"seed"`
	ChunkSize            int     `toml:"chunk_size"`
	OversampleRounds     int     `toml:"oversample_rounds"`
	OversampleFactor     float64 `toml:"oversample_factor"`
	ConvergenceThreshold float64 `toml:"convergence_threshold"`

	PoolSize int `toml:"pool_size"`

	LogPath      string `toml:"log_path"`
	LogMaxSizeMB int    `toml:"log_max_size_mb"`

	ScatterPath string `toml:"scatter_path"`
	BarPath     string `toml:"bar_path"`
}

func loadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
