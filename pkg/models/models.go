package models

import "time"

type Config struct {
	Scanner    ScannerConfig   `yaml:"scanner"`
	Benchmarks BenchmarkConfig `yaml:"benchmarks"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	API        APIConfig       `yaml:"api"`
}

type ScannerConfig struct {
	ScanIntervalSecond int      `yaml:"scan_interval"`
	LogLevel           string   `yaml:"log_level"`
	Workers            int      `yaml:"workers"`
	Targets            []string `yaml:"targets"`
}

type BenchmarkConfig struct {
	Dir string `yaml:"dir"`
}

type MetricsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Port         int           `yaml:"port"`
	Path         string        `yaml:"path"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type APIConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}
