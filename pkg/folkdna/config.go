package folkdna

import (
	"io"

	"github.com/himanishpuri/FolkDNA/internal/storage"
)

type Config struct {
	IndexPath string
	Workers   int
	TopN      int
	Progress  io.Writer
	Output    string
	Logger    Logger
}

type Option func(*Config)

func WithIndexPath(path string) Option {
	return func(c *Config) {
		c.IndexPath = path
	}
}

// WithWorkers sets the size of the bulk worker pool. Values below 1 select
// one worker per CPU.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithTopN limits MatchFile results. Zero or less returns every tune.
func WithTopN(n int) Option {
	return func(c *Config) {
		c.TopN = n
	}
}

// WithProgress draws bulk progress bars on w.
func WithProgress(w io.Writer) Option {
	return func(c *Config) {
		c.Progress = w
	}
}

// WithOutput overrides the file EvaluateDataset writes ranked records to.
func WithOutput(path string) Option {
	return func(c *Config) {
		c.Output = path
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func defaultConfig() *Config {
	return &Config{
		IndexPath: storage.DefaultDBFile,
		TopN:      10,
		Logger:    nil,
	}
}
