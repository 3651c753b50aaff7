// Package config holds the run configuration shared by the CLI commands.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"trafficsigns/dataset"
	"trafficsigns/imageprocessor"
	"trafficsigns/utils"

	"github.com/pkg/errors"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config selects the dataset slice to work on and where results go
type Config struct {
	DatasetRoot  string        `json:"dataset_root"`
	Classes      []int         `json:"classes"`
	Tracks       map[int][]int `json:"tracks"`
	TargetWidth  int           `json:"target_width"`
	TargetHeight int           `json:"target_height"`
	DatabasePath string        `json:"database_path"`
	LogFile      string        `json:"log_file"`
	Debug        bool          `json:"debug"`
	VerifyDims   bool          `json:"verify_dims"`
	Force        bool          `json:"force"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		DatasetRoot:  ".",
		Tracks:       map[int][]int{},
		TargetWidth:  imageprocessor.DefaultTargetWidth,
		TargetHeight: imageprocessor.DefaultTargetHeight,
		DatabasePath: utils.GetDefaultDatabasePath(),
	}
}

// Load reads a JSON file over the defaults. Keys absent from the file keep
// their default value.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, errors.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat config file")
	}
	if fileInfo.Size() > maxFileSize {
		return nil, errors.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config JSON")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks class ids, track ids and the target size
func (c *Config) Validate() error {
	if c.TargetWidth <= 0 || c.TargetHeight <= 0 {
		return errors.Errorf("target size must be positive, got %dx%d", c.TargetWidth, c.TargetHeight)
	}

	seen := make(map[int]bool, len(c.Classes))
	for _, class := range c.Classes {
		if class < 0 {
			return errors.Errorf("class ids must be non-negative, got %d", class)
		}
		if seen[class] {
			return errors.Errorf("class %d listed twice", class)
		}
		seen[class] = true
	}

	for class, ids := range c.Tracks {
		for _, id := range ids {
			if id < 0 {
				return errors.Errorf("track ids must be non-negative, got %d for class %d", id, class)
			}
		}
	}
	return nil
}

// TrackFilter converts the track lists for the dataset loader
func (c *Config) TrackFilter() dataset.TrackFilter {
	return dataset.NewTrackFilter(c.Tracks)
}

// TrackedClasses returns the classes that have a track list, sorted
func (c *Config) TrackedClasses() []int {
	classes := make([]int, 0, len(c.Tracks))
	for class := range c.Tracks {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	return classes
}
