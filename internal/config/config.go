package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"image-fitness-pipeline/internal/core"
	"image-fitness-pipeline/internal/transform"
)

// Output file names inside OutputDir.
const (
	CompositeFile = "composite.png"
	HeatmapFile   = "difference_map.png"
	ScoreFile     = "score.json"
)

type Config struct {
	ObjectsDir     string               `json:"objects_dir"`
	BaseImage      string               `json:"base_image"`
	ReferenceImage string               `json:"reference_image"`
	OutputDir      string               `json:"output_dir"`
	Seed           uint64               `json:"seed,omitempty"`
	Workers        int                  `json:"workers,omitempty"`
	Resampler      string               `json:"resampler,omitempty"`
	Scale          transform.ScaleRange `json:"scale"`
}

func Default() Config {
	return Config{
		ObjectsDir:     "objects",
		BaseImage:      "image2.png",
		ReferenceImage: "image1.jpeg",
		OutputDir:      "saved",
		Resampler:      transform.DefaultResampler,
		Scale:          transform.DefaultScaleRange,
	}
}

// Path resolves the config file location: the explicit path if given, then
// FITNESS_CONFIG. An empty result means no file.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv("FITNESS_CONFIG")
}

// Load starts from Default, overlays the JSON file at path when it exists and
// then the FITNESS_* environment variables. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("%w: %s: %v", core.ErrInvalidConfig, path, err)
			}
		case os.IsNotExist(err):
		default:
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"FITNESS_OBJECTS_DIR":     &c.ObjectsDir,
		"FITNESS_BASE_IMAGE":      &c.BaseImage,
		"FITNESS_REFERENCE_IMAGE": &c.ReferenceImage,
		"FITNESS_OUTPUT_DIR":      &c.OutputDir,
		"FITNESS_RESAMPLER":       &c.Resampler,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("FITNESS_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: FITNESS_SEED: %v", core.ErrInvalidConfig, err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("FITNESS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: FITNESS_WORKERS: %v", core.ErrInvalidConfig, err)
		}
		c.Workers = n
	}
	return nil
}

func (c Config) Validate() error {
	if c.ObjectsDir == "" || c.BaseImage == "" || c.ReferenceImage == "" || c.OutputDir == "" {
		return fmt.Errorf("%w: objects_dir, base_image, reference_image and output_dir are required", core.ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", core.ErrInvalidConfig, c.Workers)
	}
	if err := c.Scale.Validate(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidConfig, err)
	}
	if _, err := transform.Get(c.Resampler); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) CompositePath() string { return filepath.Join(c.OutputDir, CompositeFile) }
func (c Config) HeatmapPath() string   { return filepath.Join(c.OutputDir, HeatmapFile) }
func (c Config) ScorePath() string     { return filepath.Join(c.OutputDir, ScoreFile) }

// Save writes the config to path atomically using a temp file + rename.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
