// Pipeline orchestration: select an object, composite it, diff against the
// reference, score the heatmap and persist the score.
package pipeline

import (
	"fmt"
	"image"
	"math/rand/v2"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"image-fitness-pipeline/internal/config"
	"image-fitness-pipeline/internal/core"
	"image-fitness-pipeline/internal/heatmap"
	imgio "image-fitness-pipeline/internal/io"
	"image-fitness-pipeline/internal/metrics"
	"image-fitness-pipeline/internal/transform"
)

// ScoreMetric is the metric persisted as the run's score.
const ScoreMetric = "darkness_score"

// Pipeline runs the stages of one fitness evaluation. It holds no image
// state between runs.
type Pipeline struct {
	cfg       config.Config
	rng       *rand.Rand
	loader    *imgio.ImageLoader
	placer    *transform.Placer
	generator *heatmap.Generator
	evaluator *metrics.Evaluator
	logger    logrus.FieldLogger
}

// Report summarises a completed run.
type Report struct {
	Asset        string              `json:"asset"`
	Placement    transform.Placement `json:"placement"`
	MaxDistance  float64             `json:"max_distance"`
	MeanDistance float64             `json:"mean_distance"`
	Metrics      map[string]float64  `json:"metrics"`
	Score        float64             `json:"score"`
	Duration     time.Duration       `json:"duration"`
}

// NewRand returns a PCG source for seed. Seed 0 draws a fresh seed, which is
// returned so the run can be reproduced.
func NewRand(seed uint64) (*rand.Rand, uint64) {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed
}

// New validates cfg and wires the stage components. All randomness comes
// from rng.
func New(cfg config.Config, rng *rand.Rand, logger logrus.FieldLogger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resampler, err := transform.Get(cfg.Resampler)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:       cfg,
		rng:       rng,
		loader:    imgio.NewImageLoader(logger),
		placer:    transform.NewPlacer(resampler, cfg.Workers, logger),
		generator: heatmap.NewGenerator(heatmap.Turbo, cfg.Workers, logger),
		evaluator: metrics.NewEvaluator(),
		logger:    logger,
	}, nil
}

// Run executes every stage in order and stops at the first failure, which is
// returned as a *StageError. Nothing is retried or rolled back.
func (p *Pipeline) Run() (*Report, error) {
	start := time.Now()
	report := &Report{}
	p.logger.WithFields(logrus.Fields{
		"objects_dir": p.cfg.ObjectsDir,
		"base_image":  p.cfg.BaseImage,
		"reference":   p.cfg.ReferenceImage,
		"output_dir":  p.cfg.OutputDir,
	}).Info("PIPELINE: Starting run")

	var (
		composite *image.NRGBA
		result    *heatmap.Result
	)

	stages := []struct {
		stage Stage
		run   func() error
	}{
		{StageSelectAsset, func() (err error) {
			report.Asset, err = p.selectAsset()
			return err
		}},
		{StageComposite, func() (err error) {
			composite, report.Placement, err = p.composite(report.Asset, p.cfg.BaseImage, p.cfg.CompositePath())
			return err
		}},
		{StageDiffHeatmap, func() (err error) {
			result, err = p.diffAgainstReference(composite)
			return err
		}},
		{StageScore, func() (err error) {
			report.MaxDistance, report.MeanDistance = result.MaxDistance, result.MeanDistance
			report.Metrics, report.Score, err = p.score(result.Image)
			return err
		}},
		{StagePersist, func() error {
			return imgio.SaveScore(p.cfg.ScorePath(), report.Score)
		}},
	}

	for _, s := range stages {
		stageStart := time.Now()
		if err := s.run(); err != nil {
			p.logger.WithFields(logrus.Fields{
				"stage": s.stage.String(),
				"error": err,
			}).Error("PIPELINE: Stage failed")
			return nil, &StageError{Stage: s.stage, Err: err}
		}
		p.logger.WithFields(logrus.Fields{
			"stage":       s.stage.String(),
			"duration_ms": time.Since(stageStart).Milliseconds(),
		}).Debug("PIPELINE: Stage completed")
	}

	report.Duration = time.Since(start)
	p.logger.WithFields(logrus.Fields{
		"asset":       report.Asset,
		"score":       report.Score,
		"score_path":  p.cfg.ScorePath(),
		"duration_ms": report.Duration.Milliseconds(),
	}).Info("PIPELINE: Run completed")

	return report, nil
}

func (p *Pipeline) selectAsset() (string, error) {
	if err := os.MkdirAll(p.cfg.ObjectsDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrNoAssetsFound, err)
	}
	path, err := imgio.SelectRandom(p.cfg.ObjectsDir, p.rng)
	if err != nil {
		return "", err
	}
	p.logger.WithField("asset", path).Info("PIPELINE: Asset selected")
	return path, nil
}

// composite places the object at objPath onto the image at basePath with
// freshly drawn parameters and writes the result to outPath.
func (p *Pipeline) composite(objPath, basePath, outPath string) (*image.NRGBA, transform.Placement, error) {
	obj, err := p.loader.LoadImage(objPath)
	if err != nil {
		return nil, transform.Placement{}, err
	}
	base, err := p.loader.LoadImage(basePath)
	if err != nil {
		return nil, transform.Placement{}, err
	}

	params := transform.RandomParams(p.rng, base.Bounds().Size(), p.cfg.Scale)
	placed, err := p.placer.Place(base, obj, params)
	if err != nil {
		return nil, transform.Placement{}, err
	}
	if err := p.loader.SavePNG(base, outPath); err != nil {
		return nil, transform.Placement{}, err
	}
	return base, placed, nil
}

func (p *Pipeline) diffAgainstReference(composite *image.NRGBA) (*heatmap.Result, error) {
	reference, err := p.loader.LoadImage(p.cfg.ReferenceImage)
	if err != nil {
		return nil, err
	}
	result, err := p.generator.Generate(reference, composite)
	if err != nil {
		return nil, err
	}
	if err := p.loader.SavePNG(result.Image, p.cfg.HeatmapPath()); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) score(heat *image.NRGBA) (map[string]float64, float64, error) {
	all, err := p.evaluator.CalculateAll(heat)
	if err != nil {
		return nil, 0, err
	}
	p.logger.WithFields(toFields(all)).Info("PIPELINE: Heatmap metrics calculated")
	return all, all[ScoreMetric], nil
}

// Composite runs only the placement stage on explicit files.
func (p *Pipeline) Composite(objPath, basePath, outPath string) (transform.Placement, error) {
	_, placed, err := p.composite(objPath, basePath, outPath)
	return placed, err
}

// Diff renders the heatmap between two image files. On any failure,
// including mismatched dimensions, outPath is not written.
func (p *Pipeline) Diff(pathA, pathB, outPath string) (*heatmap.Result, error) {
	a, err := p.loader.LoadImage(pathA)
	if err != nil {
		return nil, err
	}
	b, err := p.loader.LoadImage(pathB)
	if err != nil {
		return nil, err
	}
	result, err := p.generator.Generate(a, b)
	if err != nil {
		return nil, err
	}
	if err := p.loader.SavePNG(result.Image, outPath); err != nil {
		return nil, err
	}
	return result, nil
}

// ScoreFile computes all heatmap metrics for the image at path.
func (p *Pipeline) ScoreFile(path string) (map[string]float64, float64, error) {
	heat, err := p.loader.LoadImage(path)
	if err != nil {
		return nil, 0, err
	}
	return p.score(heat)
}

func toFields(m map[string]float64) logrus.Fields {
	out := make(logrus.Fields, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
