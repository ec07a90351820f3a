package pipeline

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-fitness-pipeline/internal/config"
	"image-fitness-pipeline/internal/core"
	"image-fitness-pipeline/internal/heatmap"
	imgio "image-fitness-pipeline/internal/io"
	"image-fitness-pipeline/internal/metrics"
)

type fixture struct {
	cfg    config.Config
	loader *imgio.ImageLoader
	hook   *test.Hook
	logger *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cfg := config.Default()
	cfg.ObjectsDir = filepath.Join(dir, "objects")
	cfg.BaseImage = filepath.Join(dir, "base.png")
	cfg.ReferenceImage = filepath.Join(dir, "reference.png")
	cfg.OutputDir = filepath.Join(dir, "saved")
	cfg.Workers = 2

	return &fixture{cfg: cfg, loader: imgio.NewImageLoader(logger), hook: hook, logger: logger}
}

func (f *fixture) write(t *testing.T, path string, img *image.NRGBA) {
	t.Helper()
	require.NoError(t, f.loader.SavePNG(img, path))
}

func (f *fixture) pipeline(t *testing.T, seed uint64) *Pipeline {
	t.Helper()
	rng, _ := NewRand(seed)
	p, err := New(f.cfg, rng, f.logger)
	require.NoError(t, err)
	return p
}

func TestRun_WritesAllArtifacts(t *testing.T) {
	f := newFixture(t)
	base := core.Filled(40, 30, color.NRGBA{R: 20, G: 40, B: 60, A: 255})
	f.write(t, f.cfg.BaseImage, base)
	f.write(t, f.cfg.ReferenceImage, base)
	f.write(t, filepath.Join(f.cfg.ObjectsDir, "square.png"), core.Filled(6, 4, color.NRGBA{R: 250, A: 255}))

	report, err := f.pipeline(t, 42).Run()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.cfg.ObjectsDir, "square.png"), report.Asset)
	for _, path := range []string{f.cfg.CompositePath(), f.cfg.HeatmapPath(), f.cfg.ScorePath()} {
		assert.FileExists(t, path)
	}

	rec, err := imgio.LoadScore(f.cfg.ScorePath())
	require.NoError(t, err)
	assert.Equal(t, report.Score, rec.Score)
	assert.Equal(t, report.Metrics[ScoreMetric], report.Score)
	assert.Contains(t, report.Metrics, "mean_intensity")

	heat, err := f.loader.LoadImage(f.cfg.HeatmapPath())
	require.NoError(t, err)
	assert.Equal(t, metrics.Score(heat), report.Score, "score must match the persisted heatmap")
}

func TestRun_SameSeedSameResult(t *testing.T) {
	f := newFixture(t)
	base := core.Filled(32, 32, color.NRGBA{G: 90, A: 255})
	f.write(t, f.cfg.BaseImage, base)
	f.write(t, f.cfg.ReferenceImage, core.Filled(32, 32, color.NRGBA{G: 80, B: 10, A: 255}))
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		f.write(t, filepath.Join(f.cfg.ObjectsDir, name), core.Filled(5, 7, color.NRGBA{R: 200, B: 120, A: 200}))
	}

	first, err := f.pipeline(t, 7).Run()
	require.NoError(t, err)
	second, err := f.pipeline(t, 7).Run()
	require.NoError(t, err)

	assert.Equal(t, first.Asset, second.Asset)
	assert.Equal(t, first.Placement, second.Placement)
	assert.Equal(t, first.Score, second.Score)
}

func TestRun_TransparentObjectScoresUnchangedBase(t *testing.T) {
	f := newFixture(t)
	base := core.Filled(16, 12, color.NRGBA{R: 5, G: 6, B: 7, A: 255})
	f.write(t, f.cfg.BaseImage, base)
	f.write(t, f.cfg.ReferenceImage, base)
	f.write(t, filepath.Join(f.cfg.ObjectsDir, "ghost.png"), core.Filled(4, 4, color.NRGBA{R: 255, G: 255, A: 0}))

	report, err := f.pipeline(t, 3).Run()
	require.NoError(t, err)

	composite, err := f.loader.LoadImage(f.cfg.CompositePath())
	require.NoError(t, err)
	assert.Equal(t, base.Pix, composite.Pix)

	assert.Equal(t, 0.0, report.MaxDistance)
	want := metrics.Score(core.Filled(16, 12, heatmap.NRGBA(heatmap.Turbo(0))))
	assert.Equal(t, want, report.Score)
}

func TestRun_NoAssets(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.cfg.BaseImage, core.Filled(4, 4, color.NRGBA{A: 255}))
	f.write(t, f.cfg.ReferenceImage, core.Filled(4, 4, color.NRGBA{A: 255}))

	_, err := f.pipeline(t, 1).Run()
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageSelectAsset, stageErr.Stage)
	assert.ErrorIs(t, err, core.ErrNoAssetsFound)
	assert.NoFileExists(t, f.cfg.CompositePath())

	var sawFailure bool
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Data["stage"] == "select_asset" {
			sawFailure = true
		}
	}
	assert.True(t, sawFailure, "stage failure must be logged")
}

func TestRun_ReferenceMismatchStopsAfterComposite(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.cfg.BaseImage, core.Filled(20, 10, color.NRGBA{A: 255}))
	f.write(t, f.cfg.ReferenceImage, core.Filled(10, 20, color.NRGBA{A: 255}))
	f.write(t, filepath.Join(f.cfg.ObjectsDir, "obj.png"), core.Filled(3, 3, color.NRGBA{B: 255, A: 255}))

	_, err := f.pipeline(t, 5).Run()

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageDiffHeatmap, stageErr.Stage)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	assert.FileExists(t, f.cfg.CompositePath(), "earlier stages are not rolled back")
	assert.NoFileExists(t, f.cfg.HeatmapPath())
	assert.NoFileExists(t, f.cfg.ScorePath())
}

func TestRun_UndecodableObject(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.cfg.BaseImage, core.Filled(4, 4, color.NRGBA{A: 255}))
	f.write(t, f.cfg.ReferenceImage, core.Filled(4, 4, color.NRGBA{A: 255}))
	require.NoError(t, os.MkdirAll(f.cfg.ObjectsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.ObjectsDir, "broken.png"), []byte("nope"), 0o644))

	_, err := f.pipeline(t, 1).Run()

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageComposite, stageErr.Stage)
	assert.ErrorIs(t, err, core.ErrDecode)
}

func TestDiff_MismatchWritesNothing(t *testing.T) {
	f := newFixture(t)
	a := filepath.Join(t.TempDir(), "a.png")
	b := filepath.Join(t.TempDir(), "b.png")
	f.write(t, a, core.Filled(3, 2, color.NRGBA{A: 255}))
	f.write(t, b, core.Filled(2, 3, color.NRGBA{A: 255}))

	out := filepath.Join(t.TempDir(), "diff.png")
	_, err := f.pipeline(t, 1).Diff(a, b, out)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	assert.NoFileExists(t, out)
}

func TestDiffThenScoreFile(t *testing.T) {
	f := newFixture(t)
	a := filepath.Join(t.TempDir(), "a.png")
	b := filepath.Join(t.TempDir(), "b.png")
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, A: 255})
	f.write(t, a, img)
	f.write(t, b, core.Filled(2, 1, color.NRGBA{A: 255}))

	p := f.pipeline(t, 1)
	out := filepath.Join(t.TempDir(), "diff.png")
	res, err := p.Diff(a, b, out)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.MaxDistance)

	all, score, err := p.ScoreFile(out)
	require.NoError(t, err)
	assert.Equal(t, metrics.Score(res.Image), score)
	assert.Equal(t, score, all[ScoreMetric])
}

func TestComposite_ExplicitFiles(t *testing.T) {
	f := newFixture(t)
	obj := filepath.Join(t.TempDir(), "obj.png")
	f.write(t, obj, core.Filled(2, 2, color.NRGBA{R: 255, A: 255}))
	f.write(t, f.cfg.BaseImage, core.Filled(10, 10, color.NRGBA{A: 255}))

	out := filepath.Join(t.TempDir(), "out.png")
	placed, err := f.pipeline(t, 11).Composite(obj, f.cfg.BaseImage, out)
	require.NoError(t, err)
	assert.FileExists(t, out)
	assert.Positive(t, placed.Size.X)
}

func TestNew_InvalidConfig(t *testing.T) {
	f := newFixture(t)
	f.cfg.Resampler = "unknown"
	rng, _ := NewRand(1)
	_, err := New(f.cfg, rng, f.logger)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestNewRand(t *testing.T) {
	_, seed := NewRand(0)
	assert.NotZero(t, seed)

	a, s := NewRand(99)
	assert.Equal(t, uint64(99), s)
	b, _ := NewRand(99)
	assert.Equal(t, a.Uint64(), b.Uint64())
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "diff_heatmap", StageDiffHeatmap.String())
	assert.Equal(t, "stage(42)", Stage(42).String())

	err := &StageError{Stage: StageScore, Err: core.ErrInvalidImage}
	assert.Equal(t, "stage score: invalid image", err.Error())
	assert.ErrorIs(t, err, core.ErrInvalidImage)
}
