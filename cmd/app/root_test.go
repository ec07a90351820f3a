package main

import (
	"bytes"
	"encoding/json"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-fitness-pipeline/internal/config"
	"image-fitness-pipeline/internal/core"
	imgio "image-fitness-pipeline/internal/io"
	"image-fitness-pipeline/internal/metrics"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FITNESS_CONFIG", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitThenShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitness.json")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = execute(t, "--config", path, "--workers", "3", "--output", "elsewhere", "config", "show")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "elsewhere", cfg.OutputDir)
	assert.Equal(t, config.Default().BaseImage, cfg.BaseImage)
}

func TestConfigShow_RejectsBadResampler(t *testing.T) {
	_, err := execute(t, "--resampler", "nearest-ish", "config", "show")
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestScoreCommand(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	heat := filepath.Join(dir, "heat.png")
	img := core.Filled(2, 2, color.NRGBA{R: 30, G: 40, A: 255})
	require.NoError(t, imgio.NewImageLoader(logger).SavePNG(img, heat))

	jsonOut := filepath.Join(dir, "score.json")
	out, err := execute(t, "score", heat, "--json-out", jsonOut)
	require.NoError(t, err)
	assert.Contains(t, out, "Image score: ")

	rec, err := imgio.LoadScore(jsonOut)
	require.NoError(t, err)
	assert.Equal(t, metrics.Score(img), rec.Score)
}

func TestAnalyzeCommand(t *testing.T) {
	logger, _ := test.NewNullLogger()
	loader := imgio.NewImageLoader(logger)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	require.NoError(t, loader.SavePNG(core.Filled(3, 2, color.NRGBA{R: 9, G: 8, B: 7, A: 255}), in))

	out := filepath.Join(dir, "out.png")
	stdout, err := execute(t, "analyze", in, out, "--method", "exact")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Most used color: R:9, G:8, B:7")

	filled, err := loader.LoadImage(out)
	require.NoError(t, err)
	assert.Equal(t, 3, filled.Bounds().Dx())
	assert.Equal(t, uint8(9), filled.Pix[0])
}

func TestAnalyzeCommand_UnknownMethod(t *testing.T) {
	_, err := execute(t, "analyze", "a.png", "b.png", "--method", "median")
	assert.Error(t, err)
}
