package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"image-fitness-pipeline/internal/config"
	"image-fitness-pipeline/internal/pipeline"
)

// options holds the persistent flags shared by every command.
type options struct {
	debug      bool
	configPath string
	seed       uint64
	workers    int
	objects    string
	base       string
	reference  string
	output     string
	resampler  string
	scaleMin   float64
	scaleMax   float64
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "fitness",
		Short:         AppName + ": place an object on a base image, diff it against a reference and score the heatmap",
		Version:       AppVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug mode with verbose logging")
	pf.StringVar(&opts.configPath, "config", "", "JSON config file (env: FITNESS_CONFIG)")
	pf.Uint64Var(&opts.seed, "seed", 0, "Random seed; 0 picks one and logs it (env: FITNESS_SEED)")
	pf.IntVar(&opts.workers, "workers", 0, "Row-parallel workers; 0 uses GOMAXPROCS (env: FITNESS_WORKERS)")
	pf.StringVar(&opts.objects, "objects", "", "Directory of candidate object images (env: FITNESS_OBJECTS_DIR)")
	pf.StringVar(&opts.base, "base", "", "Base image the object is placed on (env: FITNESS_BASE_IMAGE)")
	pf.StringVar(&opts.reference, "reference", "", "Reference image the composite is compared to (env: FITNESS_REFERENCE_IMAGE)")
	pf.StringVar(&opts.output, "output", "", "Directory for composite, heatmap and score (env: FITNESS_OUTPUT_DIR)")
	pf.StringVar(&opts.resampler, "resampler", "", "Resampling backend (env: FITNESS_RESAMPLER)")
	pf.Float64Var(&opts.scaleMin, "scale-min", 0, "Smallest random scale factor")
	pf.Float64Var(&opts.scaleMax, "scale-max", 0, "Largest random scale factor")

	root.AddCommand(
		newRunCmd(opts),
		newCompositeCmd(opts),
		newDiffCmd(opts),
		newScoreCmd(opts),
		newAnalyzeCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// resolve builds the effective configuration: defaults, then the config
// file, then environment, then explicitly set flags.
func (o *options) resolve(flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(config.Path(o.configPath))
	if err != nil {
		return config.Config{}, err
	}

	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("seed", func() { cfg.Seed = o.seed })
	set("workers", func() { cfg.Workers = o.workers })
	set("objects", func() { cfg.ObjectsDir = o.objects })
	set("base", func() { cfg.BaseImage = o.base })
	set("reference", func() { cfg.ReferenceImage = o.reference })
	set("output", func() { cfg.OutputDir = o.output })
	set("resampler", func() { cfg.Resampler = o.resampler })
	set("scale-min", func() { cfg.Scale.Min = o.scaleMin })
	set("scale-max", func() { cfg.Scale.Max = o.scaleMax })

	return cfg, cfg.Validate()
}

// setup resolves configuration and builds a pipeline for cmd.
func (o *options) setup(cmd *cobra.Command) (*pipeline.Pipeline, *logrus.Logger, error) {
	logger := initLogger(o.debug)

	cfg, err := o.resolve(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	rng, seed := pipeline.NewRand(cfg.Seed)
	logger.WithFields(logrus.Fields{
		"version":   AppVersion,
		"command":   cmd.Name(),
		"seed":      seed,
		"workers":   cfg.Workers,
		"resampler": cfg.Resampler,
	}).Info("Starting " + AppName)

	p, err := pipeline.New(cfg, rng, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, logger, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
