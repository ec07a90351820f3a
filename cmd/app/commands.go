package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"image-fitness-pipeline/internal/analyze"
	"image-fitness-pipeline/internal/config"
	imgio "image-fitness-pipeline/internal/io"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: select, composite, diff, score, persist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			report, err := p.Run()
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func newCompositeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "composite <object> <base> <out.png>",
		Short: "Place an object on a base image with random transforms",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			placed, err := p.Composite(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return printJSON(cmd, placed)
		},
	}
}

func newDiffCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <image-a> <image-b> <out.png>",
		Short: "Render the turbo difference heatmap of two equally sized images",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			result, err := p.Diff(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Difference map saved to: %s (max distance %.4f)\n", args[2], result.MaxDistance)
			return err
		},
	}
}

func newScoreCmd(opts *options) *cobra.Command {
	var jsonOut string

	cmd := &cobra.Command{
		Use:   "score <heatmap>",
		Short: "Compute the darkness score of a heatmap image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			all, score, err := p.ScoreFile(args[0])
			if err != nil {
				return err
			}
			if jsonOut != "" {
				if err := imgio.SaveScore(jsonOut, score); err != nil {
					return err
				}
				logger.WithFields(logrus.Fields{"path": jsonOut, "metrics": len(all)}).Info("Score saved")
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Image score: %v\n", score)
			return err
		},
	}
	cmd.Flags().StringVar(&jsonOut, "json-out", "", "Also write {\"score\": x} to this file")
	return cmd
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "analyze <image> <out.png>",
		Short: "Write an image of the same size filled with the most used colour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := analyze.ParseMethod(method)
			if err != nil {
				return err
			}
			logger := initLogger(opts.debug)
			loader := imgio.NewImageLoader(logger)

			img, err := loader.LoadImage(args[0])
			if err != nil {
				return err
			}
			filled, c, err := analyze.FillDominant(img, m)
			if err != nil {
				return err
			}
			if err := loader.SavePNG(filled, args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Most used color: R:%d, G:%d, B:%d\n", c.R, c.G, c.B)
			return err
		},
	}
	cmd.Flags().StringVar(&method, "method", analyze.MethodExact.String(), "exact, dominantcolor or kmeans")
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := opts.resolve(cmd.Flags())
				if err != nil {
					return err
				}
				return printJSON(cmd, cfg)
			},
		},
		&cobra.Command{
			Use:   "init <path>",
			Short: "Write the default configuration to a file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.Save(args[0], config.Default()); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Config written to: %s\n", args[0])
				return err
			},
		},
	)
	return cmd
}
