package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vocalens/vocalens/pkg/edit"
	"github.com/vocalens/vocalens/pkg/studio"
)

func newEditCmd(configPath, apiKey *string) *cobra.Command {
	var (
		instruction string
		output      string
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "edit <image>",
		Short: "Apply one natural-language edit to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if instruction == "" {
				return errors.New("--prompt is required")
			}
			cfg, err := loadConfig(*configPath, *apiKey)
			if err != nil {
				return err
			}
			logger := newLogger(quiet)

			image, err := loadImageDataURL(args[0])
			if err != nil {
				return err
			}

			var editOpts []edit.Option
			if cfg.EditModel != "" {
				editOpts = append(editOpts, edit.WithModel(cfg.EditModel))
			}
			editOpts = append(editOpts, edit.WithLogger(logger))
			svc, err := edit.NewService(cmd.Context(), cfg.apiKey, editOpts...)
			if err != nil {
				return err
			}

			st := studio.New(svc, studio.WithLogger(logger))
			st.Load(image)
			item, err := st.ApplyEdit(cmd.Context(), instruction)
			if err != nil {
				return err
			}

			if output == "" {
				output = "edited-" + args[0]
			}
			if err := writeImageDataURL(item.Image, output); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), agentStyle.Render("wrote "+output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&instruction, "prompt", "p", "", "edit instruction (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default edited-<image>)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")
	return cmd
}

func newLogger(quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
