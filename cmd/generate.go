package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/blacktop/vidgen/internal/veo"
)

var (
	genPrompt string
	genImage  string
	genPlay   bool
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Generate a single video without the TUI",
	Args:    cobra.NoArgs,
	Example: `  vidgen generate -p "a red fox running through fresh snow, cinematic" -o videos/
  vidgen generate -p "the camera slowly zooms out" -i still.png --play`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sess, err := newSession(ctx, logger)
		if err != nil {
			logger.Error("Invalid configuration", "err", err)
			os.Exit(1)
		}
		defer sess.Close()

		sess.SetPrompt(genPrompt)
		if genImage != "" {
			if err := sess.SelectImage(genImage); err != nil {
				logger.Error("Error loading image", "err", err, "path", genImage)
				os.Exit(1)
			}
		}

		logger.Info("Generating video", "prompt", genPrompt, "image", genImage != "")
		if err := sess.Generate(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Warn("Generation abandoned")
				os.Exit(1)
			}
			failure := veo.Classify(err)
			if failure.Quota() {
				logger.Error("API quota exceeded. Check your plan and billing details.", "code", failure.Code)
			} else {
				logger.Error(failure.Status())
			}
			os.Exit(1)
		}

		saved, err := sess.Download(cfg.OutputFolder)
		if err != nil {
			logger.Error("Error saving video", "err", err)
			os.Exit(1)
		}
		fmt.Printf("Video saved: %s\n", saved)

		// the temp file is removed on exit, so play the saved copy
		if genPlay {
			if err := browser.OpenFile(saved); err != nil {
				logger.Error("Error opening video", "err", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&genPrompt, "prompt", "p", "", "Prompt for video generation")
	generateCmd.Flags().StringVarP(&genImage, "image", "i", "", "Starting image (png, jpeg or webp)")
	generateCmd.Flags().BoolVar(&genPlay, "play", false, "Open the saved video in the default player")
	generateCmd.MarkFlagRequired("prompt")
	generateCmd.MarkFlagFilename("image", "png", "jpg", "jpeg", "webp")
}
