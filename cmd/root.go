/*
Copyright © 2024-2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/blacktop/vidgen/internal/config"
	"github.com/blacktop/vidgen/internal/session"
	"github.com/blacktop/vidgen/internal/veo"
)

const logFile = "vidgen.log"

var (
	// flags
	logger          *log.Logger
	verbose         bool
	cfg             = config.Default()
	prompt          string
	imagePath       string
	displayProtocol string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vidgen",
	Short: "Veo video generator TUI",
	Args:  cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
		if err := config.LoadEnv(); err != nil {
			logger.Warn("Failed to load .env", "err", err)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if !slices.Contains(validDisplayProtocols, displayProtocol) {
			logger.Error(fmt.Sprintf("Invalid display protocol (must be one of: %s)", strings.Join(validDisplayProtocols, ", ")), "display", displayProtocol)
			os.Exit(1)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		// keep the alt screen clean
		tuiLogger := logger.With()
		tuiLogger.SetOutput(io.Discard)
		if verbose {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				logger.Error("Error opening log file", "err", err)
				os.Exit(1)
			}
			defer f.Close()
			tuiLogger.SetOutput(f)
		}

		sess, err := newSession(ctx, tuiLogger)
		if err != nil {
			logger.Error("Invalid configuration", "err", err)
			os.Exit(1)
		}
		defer sess.Close()

		sess.SetPrompt(prompt)
		if imagePath != "" {
			if err := sess.SelectImage(imagePath); err != nil {
				logger.Error("Error loading image", "err", err, "path", imagePath)
				os.Exit(1)
			}
		}
		// run
		p := tea.NewProgram(newModel(ctx, sess, &tuiConfig{
			DisplayProtocol: detectDisplayProtocol(displayProtocol),
			OutputFolder:    cfg.OutputFolder,
		}, tuiLogger), tea.WithAltScreen(), tea.WithContext(ctx))
		m, err := p.Run()
		if err != nil && ctx.Err() == nil {
			logger.Error("Error running program", "err", err)
			os.Exit(1)
		}
		if m, ok := m.(model); ok && m.saved != "" {
			fmt.Printf("Video saved: %s\n", m.saved)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newSession validates the configuration and wires the Veo backend into a
// session.
func newSession(ctx context.Context, l *log.Logger) (*session.Session, error) {
	cfg.ResolveAPIKey()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	svc, err := veo.NewGenAI(ctx, cfg.ServiceOptions())
	if err != nil {
		return nil, err
	}
	gen := veo.NewGenerator(svc)
	gen.PollInterval = cfg.PollInterval
	gen.Logger = l

	sess := session.New(gen, l)
	gen.OnProgress = func(p veo.Progress) {
		if p.State == veo.StatePolling {
			sess.SetStatus("Generating... please wait.", session.StatusLoading)
		}
	}
	l.Debug("Session ready", "model", svc.Model(), "aspect", cfg.AspectRatio, "poll", cfg.PollInterval)
	return sess, nil
}

func init() {
	// Override the default error level style.
	styles := log.DefaultStyles()
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR!!").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("204")).
		Foreground(lipgloss.Color("0"))
	// Add a custom style for key `err`
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	styles.Values["err"] = lipgloss.NewStyle().Bold(true)
	logger = log.New(os.Stderr)
	logger.SetStyles(styles)

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "V", false, "Verbose output")
	pf.StringVarP(&cfg.APIKey, "api-key", "k", "", "Gemini API key (overrides GEMINI_API_KEY env_var)")
	pf.StringVarP(&cfg.Model, "model", "m", cfg.Model, fmt.Sprintf("Model to use (%s)", strings.Join(config.ValidModels, ", ")))
	pf.StringVarP(&cfg.AspectRatio, "aspect", "a", cfg.AspectRatio, "Aspect ratio of the video (16:9 or 9:16)")
	pf.StringVarP(&cfg.NegativePrompt, "negative-prompt", "n", "", "What the video should not contain")
	pf.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "Interval between job status checks")
	pf.StringVarP(&cfg.OutputFolder, "output", "o", "", "Output folder")
	rootCmd.MarkPersistentFlagDirname("output")

	rootCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt for video generation")
	rootCmd.Flags().StringVarP(&imagePath, "image", "i", "", "Starting image (png, jpeg or webp)")
	rootCmd.Flags().StringVarP(&displayProtocol, "display", "d", "auto", "Inline image protocol (auto, kitty, iterm or none)")
	rootCmd.MarkFlagFilename("image", "png", "jpg", "jpeg", "webp")
}
