package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/blacktop/vidgen/internal/web"
)

var (
	serveAddr string
	serveOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the single page web UI",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sess, err := newSession(ctx, logger)
		if err != nil {
			logger.Error("Invalid configuration", "err", err)
			os.Exit(1)
		}
		defer sess.Close()

		ln, err := net.Listen("tcp", serveAddr)
		if err != nil {
			logger.Error("Error listening", "err", err, "addr", serveAddr)
			os.Exit(1)
		}
		srv := &http.Server{
			Handler:           web.NewServer(ctx, sess, logger).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		url := "http://" + ln.Addr().String()
		logger.Info("Serving web UI", "url", url)
		if serveOpen {
			if err := browser.OpenURL(url); err != nil {
				logger.Warn("Failed to open browser", "err", err)
			}
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Error serving", "err", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Address to listen on")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the web UI in the default browser")
}
