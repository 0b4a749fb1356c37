package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnemet/lookin/internal/logging"
	"github.com/gnemet/lookin/internal/metrics"
	"github.com/gnemet/lookin/internal/server"
	"github.com/gnemet/lookin/internal/ui"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interactive viewer",
	Long:  `Starts the web viewer. Every browser tab gets its own navigation session over a websocket; open /?config=<name> to pick a layer configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Listen = serveListen
		}
		log := newLogger(cfg)
		m := metrics.New()

		fetcher, dispatcher, err := newDispatcher(cfg, log, m)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Listen:         cfg.Listen,
			DefaultConfig:  cfg.DefaultConfig,
			Markdown:       cfg.Markdown,
			Debounce:       cfg.Debounce(),
			Lang:           cfg.Lang,
			AllowAll:       cfg.AllowAllOrigins,
			AllowedOrigins: cfg.AllowedOrigins,
		}, fetcher, dispatcher, logging.Component(log, "server"), m)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown failed")
			}
		}()

		ui.Banner(os.Stderr, "viewer "+Version)
		ui.Table(os.Stderr, []string{"Setting", "Value"}, [][]string{
			{"Listen", cfg.Listen},
			{"Content", cfg.ContentDir},
			{"Config", cfg.DefaultConfig},
			{"Renderer", dispatcher.RendererName()},
		})
		fmt.Fprintln(os.Stderr)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
