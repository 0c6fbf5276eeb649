package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-museum/internal/log"
	"github.com/teslashibe/go-museum/pkg/geom"
	"github.com/teslashibe/go-museum/pkg/tour"
	"github.com/teslashibe/go-museum/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the museum server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.L()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	src := buildSource(cfg, logger)
	enricher, err := loadEnricher(cfg)
	if err != nil {
		return err
	}

	srv := web.NewServer(
		web.WithAddr(cfg.Server.Addr),
		web.WithStaticDir(cfg.Server.StaticDir),
		web.WithAllowOrigins(cfg.Server.AllowOrigins),
		web.WithMonitorInterval(cfg.Server.MonitorInterval),
		web.WithSpawn(geom.Vec3(cfg.Server.Spawn)),
		web.WithStops(src, enricher),
		web.WithBounds(fallbackBounds(cfg, logger), cfg.Bounds.Padding, cfg.Bounds.Tweaks),
		web.WithSpeech(cfg.Speech.URL, cfg.Speech.Language),
		web.WithSessionOptions(sessionOptions(cfg)...),
		web.WithLogger(logger),
	)

	if cfg.Stops.File != "" && cfg.Stops.Watch {
		fs := &tour.FileSource{Path: cfg.Stops.File}
		go func() {
			err := fs.Watch(ctx, func(stops []tour.Stop, err error) {
				if err == nil && enricher != nil {
					tour.Enrich(stops, enricher)
				}
				srv.ReloadStops(stops, err)
			})
			if err != nil {
				logger.Warn("stop file watch stopped", "path", cfg.Stops.File, "error", err)
			}
		}()
	}

	logger.Info("starting museum", "addr", cfg.Server.Addr, "stops", src.Name())
	return srv.Start(ctx)
}
