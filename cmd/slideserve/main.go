package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-wsi/internal/api"
	"github.com/robert-malhotra/go-wsi/internal/logger"
	"github.com/robert-malhotra/go-wsi/wsi"
)

func main() {
	var (
		addr        string
		readTimeout time.Duration
		cacheMB     int64
		maxHandles  int64
	)

	app := &cli.Command{
		Name:  "slideserve",
		Usage: "Serve whole-slide images over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "cache-mb",
				Usage:       "tile cache size per slide in MiB",
				Value:       32,
				Destination: &cacheMB,
			},
			&cli.Int64Flag{
				Name:        "max-handles",
				Usage:       "file handles per slide",
				Value:       4,
				Destination: &maxHandles,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig()
			if cfg.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = cfg.ServerAddress
			}
			log := logger.FromContext(ctx)

			store := api.NewSlideStore(
				wsi.WithTileCacheSize(cacheMB<<20),
				wsi.WithMaxHandles(int(maxHandles)),
				wsi.WithLogger(log),
			)
			defer store.Close()

			server := api.NewServer(store, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
