// Copyright 2026 The objekt-mosaic Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	mosaic "github.com/daffod-l/objekt-mosaic"
	"github.com/daffod-l/objekt-mosaic/web"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "objekt-mosaic-server",
		Usage: "serve the mosaic api",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				EnvVars: []string{"MOSAIC_ADDR"},
				Value:   ":8085",
				Usage:   "address to listen on",
			},
			&cli.StringFlag{
				Name:    "tiles",
				EnvVars: []string{"MOSAIC_TILES"},
				Value:   "tiles",
				Usage:   "directory containing one sub directory per tile set",
			},
			&cli.IntFlag{
				Name:    "workers",
				EnvVars: []string{"MOSAIC_WORKERS"},
				Value:   mosaic.DefaultRoutines(),
				Usage:   "number of go routines per request",
			},
			&cli.DurationFlag{
				Name:  "max-age",
				Value: time.Hour,
				Usage: "remove connections without requests for this long",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "increase verbosity",
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	if c.Bool("verbose") {
		log.SetLevel(log.DebugLevel)
	}
	dir, pathErr := homedir.Expand(c.String("tiles"))
	if pathErr != nil {
		return cli.Exit(pathErr, 1)
	}
	dir, pathErr = filepath.Abs(dir)
	if pathErr != nil {
		return cli.Exit(pathErr, 1)
	}
	library, libErr := mosaic.LoadFSTileLibrary(dir, nil)
	if libErr != nil {
		return cli.Exit(libErr, 1)
	}
	log.WithFields(log.Fields{
		"dir":  dir,
		"sets": library.Names(),
	}).Info("Loaded tile library")

	memStorage := web.NewMemStorage()
	appContext := web.NewContext(memStorage, library)
	appContext.NumRoutines = c.Int("workers")
	maxAge := c.Duration("max-age")
	done := web.RunFilter(memStorage, maxAge, maxAge/4+time.Second)
	defer close(done)

	mux := http.NewServeMux()
	web.DefaultHandlers(appContext, mux)
	server := &http.Server{
		Addr:              c.String("addr"),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", server.Addr).Info("Listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return cli.Exit(err, 1)
	}
	return nil
}
