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
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	mosaic "github.com/daffod-l/objekt-mosaic"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "objekt-mosaic",
		Usage:   "compose photo mosaics from a library of tiles",
		Version: "1.0.0",
		Flags: []cli.Flag{
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
				Usage:   "number of go routines",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "increase verbosity",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "sets",
				Usage:  "List the tile sets",
				Action: setsCommand,
			},
			{
				Name:      "palette",
				Usage:     "Build the palette of a tile set and print the average colors",
				ArgsUsage: " ",
				Flags:     selectionFlags(),
				Action:    paletteCommand,
			},
			{
				Name:      "compose",
				Usage:     "Compose a mosaic",
				ArgsUsage: "IN OUT",
				Flags: append(selectionFlags(),
					&cli.IntFlag{
						Name:    "columns",
						Aliases: []string{"c"},
						Value:   mosaic.DefaultColumns,
						Usage:   fmt.Sprintf("number of tile columns (%d to %d)", mosaic.MinColumns, mosaic.MaxColumns),
					},
					&cli.StringFlag{
						Name:  "interp",
						Value: "bilinear",
						Usage: "interpolation used to scale tiles",
					},
					&cli.IntFlag{
						Name:  "jpeg-quality",
						Value: 100,
						Usage: "quality of jpeg output (1 to 100)",
					},
				),
				Action: composeCommand,
			},
		},
	}
}

func selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "set",
			Aliases: []string{"s"},
			Value:   mosaic.DefaultSetName,
			Usage:   "name of the tile set",
		},
		&cli.StringSliceFlag{
			Name:    "member",
			Aliases: []string{"m"},
			Usage:   "use only this member of the tile set (repeatable)",
		},
	}
}

// getPath expands the home directory and returns the absolute path.
func getPath(path string) (string, error) {
	res, pathErr := homedir.Expand(path)
	if pathErr != nil {
		return "", pathErr
	}
	return filepath.Abs(res)
}

func loadLibrary(c *cli.Context) (*mosaic.TileLibrary, error) {
	dir, err := getPath(c.String("tiles"))
	if err != nil {
		return nil, err
	}
	lib, libErr := mosaic.LoadFSTileLibrary(dir, nil)
	if libErr != nil {
		return nil, fmt.Errorf("Can't load tile library from %s: %w", dir, libErr)
	}
	if lib.Len() == 0 {
		return nil, fmt.Errorf("No tile sets found in %s", dir)
	}
	return lib, nil
}

// newSession loads the library and selects the tile set given by the flags.
func newSession(ctx context.Context, c *cli.Context) (*mosaic.Session, error) {
	lib, err := loadLibrary(c)
	if err != nil {
		return nil, err
	}
	session := mosaic.NewSession(lib)
	workers := c.Int("workers")
	session.BuildOptions.NumRoutines = workers
	session.Options.NumRoutines = workers
	if c.Bool("verbose") {
		set, setErr := lib.Get(c.String("set"))
		if setErr == nil {
			session.BuildOptions.Progress = mosaic.LoggerProgressFunc("Decoding tiles",
				len(set.Assets()), 100)
		}
	}
	_, skipped, selectErr := session.SelectTileSet(ctx, c.String("set"), c.StringSlice("member")...)
	if selectErr != nil {
		return nil, selectErr
	}
	for _, decodeErr := range skipped {
		fmt.Fprintln(c.App.ErrWriter, "Skipped tile:", decodeErr)
	}
	return session, nil
}

func setsCommand(c *cli.Context) error {
	lib, err := loadLibrary(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	for _, name := range lib.Names() {
		set, _ := lib.Get(name)
		fmt.Fprintf(c.App.Writer, "%s\t%d tiles\n", name, len(set.Assets()))
	}
	return nil
}

func paletteCommand(c *cli.Context) error {
	session, err := newSession(c.Context, c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	palette := session.Palette()
	for _, tile := range palette.Tiles {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t(%.2f, %.2f, %.2f)\n", tile.Average.Hex(), tile.ID,
			tile.Average.R, tile.Average.G, tile.Average.B)
	}
	fmt.Fprintf(c.App.Writer, "%d tiles, %d skipped\n", palette.Len(), len(session.Skipped()))
	return nil
}

func readImage(path string) (image.Image, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	img, _, decodeErr := image.Decode(r)
	return img, decodeErr
}

func composeCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.ShowCommandHelp(c, c.Command.Name)
	}
	columns := c.Int("columns")
	if err := mosaic.ValidateColumns(columns); err != nil {
		return cli.Exit(err, 1)
	}
	quality := c.Int("jpeg-quality")
	if quality < 1 || quality > 100 {
		return cli.Exit(fmt.Sprintf("jpeg-quality must be a value between 1 and 100, got %d", quality), 1)
	}
	resizer, resizerErr := mosaic.ResizerFromString(c.String("interp"))
	if resizerErr != nil {
		return cli.Exit(resizerErr, 1)
	}
	inPath, inErr := getPath(c.Args().Get(0))
	if inErr != nil {
		return cli.Exit(inErr, 1)
	}
	outPath, outErr := getPath(c.Args().Get(1))
	if outErr != nil {
		return cli.Exit(outErr, 1)
	}
	if !mosaic.JPGAndPNG(filepath.Ext(outPath)) {
		return cli.Exit(fmt.Sprintf("Supported output files are .jpg and .png, got file %s", outPath), 1)
	}

	// interrupting stops the composition between two cells
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	source, readErr := readImage(inPath)
	if readErr != nil {
		return cli.Exit(fmt.Errorf("Can't read %s: %w", inPath, readErr), 1)
	}

	start := time.Now()
	session, sessionErr := newSession(ctx, c)
	if sessionErr != nil {
		return cli.Exit(sessionErr, 1)
	}
	log.WithFields(log.Fields{
		"tiles": session.Palette().Len(),
		"took":  time.Since(start),
	}).Debug("Palette ready")

	session.Options.Resizer = resizer
	if c.Bool("verbose") {
		if grid, gridErr := mosaic.NewGrid(source.Bounds(), columns, mosaic.DefaultAspectRatio); gridErr == nil {
			session.Options.Progress = mosaic.LoggerProgressFunc("Composing", grid.NumCells(),
				mosaic.IntMax(grid.NumCells()/10, 1))
		}
	}
	start = time.Now()
	img, composeErr := session.Compose(ctx, source, columns)
	if composeErr != nil {
		return cli.Exit(composeErr, 1)
	}
	log.WithField("took", time.Since(start)).Debug("Composed mosaic")
	if saveErr := mosaic.SaveImage(outPath, img, quality); saveErr != nil {
		return cli.Exit(saveErr, 1)
	}
	fmt.Fprintln(c.App.Writer, "Mosaic saved to", outPath)
	return nil
}
