package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/image/draw"

	"github.com/robert-malhotra/go-wsi/wsi"
)

func thumbCmd() *cli.Command {
	var (
		outPath string
		maxDim  int64
	)

	return &cli.Command{
		Name:      "thumb",
		Usage:     "Render a scaled-down whole-slide thumbnail as PNG",
		ArgsUsage: "<slide file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output PNG path",
				Value:       "thumb.png",
				Destination: &outPath,
			},
			&cli.Int64Flag{
				Name:        "size",
				Usage:       "longest edge of the thumbnail in pixels",
				Value:       512,
				Destination: &maxDim,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: a slide file is required", 1)
			}
			if maxDim <= 0 {
				return cli.Exit("error: --size must be positive", 1)
			}

			s, err := wsi.Open(path, loadConfig().openOptions()...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer s.Close()

			img, err := renderThumbnail(s, maxDim)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			f, err := os.Create(outPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer f.Close()
			if err := png.Encode(f, img); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			fmt.Printf("wrote %s\n", outPath)
			return nil
		},
	}
}

// renderThumbnail reads the coarsest level that still exceeds the target
// size and scales it down to fit a maxDim square.
func renderThumbnail(s *wsi.Slide, maxDim int64) (image.Image, error) {
	w, h := s.Dimensions()
	long := w
	if h > long {
		long = h
	}
	scale := float64(long) / float64(maxDim)
	if scale < 1 {
		scale = 1
	}

	level := s.BestLevelForDownsample(scale)
	lw, lh, err := s.LevelDimensions(level)
	if err != nil {
		return nil, err
	}
	src, err := s.ReadRegion(0, 0, level, int(lw), int(lh))
	if err != nil {
		return nil, err
	}

	outW := int(float64(w) / scale)
	outH := int(float64(h) / scale)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}
