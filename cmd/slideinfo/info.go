package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-wsi/wsi"
)

type levelJSON struct {
	Width      int64   `json:"width"`
	Height     int64   `json:"height"`
	TileWidth  int64   `json:"tile_width"`
	TileHeight int64   `json:"tile_height"`
	Downsample float64 `json:"downsample"`
}

type associatedJSON struct {
	Name   string `json:"name"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
}

type slideJSON struct {
	Path       string            `json:"path"`
	Format     string            `json:"format"`
	QuickHash  string            `json:"quickhash"`
	Width      int64             `json:"width"`
	Height     int64             `json:"height"`
	Levels     []levelJSON       `json:"levels"`
	Associated []associatedJSON  `json:"associated"`
	Properties map[string]string `json:"properties"`
}

func infoCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "info",
		Usage:     "Print a slide's pyramid, associated images and properties",
		ArgsUsage: "<slide file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "emit JSON instead of text", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: a slide file is required", 1)
			}

			s, err := wsi.Open(path, loadConfig().openOptions()...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer s.Close()

			if asJSON {
				return printJSON(s)
			}
			printText(s)
			return nil
		},
	}
}

func printJSON(s *wsi.Slide) error {
	w, h := s.Dimensions()
	out := slideJSON{
		Path:       s.Path(),
		Format:     s.Format(),
		QuickHash:  s.QuickHash(),
		Width:      w,
		Height:     h,
		Levels:     []levelJSON{},
		Associated: []associatedJSON{},
		Properties: s.Properties(),
	}
	for i := 0; i < s.LevelCount(); i++ {
		l, err := s.Level(i)
		if err != nil {
			return err
		}
		out.Levels = append(out.Levels, levelJSON{
			Width:      l.Width(),
			Height:     l.Height(),
			TileWidth:  l.TileWidth(),
			TileHeight: l.TileHeight(),
			Downsample: l.Downsample(),
		})
	}
	for _, name := range s.AssociatedImageNames() {
		aw, ah, err := s.AssociatedImageDimensions(name)
		if err != nil {
			return err
		}
		out.Associated = append(out.Associated, associatedJSON{Name: name, Width: aw, Height: ah})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printText(s *wsi.Slide) {
	w, h := s.Dimensions()
	fmt.Printf("Slide: %s\n", s.Path())
	row("format", s.Format())
	row("dimensions", fmt.Sprintf("%d x %d", w, h))
	row("quickhash", s.QuickHash())

	section("Levels")
	for i := 0; i < s.LevelCount(); i++ {
		l, err := s.Level(i)
		if err != nil {
			continue
		}
		fmt.Printf("%3d  %8d x %-8d tile %dx%d  downsample %g\n",
			i, l.Width(), l.Height(), l.TileWidth(), l.TileHeight(), l.Downsample())
	}

	if names := s.AssociatedImageNames(); len(names) > 0 {
		section("Associated Images")
		for _, name := range names {
			aw, ah, err := s.AssociatedImageDimensions(name)
			if err != nil {
				continue
			}
			fmt.Printf("%-12s %d x %d\n", name, aw, ah)
		}
	}

	section("Properties")
	props := s.Properties()
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row(k, props[k])
	}
}

func section(title string) {
	line := strings.Repeat("-", len(title)+8)
	fmt.Printf("\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-28s %s\n", label+":", value)
}
