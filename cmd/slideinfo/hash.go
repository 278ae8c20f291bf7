package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-wsi/wsi"
)

func hashCmd() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Print a slide's identity hash",
		ArgsUsage: "<slide file>",
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

			fmt.Printf("%s  %s\n", s.QuickHash(), path)
			return nil
		},
	}
}
