package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func creditsCommand() *cli.Command {
	return &cli.Command{
		Name:  "credits",
		Usage: "print credits and version",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintf(cmd.Root().Writer, "pyscribe %s\nMade by Ivan Tyshchenko\n", version)
			return err
		},
	}
}
