package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masonry-io/mason/cli/render"
	"github.com/masonry-io/mason/foreman"
	"github.com/masonry-io/mason/types"
)

// InspectResponse is the inspect command payload for a stored brick.
type InspectResponse struct {
	Name   string           `json:"name"`
	Code   string           `json:"code"`
	Test   string           `json:"test"`
	Report *types.RunReport `json:"report"`
}

// InspectCommand returns the inspect command. Read-only.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show a stored brick's code, tests, and run report",
		ArgsUsage: "<brick-name>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "checkpoint",
				Usage: "Inspect a run checkpoint file instead of a brick",
			},
		}, ReadOnlyFlags()...),
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if path := c.String("checkpoint"); path != "" {
		cp, err := foreman.LoadCheckpoint(path)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return r.Render(cp)
	}

	if c.NArg() != 1 {
		return cli.Exit("usage: mason inspect <brick-name>", 1)
	}
	name, err := types.ParseBrickName(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	store, err := openVault(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	cand, report, err := store.Load(name)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return r.Render(InspectResponse{
		Name:   name.String(),
		Code:   cand.Code,
		Test:   cand.Test,
		Report: report,
	})
}
