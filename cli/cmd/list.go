package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masonry-io/mason/cli/render"
	"github.com/masonry-io/mason/types"
	"github.com/masonry-io/mason/vault"
)

// ListEntry is one row of the list command output.
type ListEntry struct {
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Attempts int     `json:"attempts"`
	Coverage float64 `json:"coverage"`
}

// ListCommand returns the list command. Read-only.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List verified bricks in the vault",
		Flags:  ReadOnlyFlags(),
		Action: listAction,
	}
}

func listAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	store, err := openVault(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	names, err := store.List()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	entries := make([]ListEntry, 0, len(names))
	for _, name := range names {
		brickName, err := types.ParseBrickName(name)
		if err != nil {
			continue
		}
		entry := ListEntry{Name: name}
		if report, err := store.LoadReport(brickName); err == nil {
			entry.Status = string(report.Status)
			entry.Attempts = report.Attempts
			entry.Coverage = report.Coverage
		}
		entries = append(entries, entry)
	}

	return r.Render(entries)
}

// openVault builds a read-only store from flags and config.
func openVault(c *cli.Context) (*vault.Store, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return vault.NewStore(vault.Config{
		Root: firstNonEmpty(c.String("vault"), cfg.Vault.Root),
	}), nil
}
