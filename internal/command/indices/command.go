package indices

import (
	"os"

	"github.com/bornholm/corpus-indexer/internal/command/common"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const flagServer = "server"

func Command() *cli.Command {
	return &cli.Command{
		Name:  "indices",
		Usage: "Synchronize and list the known indices of the configured servers",
		Flags: common.WithCommonFlags(
			&cli.StringFlag{
				Name:    flagServer,
				Aliases: []string{"s"},
				Usage:   "Only list the indices of this server",
			},
		),
		Action: func(cCtx *cli.Context) error {
			backend, err := common.GetBackend(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			defer backend.Close()

			indices, err := backend.ListIndices(cCtx.Context, cCtx.String(flagServer))
			if err != nil {
				return errors.WithStack(err)
			}

			common.PrintIndices(os.Stdout, indices)

			return nil
		},
	}
}
