package prune

import (
	"os"

	"github.com/bornholm/corpus-indexer/internal/command/common"
	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const flagKeep = "keep"

func Command() *cli.Command {
	return &cli.Command{
		Name:      "prune",
		Usage:     "Delete the obsolete versioned indices of a corpus",
		ArgsUsage: "<corpus>",
		Flags: common.WithCommonFlags(
			&cli.IntFlag{
				Name:  flagKeep,
				Value: 1,
				Usage: "Number of most recent versions to keep, aliased indices are always kept",
			},
		),
		Action: func(cCtx *cli.Context) error {
			corpus := cCtx.Args().First()
			if corpus == "" {
				return errors.New("a corpus name is required")
			}

			req := service.PruneRequest{
				Corpus: model.CorpusName(corpus),
				Keep:   cCtx.Int(flagKeep),
			}

			if err := req.Validate(); err != nil {
				return errors.WithStack(err)
			}

			backend, err := common.GetBackend(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			defer backend.Close()

			job, err := backend.Prune(cCtx.Context, req)
			if err != nil {
				return errors.WithStack(err)
			}

			job, err = backend.WaitFor(cCtx.Context, job.ID)
			if err != nil {
				return errors.WithStack(err)
			}

			common.PrintJob(os.Stdout, job)

			if job.Status != model.TaskStatusDone {
				return errors.Errorf("job '%s' ended with status '%s'", job.ID, job.Status)
			}

			return nil
		},
	}
}
