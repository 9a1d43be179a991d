package jobs

import (
	"os"

	"github.com/bornholm/corpus-indexer/internal/command/common"
	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/pkg/client"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	flagCorpus = "corpus"
	flagPage   = "page"
	flagLimit  = "limit"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Inspect and cancel index jobs",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List jobs, most recent first",
				Flags: common.WithCommonFlags(
					&cli.StringFlag{
						Name:  flagCorpus,
						Usage: "Only list the jobs of this corpus",
					},
					&cli.IntFlag{
						Name:  flagPage,
						Value: 0,
					},
					&cli.IntFlag{
						Name:  flagLimit,
						Value: 20,
					},
				),
				Action: func(cCtx *cli.Context) error {
					backend, err := common.GetBackend(cCtx)
					if err != nil {
						return errors.WithStack(err)
					}

					defer backend.Close()

					jobs, err := backend.ListJobs(cCtx.Context, client.ListJobsOptions{
						Corpus: cCtx.String(flagCorpus),
						Page:   cCtx.Int(flagPage),
						Limit:  cCtx.Int(flagLimit),
					})
					if err != nil {
						return errors.WithStack(err)
					}

					common.PrintJobs(os.Stdout, jobs)

					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Show a job and its tasks",
				ArgsUsage: "<job-id>",
				Flags:     common.WithCommonFlags(),
				Action: func(cCtx *cli.Context) error {
					id, err := jobID(cCtx)
					if err != nil {
						return errors.WithStack(err)
					}

					backend, err := common.GetBackend(cCtx)
					if err != nil {
						return errors.WithStack(err)
					}

					defer backend.Close()

					job, err := backend.GetJob(cCtx.Context, id)
					if err != nil {
						return errors.WithStack(err)
					}

					common.PrintJob(os.Stdout, job)

					return nil
				},
			},
			{
				Name:      "cancel",
				Usage:     "Cancel an unfinished job",
				ArgsUsage: "<job-id>",
				Flags:     common.WithCommonFlags(),
				Action: func(cCtx *cli.Context) error {
					id, err := jobID(cCtx)
					if err != nil {
						return errors.WithStack(err)
					}

					backend, err := common.GetBackend(cCtx)
					if err != nil {
						return errors.WithStack(err)
					}

					defer backend.Close()

					job, err := backend.CancelJob(cCtx.Context, id)
					if err != nil {
						return errors.WithStack(err)
					}

					common.PrintJob(os.Stdout, job)

					return nil
				},
			},
		},
	}
}

func jobID(cCtx *cli.Context) (model.JobID, error) {
	id := cCtx.Args().First()
	if id == "" {
		return "", errors.New("a job id is required")
	}

	return model.JobID(id), nil
}
