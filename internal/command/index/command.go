package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/bornholm/corpus-indexer/internal/command/common"
	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/http/handler/api"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	flagStart        = "start"
	flagEnd          = "end"
	flagDelete       = "delete"
	flagUpdate       = "update"
	flagMappingsOnly = "mappings-only"
	flagAdd          = "add"
	flagProd         = "prod"
	flagRollover     = "rollover"
	flagDetach       = "detach"
)

// settleTimeout bounds the wait for an interrupted job to be swept.
const settleTimeout = 30 * time.Second

func Command() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "Create, populate or update the index of a corpus",
		ArgsUsage: "<corpus>",
		Flags: common.WithCommonFlags(
			&cli.StringFlag{
				Name:  flagStart,
				Usage: "Only index the documents dated from this day (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  flagEnd,
				Usage: "Only index the documents dated up to this day, inclusive (YYYY-MM-DD)",
			},
			&cli.BoolFlag{
				Name:  flagDelete,
				Usage: "Delete an existing index with the same name before creating it",
			},
			&cli.BoolFlag{
				Name:  flagUpdate,
				Usage: "Run the update script of the corpus on its existing index",
			},
			&cli.BoolFlag{
				Name:    flagMappingsOnly,
				Aliases: []string{"create-only"},
				Usage:   "Only create the index with its settings and mappings",
			},
			&cli.BoolFlag{
				Name:  flagAdd,
				Usage: "Add documents to the existing index",
			},
			&cli.BoolFlag{
				Name:  flagProd,
				Usage: "Build a new versioned index with production settings",
			},
			&cli.BoolFlag{
				Name:  flagRollover,
				Usage: "Point the corpus alias to the new index once populated (requires --prod)",
			},
			&cli.BoolFlag{
				Name:  flagDetach,
				Usage: "Do not wait for the job to finish (requires --url)",
			},
		),
		Action: func(cCtx *cli.Context) error {
			corpus := cCtx.Args().First()
			if corpus == "" {
				return errors.New("a corpus name is required")
			}

			req := api.IndexJobRequest{
				Corpus:       model.CorpusName(corpus),
				StartDate:    cCtx.String(flagStart),
				EndDate:      cCtx.String(flagEnd),
				MappingsOnly: cCtx.Bool(flagMappingsOnly),
				Add:          cCtx.Bool(flagAdd),
				Clear:        cCtx.Bool(flagDelete),
				Prod:         cCtx.Bool(flagProd),
				Rollover:     cCtx.Bool(flagRollover),
				Update:       cCtx.Bool(flagUpdate),
			}

			// Validate before any backend is created
			indexReq, err := req.IndexRequest()
			if err != nil {
				return errors.WithStack(err)
			}

			if err := indexReq.Validate(); err != nil {
				return errors.WithStack(err)
			}

			backend, err := common.GetBackend(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			defer backend.Close()

			job, err := backend.Index(cCtx.Context, req)
			if err != nil {
				return errors.WithStack(err)
			}

			slog.InfoContext(cCtx.Context, "job started", slog.String("jobID", string(job.ID)), slog.String("target", job.Target.Server+"/"+job.Target.Name))

			if cCtx.Bool(flagDetach) {
				if _, local := backend.(*common.LocalBackend); local {
					return errors.New("--detach requires a remote server (--url)")
				}

				fmt.Println(job.ID)

				return nil
			}

			job, err = waitOrCancel(cCtx.Context, backend, job.ID)
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

// waitOrCancel waits for the job to settle. An interruption cancels the job
// and waits for it to be swept.
func waitOrCancel(ctx context.Context, backend common.Backend, id model.JobID) (*api.Job, error) {
	waitCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	slog.InfoContext(ctx, "use ctrl+c to cancel the job")

	job, err := backend.WaitFor(waitCtx, id)
	if err == nil {
		return job, nil
	}

	if !errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil, errors.WithStack(err)
	}

	slog.WarnContext(ctx, "interrupted, cancelling job", slog.String("jobID", string(id)))

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	if _, err := backend.CancelJob(settleCtx, id); err != nil {
		return nil, errors.Wrap(err, "could not cancel job")
	}

	job, err = backend.WaitFor(settleCtx, id)
	if err != nil {
		return nil, errors.Wrap(err, "could not wait for cancelled job")
	}

	return job, nil
}
