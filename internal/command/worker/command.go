package worker

import (
	"log/slog"
	"os"
	"os/signal"

	"github.com/bornholm/corpus-indexer/internal/config"
	"github.com/bornholm/corpus-indexer/internal/setup"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const flagRecover = "recover"

func Command() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Execute the jobs of a shared work queue",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagRecover,
				Usage: "Sweep the unfinished jobs left by crashed processes before consuming the queue (only when no other worker runs)",
			},
		},
		Action: func(cCtx *cli.Context) error {
			ctx, cancel := signal.NotifyContext(cCtx.Context, os.Interrupt)
			defer cancel()

			conf, err := config.Parse()
			if err != nil {
				return errors.Wrap(err, "could not parse config")
			}

			if err := setup.StartWorker(ctx, conf, cCtx.Bool(flagRecover)); err != nil {
				return errors.Wrap(err, "could not start worker")
			}

			slog.InfoContext(ctx, "worker started, use ctrl+c to stop", slog.String("queue", conf.Queue.URI))

			<-ctx.Done()

			return nil
		},
	}
}
