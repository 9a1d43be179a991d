package serve

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bornholm/corpus-indexer/internal/config"
	"github.com/bornholm/corpus-indexer/internal/setup"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const flagNoWorker = "no-worker"

func Command() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the job api, executing jobs in-process",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagNoWorker,
				Usage: "Do not consume the work queue, jobs are executed by separate workers",
			},
		},
		Action: func(cCtx *cli.Context) error {
			ctx, cancel := signal.NotifyContext(cCtx.Context, os.Interrupt)
			defer cancel()

			conf, err := config.Parse()
			if err != nil {
				return errors.Wrap(err, "could not parse config")
			}

			slog.DebugContext(ctx, "using configuration", slog.Any("config", conf))

			if !cCtx.Bool(flagNoWorker) {
				// Chains of an in-process queue do not survive the previous process
				sweep := strings.HasPrefix(conf.Queue.URI, "memory:")

				if err := setup.StartWorker(ctx, conf, sweep); err != nil {
					return errors.Wrap(err, "could not start worker")
				}
			}

			server, err := setup.NewHTTPServerFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not setup http server")
			}

			slog.InfoContext(ctx, "starting server", slog.Any("address", conf.HTTP.Address))

			if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return errors.Wrap(err, "could not run server")
			}

			return nil
		},
	}
}
