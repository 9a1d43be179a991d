package command

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"

	"github.com/bornholm/corpus-indexer/internal/build"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/bornholm/corpus-indexer/pkg/client"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func Main(name string, usage string, commands ...*cli.Command) {
	app := &cli.App{
		Name:     name,
		Usage:    usage,
		Commands: commands,
		Version:  build.LongVersion,
		Before: func(ctx *cli.Context) error {
			workdir := ctx.String("workdir")
			// Switch to new working directory if defined
			if workdir != "" {
				if err := os.Chdir(workdir); err != nil {
					return errors.Wrap(err, "could not change working directory")
				}
			}

			var level slog.Level
			if err := level.UnmarshalText([]byte(ctx.String("log-level"))); err != nil {
				return errors.Wrapf(err, "invalid log level '%s'", ctx.String("log-level"))
			}

			handlerOpts := &slog.HandlerOptions{
				Level:     level,
				AddSource: ctx.Bool("debug"),
			}

			var handler slog.Handler
			switch format := ctx.String("log-format"); format {
			case "text":
				handler = slog.NewTextHandler(os.Stderr, handlerOpts)
			case "json":
				handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
			default:
				return errors.Errorf("invalid log format '%s'", format)
			}

			logger := slog.New(slogx.ContextHandler{Handler: handler})

			slog.SetDefault(logger)

			return nil
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Value:   false,
				EnvVars: []string{"CORPUS_INDEXER_DEBUG"},
				Usage:   "Toggle debug mode",
			},
			&cli.StringFlag{
				Name:    "workdir",
				Value:   "",
				EnvVars: []string{"CORPUS_INDEXER_WORKDIR"},
				Usage:   "The working directory",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"CORPUS_INDEXER_LOGGER_LEVEL"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "log-format",
				EnvVars: []string{"CORPUS_INDEXER_LOGGER_FORMAT"},
				Usage:   "Set logging format (text, json)",
				Value:   "text",
			},
		},
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}

		debug := ctx.Bool("debug")

		if !debug {
			slog.ErrorContext(ctx.Context, err.Error())
		} else {
			slog.ErrorContext(ctx.Context, fmt.Sprintf("%+v", err))
		}
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		os.Exit(exitCode(err))
	}
}

// Exit codes let scheduled runs tell a busy corpus apart from a failure.
const (
	exitFailure        = 1
	exitInvalidRequest = 2
	exitCorpusBusy     = 3
)

func exitCode(err error) int {
	var clientErr *client.Error

	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, port.ErrCorpusNotReady):
		return exitInvalidRequest
	case errors.Is(err, port.ErrCorpusBusy):
		return exitCorpusBusy
	case errors.As(err, &clientErr):
		switch clientErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return exitInvalidRequest
		case http.StatusConflict:
			return exitCorpusBusy
		}
	}

	return exitFailure
}
