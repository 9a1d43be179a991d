package setup

import (
	"context"
	"log/slog"
	"time"

	"github.com/bornholm/corpus-indexer/internal/config"
	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/bornholm/corpus-indexer/internal/metrics"
	"github.com/bornholm/corpus-indexer/internal/task/index"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var getResolverFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.Resolver, error) {
	engines, err := getEngineProviderFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create engine provider from config")
	}

	return service.NewResolver(engines), nil
})

var getPlannerFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.Planner, error) {
	corpora, err := getCorpusStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create corpus store from config")
	}

	engines, err := getEngineProviderFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create engine provider from config")
	}

	jobs, err := getJobStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create job store from config")
	}

	resolver, err := getResolverFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create resolver from config")
	}

	return service.NewPlanner(corpora, engines, jobs, resolver), nil
})

var getTaskHandlersFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (map[model.TaskKind]port.TaskHandler, error) {
	corpora, err := getCorpusStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create corpus store from config")
	}

	engines, err := getEngineProviderFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create engine provider from config")
	}

	readers, err := getReaderProviderFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create reader provider from config")
	}

	jobs, err := getJobStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create job store from config")
	}

	return index.Handlers(corpora, engines, readers, jobs), nil
})

var GetJobManagerFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.JobManager, error) {
	planner, err := getPlannerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create planner from config")
	}

	jobs, err := getJobStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create job store from config")
	}

	corpora, err := getCorpusStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create corpus store from config")
	}

	engines, err := getEngineProviderFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create engine provider from config")
	}

	queue, err := getWorkQueueFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create work queue from config")
	}

	locker, err := getLockerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create locker from config")
	}

	handlers, err := getTaskHandlersFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create task handlers from config")
	}

	return service.NewJobManager(planner, jobs, corpora, engines, queue, locker, handlers), nil
})

var GetEngineProviderFromConfig = getEngineProviderFromConfig

// StartWorker consumes the work queue in the background until ctx is done,
// restarting the consumer with a backoff when it fails. Jobs left unfinished by
// a previous in-process queue are swept first when sweep is true.
func StartWorker(ctx context.Context, conf *config.Config, sweep bool) error {
	manager, err := GetJobManagerFromConfig(ctx, conf)
	if err != nil {
		return errors.WithStack(err)
	}

	if sweep {
		if err := manager.Recover(ctx); err != nil {
			return errors.Wrap(err, "could not recover unfinished jobs")
		}
	}

	go func() {
		backoff := time.Second
		for {
			start := time.Now()
			if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "error while running job manager", slog.Any("error", errors.WithStack(err)))
			}

			if ctx.Err() != nil {
				return
			}

			time.Sleep(backoff)
			if time.Since(start) > backoff/2 {
				backoff = time.Second
			} else {
				backoff *= 2
			}
		}
	}()

	// Collect tasks metrics
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			collectTaskMetrics(ctx, manager)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return nil
}

func collectTaskMetrics(ctx context.Context, manager *service.JobManager) {
	limit := 100

	jobs, err := manager.QueryJobs(ctx, port.QueryJobsOptions{Limit: &limit})
	if err != nil {
		slog.ErrorContext(ctx, "could not query jobs", slog.Any("error", errors.WithStack(err)))
		return
	}

	stats := make(map[model.TaskStatus]float64, len(model.TaskStatuses))
	for _, status := range model.TaskStatuses {
		stats[status] = 0
	}

	for _, j := range jobs {
		for _, t := range j.Tasks {
			stats[t.Status] += 1
		}
	}

	for status, total := range stats {
		metrics.Tasks.With(prometheus.Labels{
			metrics.LabelStatus: string(status),
		}).Set(total)
	}
}
