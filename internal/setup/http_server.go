package setup

import (
	"context"
	"net/http"

	"github.com/bornholm/corpus-indexer/internal/config"
	httpServer "github.com/bornholm/corpus-indexer/internal/http"
	"github.com/bornholm/corpus-indexer/internal/http/handler/api"
	"github.com/bornholm/corpus-indexer/internal/http/handler/metrics"
	"github.com/bornholm/corpus-indexer/internal/http/middleware/ratelimit"
	"github.com/pkg/errors"
)

var getAPIHandlerFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (http.Handler, error) {
	jobManager, err := GetJobManagerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create job manager from config")
	}

	engines, err := getEngineProviderFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create engine provider from config")
	}

	servers, err := engines.Servers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not list servers")
	}

	names := make([]string, 0, len(servers))
	for _, s := range servers {
		names = append(names, s.Name)
	}

	var handler http.Handler = api.NewHandler(jobManager, names)

	if conf.HTTP.RateLimit.Enabled {
		handler = ratelimit.Middleware(ratelimit.Options{
			TrustHeaders: conf.HTTP.RateLimit.TrustHeaders,
			Interval:     conf.HTTP.RateLimit.Interval,
			MaxBurst:     conf.HTTP.RateLimit.MaxBurst,
			CacheSize:    conf.HTTP.RateLimit.CacheSize,
			CacheTTL:     conf.HTTP.RateLimit.CacheTTL,
			Methods:      []string{http.MethodPost},
		})(handler)
	}

	return handler, nil
})

func NewHTTPServerFromConfig(ctx context.Context, conf *config.Config) (*httpServer.Server, error) {
	api, err := getAPIHandlerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not configure api handler from config")
	}

	options := []httpServer.OptionFunc{
		httpServer.WithAddress(conf.HTTP.Address),
		httpServer.WithBaseURL(conf.HTTP.BaseURL),
		httpServer.WithMount("/api/v1/", api),
		httpServer.WithMount("/metrics/", metrics.NewHandler()),
		httpServer.WithAllowedOrigins(conf.HTTP.AllowedOrigins...),
		httpServer.WithShutdownTimeout(conf.HTTP.ShutdownTimeout),
	}

	if auth := conf.HTTP.BasicAuth; auth.Username != "" {
		var public []string
		if auth.PublicMetrics {
			public = append(public, "/metrics/")
		}

		options = append(options, httpServer.WithBasicAuth(auth.Username, auth.Password, public...))
	}

	server := httpServer.NewServer(options...)

	return server, nil
}
