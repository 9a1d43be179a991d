package client

import (
	"net/http"
	"net/url"
	"time"
)

type Options struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	// Credentials sent with each request when the server requires basic auth
	BasicAuth *url.Userinfo
}

type OptionFunc func(opts *Options)

func WithBaseURL(baseURL *url.URL) OptionFunc {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

func WithBasicAuth(username, password string) OptionFunc {
	return func(opts *Options) {
		opts.BasicAuth = url.UserPassword(username, password)
	}
}

func WithHTTPClient(httpClient *http.Client) OptionFunc {
	return func(opts *Options) {
		opts.HTTPClient = httpClient
	}
}

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		BaseURL: &url.URL{
			Scheme: "http",
			Host:   "localhost:3003",
		},
		HTTPClient: &http.Client{
			Timeout: time.Minute,
			Transport: &RateLimitTransport{
				Base:        http.DefaultTransport,
				MaxRetries:  10,
				DefaultWait: time.Second,
			},
		},
	}
	for _, fn := range funcs {
		fn(opts)
	}

	// Credentials embedded in the base url are moved out of it so that they
	// never end up in logs
	if user := opts.BaseURL.User; user != nil {
		if opts.BasicAuth == nil {
			opts.BasicAuth = user
		}

		baseURL := *opts.BaseURL
		baseURL.User = nil
		opts.BaseURL = &baseURL
	}

	return opts
}
