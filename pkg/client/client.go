package client

import (
	"net/http"
	"net/url"
)

// Client talks to the job API of an indexer server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	basicAuth  *url.Userinfo
}

func New(funcs ...OptionFunc) *Client {
	opts := NewOptions(funcs...)
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		basicAuth:  opts.BasicAuth,
	}
}

// Close releases the idle connections of the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
