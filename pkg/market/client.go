// Package market talks to the warframe.market v1 API: slug derivation for
// its item namespace, the statistics endpoint, and median price extraction.
package market

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/mosestyle/warframe-relic-data/pkg/fetch"
	"github.com/mosestyle/warframe-relic-data/pkg/logging"
)

// BaseURL is the warframe.market v1 API root. Only the statistics endpoint
// is used; the orders endpoint can answer 403 for datacenter IPs.
const BaseURL = "https://api.warframe.market/v1"

// Client wraps the fetch layer for warframe.market calls.
type Client struct {
	fetcher *fetch.Client
	baseURL string
	logger  zerolog.Logger
}

// NewClient creates a client against the production API.
func NewClient(fetcher *fetch.Client) *Client {
	return NewClientWithBaseURL(fetcher, BaseURL)
}

// NewClientWithBaseURL creates a client against a custom API root. Tests
// point this at a mock server.
func NewClientWithBaseURL(fetcher *fetch.Client, baseURL string) *Client {
	return &Client{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  logging.NewLogger("market"),
	}
}

// ItemStatistics fetches the statistics document for one slug candidate.
// A 404 or 403 means the API has no item under that slug; the method
// returns (nil, nil) so the caller can move on to the next candidate.
func (c *Client) ItemStatistics(ctx context.Context, slug string) (*StatisticsDocument, error) {
	u := c.baseURL + "/items/" + url.PathEscape(slug) + "/statistics"

	var doc StatisticsDocument
	err := c.fetcher.GetJSON(ctx, u, &doc)
	if fetch.IsNotFound(err) {
		c.logger.Debug().Str("slug", slug).Msg("No data for slug")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
