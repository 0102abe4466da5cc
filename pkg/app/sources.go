package app

import (
	"net/http"

	"github.com/nergy-se/waterheater/pkg/api/v1/config"
	"github.com/nergy-se/waterheater/pkg/price"
	"github.com/nergy-se/waterheater/pkg/price/jsonfeed"
	"github.com/nergy-se/waterheater/pkg/price/nergycloud"
)

// PriceSources builds the configured sources in priority order.
func PriceSources(c *config.CliConfig, httpClient *http.Client) ([]price.Source, error) {
	sources := make([]price.Source, 0, len(c.PriceSources))
	for _, s := range c.PriceSources {
		if s == config.PriceSourceNergy {
			sources = append(sources, nergycloud.New(c.Server, c.Token, httpClient))
			continue
		}
		feed, err := jsonfeed.New(s, httpClient)
		if err != nil {
			return nil, err
		}
		sources = append(sources, feed)
	}
	return sources, nil
}
