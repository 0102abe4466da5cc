// Package jsonfeed reads hourly prices from any endpoint returning a JSON
// list of {"price","start","end"} objects.
package jsonfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nergy-se/waterheater/pkg/price"
	"github.com/sirupsen/logrus"
)

type Source struct {
	url        string
	name       string
	httpClient *http.Client
}

func New(feedURL string, httpClient *http.Client) (*Source, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing price feed url (%s): %w", feedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("price feed url must be http or https: %s", feedURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Source{
		url:        feedURL,
		name:       u.Host,
		httpClient: httpClient,
	}, nil
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Fetch(ctx context.Context) ([]price.Point, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed failed with status code: %d", resp.StatusCode)
	}

	var points []price.Point
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("failed to decode price feed: %w", err)
	}

	out := points[:0]
	for _, p := range points {
		if p.End.Sub(p.Start) != time.Hour {
			logrus.WithFields(logrus.Fields{"source": s.name, "start": p.Start, "end": p.End}).Warn("jsonfeed: skipping point that is not one hour")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
