// Package pricetest builds price series for tests.
package pricetest

import (
	"context"
	"errors"
	"time"

	"github.com/nergy-se/waterheater/pkg/price"
)

// Hourly returns one point per price starting at start.
func Hourly(start time.Time, prices ...float64) []price.Point {
	out := make([]price.Point, len(prices))
	for i, p := range prices {
		s := start.Add(time.Duration(i) * time.Hour)
		out[i] = price.Point{Price: p, Start: s, End: s.Add(time.Hour)}
	}
	return out
}

// Flat returns n points with the same price.
func Flat(start time.Time, n int, p float64) []price.Point {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = p
	}
	return Hourly(start, prices...)
}

var ErrFailed = errors.New("source failed")

// Source replays one response per call. A nil response means failure. The
// last response is repeated once the list is exhausted.
type Source struct {
	SourceName string
	Responses  [][]price.Point
	Calls      int
}

func (s *Source) Name() string {
	return s.SourceName
}

func (s *Source) Fetch(ctx context.Context) ([]price.Point, error) {
	i := s.Calls
	s.Calls++
	if len(s.Responses) == 0 {
		return nil, ErrFailed
	}
	if i >= len(s.Responses) {
		i = len(s.Responses) - 1
	}
	if s.Responses[i] == nil {
		return nil, ErrFailed
	}
	return s.Responses[i], nil
}
