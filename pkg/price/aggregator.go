package price

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNotAvailable = errors.New("price information not available")

type Aggregator struct {
	sources []Source
	now     func() time.Time
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{
		sources: sources,
		now:     time.Now,
	}
}

// Acquire asks the sources in priority order for today and tomorrow. When no
// source has tomorrow published yet, the sources are asked again in the same
// order and the first one with a full day of today wins.
func (a *Aggregator) Acquire(ctx context.Context) (*Series, error) {
	for _, threshold := range []int{TodayAndTomorrowPoints, TodayPoints} {
		for _, source := range a.sources {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			points, err := a.fetch(ctx, source)
			if err != nil {
				logrus.WithFields(logrus.Fields{"source": source.Name(), "err": err}).Warn("price: fetch failed")
				continue
			}
			if len(points) < threshold {
				logrus.WithFields(logrus.Fields{"source": source.Name(), "points": len(points), "want": threshold}).Debug("price: not enough points")
				continue
			}
			logrus.WithFields(logrus.Fields{"source": source.Name(), "points": len(points)}).Debug("price: using source")
			return &Series{
				Source:      source.Name(),
				Points:      points,
				HasTomorrow: len(points) >= TodayAndTomorrowPoints,
			}, nil
		}
		if threshold == TodayAndTomorrowPoints {
			logrus.Warn("price: no source has prices for today and tomorrow, checking for today only")
		}
	}
	logrus.Warn("price: no source returned prices, will try again later")
	return nil, ErrNotAvailable
}

// fetch drops points from before today and returns the rest in chronological order.
func (a *Aggregator) fetch(ctx context.Context, source Source) ([]Point, error) {
	points, err := source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source.Name(), err)
	}
	today := StartOfDay(a.now())
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Start.Before(today) {
			continue
		}
		out = append(out, p)
	}
	SortChronological(out)
	return out, nil
}
