// Package nergycloud reads prices from the nergy.se controller schedule
// endpoint. The schedule is keyed by RFC3339 timestamps and holds either
// hourly or quarter-hourly entries.
package nergycloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/nergy-se/waterheater/pkg/price"
	"github.com/sirupsen/logrus"
)

type HourConfig struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

type Schedule map[string]HourConfig

type Source struct {
	server     string
	token      func() string
	httpClient *http.Client
}

func New(server string, token func() string, httpClient *http.Client) *Source {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Source{
		server:     server,
		token:      token,
		httpClient: httpClient,
	}
}

func (s *Source) Name() string {
	return "nergy"
}

func (s *Source) Fetch(ctx context.Context) ([]price.Point, error) {
	u := fmt.Sprintf("%s/api/controller/schedule-v1", s.server)
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("Authorization", s.token())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error fetching schedule StatusCode: %d", resp.StatusCode)
	}

	schedule := Schedule{}
	err = json.NewDecoder(resp.Body).Decode(&schedule)
	if err != nil {
		return nil, fmt.Errorf("error decoding schedule: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"entries":  len(schedule),
		"quarters": schedule.IsQuarterPrices(),
	}).Debug("nergycloud: fetched schedule")
	return schedule.Hourly()
}

// Hourly converts the schedule to hourly points. The four quarter-hour
// prices of an hour are averaged. Hours with only some of their quarters
// are skipped.
func (s Schedule) Hourly() ([]price.Point, error) {
	type bucket struct {
		start  time.Time
		sum    float64
		count  int
		onHour bool
	}
	buckets := make(map[int64]*bucket)
	for key, hc := range s {
		ts, err := time.Parse(time.RFC3339, key)
		if err != nil {
			return nil, fmt.Errorf("error parsing schedule time %q: %w", key, err)
		}
		hour := ts.Truncate(time.Hour)
		b, ok := buckets[hour.Unix()]
		if !ok {
			b = &bucket{start: hour}
			buckets[hour.Unix()] = b
		}
		b.sum += hc.Price
		b.count++
		b.onHour = b.onHour || ts.Equal(hour)
	}

	points := make([]price.Point, 0, len(buckets))
	for _, b := range buckets {
		if b.count != 4 && !(b.count == 1 && b.onHour) {
			logrus.WithFields(logrus.Fields{
				"hour":    b.start.Format(time.RFC3339),
				"entries": b.count,
			}).Warn("nergycloud: skipping incomplete hour")
			continue
		}
		points = append(points, price.Point{
			Price: b.sum / float64(b.count),
			Start: b.start,
			End:   b.start.Add(time.Hour),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Start.Before(points[j].Start) })
	return points, nil
}

// IsQuarterPrices reports if the schedule has entries not on a full hour.
func (s Schedule) IsQuarterPrices() bool {
	for key := range s {
		ts, err := time.Parse(time.RFC3339, key)
		if err != nil {
			continue
		}
		if ts.Minute() != 0 {
			return true
		}
	}
	return false
}
