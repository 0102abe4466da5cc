package price

import (
	"context"
	"sort"
	"time"
)

// Point is the price of one hour.
type Point struct {
	Price float64   `json:"price"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Source is one external price provider. A failing or incomplete fetch is
// reported as an error and only means "try the next source".
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Point, error)
}

const (
	TodayAndTomorrowPoints = 48
	TodayPoints            = 24
)

type Series struct {
	Source      string
	Points      []Point
	HasTomorrow bool
}

// Day returns the points starting within the local day of day.
func (s Series) Day(day time.Time) []Point {
	start := StartOfDay(day)
	end := start.AddDate(0, 0, 1)
	var out []Point
	for _, p := range s.Points {
		if !p.Start.Before(start) && p.Start.Before(end) {
			out = append(out, p)
		}
	}
	return out
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SortChronological sorts points by start time.
func SortChronological(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Start.Before(points[j].Start)
	})
}

// Cheapest returns a copy of points ordered by ascending price, earliest start
// first on equal price.
func Cheapest(points []Point) []Point {
	out := append([]Point(nil), points...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
