// Package schedule plans which heating level the water heater runs at for
// every hour of the days prices are known for, and turns the plan into the
// weekly schedule stored on the device.
package schedule

import (
	"fmt"
	"time"

	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/nergy-se/waterheater/pkg/modes"
	"github.com/nergy-se/waterheater/pkg/price"
)

type Config struct {
	MaxPowerHours    int
	MediumPowerHours int
	// LegionellaHours is how long the legionella program needs to run.
	LegionellaHours int
}

type Slot struct {
	Start time.Time
	Price float64
	Level heater.Level
}

func (s Slot) Weekday() time.Weekday {
	return s.Start.Weekday()
}

func (s Slot) Hour() int {
	return s.Start.Hour()
}

type Request struct {
	// Current is the schedule the device holds. Its day order is kept.
	Current heater.WeeklySchedule
	Points  []price.Point
	// Days to plan, today and optionally tomorrow.
	Days []time.Time

	LegionellaDue bool
	// LegionellaNotBefore keeps the legionella block out of hours that
	// already passed.
	LegionellaNotBefore time.Time
}

type Result struct {
	Slots    []Slot
	Schedule heater.WeeklySchedule
	// Changed is true when Schedule differs from Request.Current.
	Changed bool
}

type Builder struct {
	strategy Strategy
	config   Config
	lookup   *modes.Lookup
}

func New(strategy Strategy, config Config, lookup *modes.Lookup) *Builder {
	return &Builder{
		strategy: strategy,
		config:   config,
		lookup:   lookup,
	}
}

// Generate plans req.Days from scratch and merges the result into the
// current schedule. Weekdays outside req.Days keep their events.
func (b *Builder) Generate(req Request) (*Result, error) {
	if len(req.Days) == 0 {
		return nil, fmt.Errorf("schedule: no days to plan")
	}
	slots := b.Plan(req.Points, req.Days, req.LegionellaDue, req.LegionellaNotBefore)

	next := req.Current.Clone()
	for _, day := range req.Days {
		events, err := b.events(daySlots(slots, day))
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			return nil, fmt.Errorf("schedule: no prices for %s", day.Format(time.DateOnly))
		}
		next.Replace(day.Weekday(), events)
	}

	return &Result{
		Slots:    slots,
		Schedule: next,
		Changed:  !next.Equal(req.Current),
	}, nil
}

// Plan assigns a level to every hour of days. It does not need mode ids.
func (b *Builder) Plan(points []price.Point, days []time.Time, legionellaDue bool, notBefore time.Time) []Slot {
	series := price.Series{Points: points}
	var slots []Slot
	for _, day := range days {
		dayPoints := series.Day(day)
		price.SortChronological(dayPoints)
		for i, level := range b.allocate(dayPoints) {
			slots = append(slots, Slot{
				Start: dayPoints[i].Start.In(day.Location()),
				Price: dayPoints[i].Price,
				Level: level,
			})
		}
	}
	if legionellaDue {
		b.reserveLegionella(slots, notBefore)
	}
	return slots
}

// events collapses the slots of one day into mode changes. The first hour of
// the day always gets an event.
func (b *Builder) events(slots []Slot) ([]heater.Event, error) {
	var events []heater.Event
	lastHour := -1
	for _, s := range slots {
		if s.Hour() == lastHour {
			continue // repeated hour when clocks go back
		}
		lastHour = s.Hour()

		id, err := b.lookup.ID(s.Level)
		if err != nil {
			return nil, err
		}
		if len(events) > 0 && events[len(events)-1].ModeID == id {
			continue
		}
		events = append(events, heater.Event{Day: s.Weekday(), Hour: s.Hour(), ModeID: id})
	}
	if len(events) > 0 {
		events[0].Hour = 0
	}
	return events, nil
}

func daySlots(slots []Slot, day time.Time) []Slot {
	start := price.StartOfDay(day)
	end := start.AddDate(0, 0, 1)
	var out []Slot
	for _, s := range slots {
		if !s.Start.Before(start) && s.Start.Before(end) {
			out = append(out, s)
		}
	}
	return out
}
