package heater

import (
	"fmt"
	"sort"
	"time"
)

// Event switches the device to ModeID at Hour:00 on Day. The mode stays active
// until the next event in the week.
type Event struct {
	Day    time.Weekday `json:"day"`
	Hour   int          `json:"hour"`
	ModeID int          `json:"modeId"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s %02d:00 mode %d", e.Day, e.Hour, e.ModeID)
}

type WeeklySchedule struct {
	// DayOrder is the order the device lists weekdays in. Empty means monday first.
	DayOrder []time.Weekday `json:"dayOrder,omitempty"`
	Events   []Event        `json:"events"`
}

var DefaultDayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

func (w WeeklySchedule) Order() []time.Weekday {
	if len(w.DayOrder) == 0 {
		return DefaultDayOrder
	}
	return w.DayOrder
}

func (w WeeklySchedule) Clone() WeeklySchedule {
	return WeeklySchedule{
		DayOrder: append([]time.Weekday(nil), w.DayOrder...),
		Events:   append([]Event(nil), w.Events...),
	}
}

// EventsFor returns the events of one weekday in hour order.
func (w WeeklySchedule) EventsFor(day time.Weekday) []Event {
	var out []Event
	for _, e := range w.Events {
		if e.Day == day {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// Replace swaps every event of day with events and keeps the schedule sorted.
func (w *WeeklySchedule) Replace(day time.Weekday, events []Event) {
	kept := w.Events[:0:0]
	for _, e := range w.Events {
		if e.Day != day {
			kept = append(kept, e)
		}
	}
	w.Events = append(kept, events...)
	w.Sort()
}

func (w *WeeklySchedule) Sort() {
	order := w.Order()
	sort.SliceStable(w.Events, func(i, j int) bool {
		a, b := w.Events[i], w.Events[j]
		if ai, bi := dayIndex(order, a.Day), dayIndex(order, b.Day); ai != bi {
			return ai < bi
		}
		return a.Hour < b.Hour
	})
}

// Equal compares the events of both schedules independent of their order.
func (w WeeklySchedule) Equal(o WeeklySchedule) bool {
	if len(w.Events) != len(o.Events) {
		return false
	}
	a, b := w.Clone(), o.Clone()
	a.DayOrder, b.DayOrder = nil, nil
	a.Sort()
	b.Sort()
	for i := range a.Events {
		if a.Events[i] != b.Events[i] {
			return false
		}
	}
	return true
}

// Hourly returns the mode id active in each hour of day. Hours before the
// first event of the day keep the mode of the last earlier event in the week,
// wrapping around. An empty schedule yields zeros.
func (w WeeklySchedule) Hourly(day time.Weekday) []int {
	out := make([]int, 24)
	if len(w.Events) == 0 {
		return out
	}
	s := w.Clone()
	s.Sort()

	pos := dayIndex(s.Order(), day)
	carry := s.Events[len(s.Events)-1].ModeID
	for _, e := range s.Events {
		if dayIndex(s.Order(), e.Day) < pos {
			carry = e.ModeID
		}
	}

	events := s.EventsFor(day)
	j := 0
	for h := range out {
		for j < len(events) && events[j].Hour <= h {
			carry = events[j].ModeID
			j++
		}
		out[h] = carry
	}
	return out
}

func dayIndex(order []time.Weekday, day time.Weekday) int {
	for i, d := range order {
		if d == day {
			return i
		}
	}
	return -1
}
