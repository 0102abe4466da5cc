package schedule

import (
	"strings"
	"time"

	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/nergy-se/waterheater/pkg/modes"
	"github.com/sirupsen/logrus"
)

// LogSlots writes one debug line per day with the level of every hour.
func LogSlots(slots []Slot) {
	var (
		day  string
		line strings.Builder
	)
	flush := func() {
		if line.Len() == 0 {
			return
		}
		logrus.WithFields(logrus.Fields{"day": day, "levels": line.String()}).Debug("schedule: planned")
		line.Reset()
	}
	for _, s := range slots {
		if d := s.Start.Format(time.DateOnly); d != day {
			flush()
			day = d
		}
		line.WriteString(s.Level.Short())
	}
	flush()
}

// Levels decodes the hours of one weekday of a device schedule into levels.
func Levels(schedule heater.WeeklySchedule, day time.Weekday, lookup *modes.Lookup) ([]heater.Level, error) {
	ids := schedule.Hourly(day)
	out := make([]heater.Level, len(ids))
	for i, id := range ids {
		level, err := lookup.Level(id)
		if err != nil {
			return nil, err
		}
		out[i] = level
	}
	return out, nil
}

func FormatLevels(levels []heater.Level) string {
	var sb strings.Builder
	for _, l := range levels {
		sb.WriteString(l.Short())
	}
	return sb.String()
}
