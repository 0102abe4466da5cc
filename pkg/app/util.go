package app

import "time"

func calculateNextDelay(now time.Time) time.Duration {
	// Calculate the next quarter-hour mark (0, 15, 30, 45)
	nextQuarter := time.Date(
		now.Year(),
		now.Month(),
		now.Day(),
		now.Hour(),
		(now.Minute()/15+1)*15, // This clever math finds the next 15-min interval
		0,
		0,
		now.Location(),
	)
	return nextQuarter.Sub(now)
}

// untilHourTomorrow is the time left until hour:00 on the day after now.
func untilHourTomorrow(now time.Time, hour int) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, hour, 0, 0, 0, now.Location())
	return next.Sub(now)
}
