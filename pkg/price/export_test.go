package price

import "time"

func SetNow(a *Aggregator, now func() time.Time) {
	a.now = now
}
