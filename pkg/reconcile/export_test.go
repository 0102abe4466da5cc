package reconcile

import "time"

func SetNow(r *Reconciler, now time.Time) {
	r.now = func() time.Time { return now }
}
