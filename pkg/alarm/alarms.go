package alarm

import (
	"sort"
	"sync"
	"time"
)

// ActiveAlarms remembers failures until the next successful run so each one
// is only reported when it first appears.
type ActiveAlarms struct {
	activeAlarms map[string]time.Time
	sync.RWMutex
}

// Add raises alarm at the given time and returns true if it was not already active.
func (a *ActiveAlarms) Add(alarm string, at time.Time) bool {
	a.Lock()
	defer a.Unlock()
	if _, ok := a.activeAlarms[alarm]; ok {
		return false
	}
	if a.activeAlarms == nil {
		a.activeAlarms = make(map[string]time.Time)
	}
	a.activeAlarms[alarm] = at
	return true
}

// Clear removes all alarms and returns true if there were any.
func (a *ActiveAlarms) Clear() bool {
	a.Lock()
	defer a.Unlock()
	hasActive := len(a.activeAlarms) > 0
	a.activeAlarms = nil
	return hasActive
}

// Active returns the active alarms, oldest first.
func (a *ActiveAlarms) Active() []string {
	a.RLock()
	defer a.RUnlock()
	out := make([]string, 0, len(a.activeAlarms))
	for alarm := range a.activeAlarms {
		out = append(out, alarm)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := a.activeAlarms[out[i]], a.activeAlarms[out[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i] < out[j]
	})
	return out
}

// Since returns when alarm was raised.
func (a *ActiveAlarms) Since(alarm string) (time.Time, bool) {
	a.RLock()
	defer a.RUnlock()
	t, ok := a.activeAlarms[alarm]
	return t, ok
}
