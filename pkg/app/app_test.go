package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	complete bool
	err      error
}

type fakeReconciler struct {
	results []result
	calls   int
	mutex   sync.Mutex
}

func (f *fakeReconciler) Run(ctx context.Context) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	r := f.results[min(f.calls, len(f.results)-1)]
	f.calls++
	return r.complete, r.err
}

func TestCalculateNextDelay(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Duration
	}{
		{now: time.Date(2024, 3, 12, 13, 0, 0, 0, time.UTC), want: 15 * time.Minute},
		{now: time.Date(2024, 3, 12, 13, 14, 30, 0, time.UTC), want: 30 * time.Second},
		{now: time.Date(2024, 3, 12, 13, 50, 0, 0, time.UTC), want: 10 * time.Minute},
		{now: time.Date(2024, 3, 12, 23, 45, 0, 0, time.UTC), want: 15 * time.Minute},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.now.Format(time.TimeOnly), func(t *testing.T) {
			assert.Equal(t, tt.want, calculateNextDelay(tt.now))
		})
	}
}

func TestUntilHourTomorrow(t *testing.T) {
	now := time.Date(2024, 3, 12, 13, 5, 0, 0, time.UTC)
	assert.Equal(t, 23*time.Hour+55*time.Minute, untilHourTomorrow(now, 13))
	assert.Equal(t, 10*time.Hour+55*time.Minute, untilHourTomorrow(now, 0))

	loc, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)
	// clocks go forward during the night to 2024-03-31
	now = time.Date(2024, 3, 30, 13, 0, 0, 0, loc)
	assert.Equal(t, 23*time.Hour, untilHourTomorrow(now, 13))
}

func TestReconcileDelays(t *testing.T) {
	now := time.Date(2024, 3, 12, 13, 5, 0, 0, time.UTC)
	boom := errors.New("boom")
	f := &fakeReconciler{results: []result{
		{err: boom},
		{err: boom},
		{complete: false},
		{complete: true},
	}}
	a := New(f, 13)
	a.now = func() time.Time { return now }

	assert.Equal(t, 10*time.Minute, a.reconcile(context.TODO()))
	health, err := a.Health()
	assert.EqualError(t, err, "active alarms: boom")
	assert.Equal(t, []string{"boom"}, health.(Status).Alarms)

	assert.Equal(t, 10*time.Minute, a.reconcile(context.TODO()))
	assert.Len(t, a.Status().Alarms, 1)

	assert.Equal(t, 10*time.Minute, a.reconcile(context.TODO()))
	_, err = a.Health()
	assert.NoError(t, err)
	assert.True(t, a.Status().LastComplete.IsZero())

	assert.Equal(t, 23*time.Hour+55*time.Minute, a.reconcile(context.TODO()))
	s := a.Status()
	assert.Equal(t, now, s.LastComplete)
	assert.Equal(t, now.Add(23*time.Hour+55*time.Minute), s.NextRun)
}

func TestStartRunsImmediately(t *testing.T) {
	f := &fakeReconciler{results: []result{{complete: true}}}
	a := New(f, 13)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))
	assert.Eventually(t, func() bool {
		f.mutex.Lock()
		defer f.mutex.Unlock()
		return f.calls == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	a.Wait()
}
