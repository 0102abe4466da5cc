package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nergy-se/waterheater/pkg/alarm"
	"github.com/sirupsen/logrus"
)

// Reconciler runs one scheduling cycle and reports whether a schedule for
// today and tomorrow is on the device.
type Reconciler interface {
	Run(ctx context.Context) (bool, error)
}

type Status struct {
	LastRun      time.Time `json:"lastRun"`
	LastComplete time.Time `json:"lastComplete"`
	NextRun      time.Time `json:"nextRun"`
	Alarms       []string  `json:"alarms,omitempty"`
}

type App struct {
	wg           *sync.WaitGroup
	reconciler   Reconciler
	dailyRunHour int
	alarms       *alarm.ActiveAlarms
	now          func() time.Time

	status Status
	mutex  sync.RWMutex
}

func New(reconciler Reconciler, dailyRunHour int) *App {
	return &App{
		wg:           &sync.WaitGroup{},
		reconciler:   reconciler,
		dailyRunHour: dailyRunHour,
		alarms:       &alarm.ActiveAlarms{},
		now:          time.Now,
	}
}

func (a *App) Start(ctx context.Context) error {
	a.wg.Add(1)
	go a.controllerLoop(ctx)
	return nil
}

func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) controllerLoop(ctx context.Context) {
	defer a.wg.Done()
	delay := a.reconcile(ctx)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	logrus.Debug("app: scheduling next run in ", delay)
	for {
		select {
		case <-timer.C:
			delay := a.reconcile(ctx)
			logrus.Debug("app: scheduling next run in ", delay)
			timer.Reset(delay)
		case <-ctx.Done():
			return
		}
	}
}

// reconcile runs once and returns the delay until the next run.
func (a *App) reconcile(ctx context.Context) time.Duration {
	complete, err := a.reconciler.Run(ctx)
	now := a.now()
	if err != nil {
		if a.alarms.Add(err.Error(), now) {
			logrus.Errorf("app: reconcile failed: %s", err)
		} else {
			since, _ := a.alarms.Since(err.Error())
			logrus.Debugf("app: reconcile still failing since %s: %s", since.Format(time.RFC3339), err)
		}
	} else if a.alarms.Clear() {
		logrus.Info("app: reconcile recovered")
	}

	delay := a.nextDelay(now, complete)
	a.mutex.Lock()
	a.status.LastRun = now
	if complete {
		a.status.LastComplete = now
	}
	a.status.NextRun = now.Add(delay)
	a.status.Alarms = a.alarms.Active()
	a.mutex.Unlock()
	return delay
}

// nextDelay retries on the next quarter hour until tomorrow's schedule is on
// the device. After that nothing changes before the next day's prices.
func (a *App) nextDelay(now time.Time, complete bool) time.Duration {
	if complete {
		return untilHourTomorrow(now, a.dailyRunHour)
	}
	return calculateNextDelay(now)
}

func (a *App) Status() Status {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	s := a.status
	s.Alarms = append([]string(nil), a.status.Alarms...)
	return s
}

// Health reports the status and fails while any alarm is active.
func (a *App) Health() (interface{}, error) {
	s := a.Status()
	if len(s.Alarms) > 0 {
		return s, fmt.Errorf("active alarms: %s", strings.Join(s.Alarms, "; "))
	}
	return s, nil
}
