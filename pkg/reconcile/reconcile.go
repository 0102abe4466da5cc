// Package reconcile runs one scheduling cycle for a water heater: acquire
// prices, verify the device modes, build the schedule and apply it when it
// changed.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/nergy-se/waterheater/pkg/metrics"
	"github.com/nergy-se/waterheater/pkg/modes"
	"github.com/nergy-se/waterheater/pkg/price"
	"github.com/nergy-se/waterheater/pkg/schedule"
	"github.com/nergy-se/waterheater/pkg/state"
	"github.com/sirupsen/logrus"
)

var ErrDeviceWrite = errors.New("device write failed")

// LegionellaLeadHours is how close the device countdown must be before the
// program is planned. Zero plans it only once the device reports it due.
type Config struct {
	Device   heater.Device
	Strategy schedule.Strategy
	Schedule schedule.Config
	Modes    modes.Config

	LegionellaLeadHours float64
}

type PriceAggregator interface {
	Acquire(ctx context.Context) (*price.Series, error)
}

type Reconciler struct {
	prices   PriceAggregator
	api      heater.API
	notifier heater.Notifier
	config   Config
	now      func() time.Time
}

// New returns a Reconciler. notifier may be nil.
func New(prices PriceAggregator, api heater.API, notifier heater.Notifier, config Config) *Reconciler {
	return &Reconciler{
		prices:   prices,
		api:      api,
		notifier: notifier,
		config:   config,
		now:      time.Now,
	}
}

// Run executes one cycle. It returns true only when a schedule covering
// today and tomorrow was written to the device, so the caller knows to try
// again later otherwise. Missing prices and an unchanged schedule are not
// errors.
func (r *Reconciler) Run(ctx context.Context) (bool, error) {
	run := &state.Run{
		ID:     uuid.NewString(),
		Device: r.config.Device.Name,
	}
	applied, result, err := r.run(ctx, run)
	metrics.Runs.WithLabelValues(result).Inc()
	if err != nil {
		run.Stage = state.StageFailed
		logrus.WithFields(run.Fields()).Errorf("reconcile: %s", err)
		return false, err
	}
	run.Stage = state.StageDone
	logrus.WithFields(run.Fields()).Info("reconcile: done")
	return applied, nil
}

func (r *Reconciler) run(ctx context.Context, run *state.Run) (bool, string, error) {
	run.Enter(state.StageFetchingPrices)
	series, err := r.prices.Acquire(ctx)
	if errors.Is(err, price.ErrNotAvailable) {
		return false, metrics.ResultNoPrices, nil
	}
	if err != nil {
		return false, metrics.ResultFailed, err
	}
	run.PriceSource = state.Pointer(series.Source)
	run.PricePoints = state.Pointer(len(series.Points))
	run.HasTomorrow = state.Pointer(series.HasTomorrow)
	metrics.PriceSource.WithLabelValues(series.Source).Inc()

	run.Enter(state.StageVerifyingModes)
	lookup, current, err := r.verifyModes(ctx, run)
	if err != nil {
		return false, metrics.ResultFailed, err
	}

	legionellaDue := r.legionellaDue(ctx, run)

	run.Enter(state.StageBuildingSchedule)
	now := r.now()
	today := price.StartOfDay(now)
	days := []time.Time{today}
	if series.HasTomorrow {
		days = append(days, today.AddDate(0, 0, 1))
	}
	logPrevious(current, days, lookup)

	builder := schedule.New(r.config.Strategy, r.config.Schedule, lookup)
	res, err := builder.Generate(schedule.Request{
		Current:             current,
		Points:              series.Points,
		Days:                days,
		LegionellaDue:       legionellaDue,
		LegionellaNotBefore: now,
	})
	if err != nil {
		return false, metrics.ResultFailed, fmt.Errorf("error building schedule: %w", err)
	}
	run.Changed = state.Pointer(res.Changed)
	schedule.LogSlots(res.Slots)
	if !res.Changed {
		return false, metrics.ResultUnchanged, nil
	}

	run.Enter(state.StageApplying)
	if err := r.api.SetWeeklySchedule(ctx, r.config.Device, res.Schedule); err != nil {
		return false, metrics.ResultFailed, fmt.Errorf("%w: schedule: %w", ErrDeviceWrite, err)
	}
	run.Applied = state.Pointer(true)
	metrics.ScheduleWrites.Inc()
	if series.HasTomorrow {
		logrus.WithFields(run.Fields()).Infof("reconcile: changed schedule for %s for today and tomorrow", r.config.Device.ID)
		metrics.LastFullSchedule.Set(float64(now.Unix()))
	} else {
		logrus.WithFields(run.Fields()).Infof("reconcile: changed schedule for %s for today", r.config.Device.ID)
	}
	r.notify()

	if !series.HasTomorrow {
		return false, metrics.ResultAppliedToday, nil
	}
	return true, metrics.ResultApplied, nil
}

// verifyModes builds the mode lookup and writes corrected modes back before
// any schedule is built on top of them.
func (r *Reconciler) verifyModes(ctx context.Context, run *state.Run) (*modes.Lookup, heater.WeeklySchedule, error) {
	deviceModes, err := r.api.Modes(ctx, r.config.Device)
	if err != nil {
		return nil, heater.WeeklySchedule{}, fmt.Errorf("error fetching modes: %w", err)
	}
	current, err := r.api.WeeklySchedule(ctx, r.config.Device)
	if err != nil {
		return nil, heater.WeeklySchedule{}, fmt.Errorf("error fetching weekly schedule: %w", err)
	}

	lookup, allCorrect, err := modes.Build(deviceModes, r.config.Modes)
	if err != nil {
		return nil, heater.WeeklySchedule{}, err
	}
	run.ModesCorrected = state.Pointer(!allCorrect)
	if !allCorrect {
		metrics.ModeCorrections.Inc()
		if err := r.api.SetModes(ctx, r.config.Device, lookup.Modes()); err != nil {
			return nil, heater.WeeklySchedule{}, fmt.Errorf("%w: modes: %w", ErrDeviceWrite, err)
		}
		logrus.WithFields(run.Fields()).Info("reconcile: corrected heater modes")
	}
	return lookup, current, nil
}

// legionellaDue asks the device how long until the legionella program is
// mandatory. A device that does not answer is treated as not due.
func (r *Reconciler) legionellaDue(ctx context.Context, run *state.Run) bool {
	hours, ok, err := r.api.LegionellaCountdown(ctx, r.config.Device)
	if err != nil {
		logrus.WithFields(run.Fields()).Warnf("reconcile: error fetching legionella countdown: %s", err)
		return false
	}
	if !ok {
		logrus.WithFields(run.Fields()).Debug("reconcile: device reports no legionella countdown")
		return false
	}
	due := hours <= r.config.LegionellaLeadHours
	run.LegionellaCountdown = state.Pointer(hours)
	run.LegionellaDue = state.Pointer(due)
	logrus.WithFields(run.Fields()).Debugf("reconcile: next legionella program required in %.0f hours", hours)
	return due
}

func (r *Reconciler) notify() {
	if r.notifier == nil || r.config.Device.Name == "" {
		return
	}
	err := r.notifier.Notify(r.config.Device.Name, heater.EventLastScheduleChange, 0)
	if err != nil {
		logrus.Warnf("reconcile: error sending notification: %s", err)
	}
}

func logPrevious(current heater.WeeklySchedule, days []time.Time, lookup *modes.Lookup) {
	if !logrus.IsLevelEnabled(logrus.DebugLevel) || len(current.Events) == 0 {
		return
	}
	for _, day := range days {
		levels, err := schedule.Levels(current, day.Weekday(), lookup)
		if err != nil {
			logrus.Debugf("reconcile: previous schedule for %s uses modes outside the plan: %s", day.Weekday(), err)
			continue
		}
		logrus.WithFields(logrus.Fields{"day": day.Weekday().String(), "levels": schedule.FormatLevels(levels)}).Debug("reconcile: previous schedule")
	}
}
