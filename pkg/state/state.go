package state

import "github.com/sirupsen/logrus"

type Stage string

const (
	StageFetchingPrices   Stage = "fetchingPrices"
	StageVerifyingModes   Stage = "verifyingModes"
	StageBuildingSchedule Stage = "buildingSchedule"
	StageApplying         Stage = "applying"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

// Run is what one reconcile run has learned so far. Unset fields are left
// out of the log fields.
type Run struct {
	ID     string `json:"run"`
	Device string `json:"device"`
	Stage  Stage  `json:"stage"`

	PriceSource         *string  `json:"priceSource,omitempty"`
	PricePoints         *int     `json:"pricePoints,omitempty"`
	HasTomorrow         *bool    `json:"hasTomorrow,omitempty"`
	ModesCorrected      *bool    `json:"modesCorrected,omitempty"`
	LegionellaCountdown *float64 `json:"legionellaCountdown,omitempty"`
	LegionellaDue       *bool    `json:"legionellaDue,omitempty"`
	Changed             *bool    `json:"changed,omitempty"`
	Applied             *bool    `json:"applied,omitempty"`
}

func (s *Run) Enter(stage Stage) {
	s.Stage = stage
	logrus.WithFields(s.Fields()).Debug("reconcile: entering stage")
}

func (s Run) Map() map[string]interface{} {
	m := make(map[string]interface{})
	m["run"] = s.ID
	m["device"] = s.Device
	m["stage"] = string(s.Stage)
	if s.PriceSource != nil {
		m["priceSource"] = *s.PriceSource
	}
	if s.PricePoints != nil {
		m["pricePoints"] = *s.PricePoints
	}
	if s.HasTomorrow != nil {
		m["hasTomorrow"] = boolToInt(*s.HasTomorrow)
	}
	if s.ModesCorrected != nil {
		m["modesCorrected"] = boolToInt(*s.ModesCorrected)
	}
	if s.LegionellaCountdown != nil {
		m["legionellaCountdown"] = *s.LegionellaCountdown
	}
	if s.LegionellaDue != nil {
		m["legionellaDue"] = boolToInt(*s.LegionellaDue)
	}
	if s.Changed != nil {
		m["changed"] = boolToInt(*s.Changed)
	}
	if s.Applied != nil {
		m["applied"] = boolToInt(*s.Applied)
	}
	return m
}

func (s Run) Fields() logrus.Fields {
	return logrus.Fields(s.Map())
}

func Pointer[K any](val K) *K {
	return &val
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
