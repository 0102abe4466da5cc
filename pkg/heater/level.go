package heater

// Level is the semantic heating intensity used when planning. Devices map
// their own mode ids to levels.
type Level int

const (
	LevelUnknown Level = iota
	LevelHighest
	LevelMedium
	LevelDisabled
	LevelMedium1300W
	LevelLegionella
)

var levelNames = map[Level]string{
	LevelUnknown:     "unknown",
	LevelHighest:     "highest",
	LevelMedium:      "medium",
	LevelDisabled:    "disabled",
	LevelMedium1300W: "medium1300w",
	LevelLegionella:  "legionella",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return levelNames[LevelUnknown]
}

// Short is used when printing a day as one line.
func (l Level) Short() string {
	switch l {
	case LevelHighest:
		return "H"
	case LevelMedium:
		return "M"
	case LevelMedium1300W:
		return "m"
	case LevelDisabled:
		return "-"
	case LevelLegionella:
		return "L"
	}
	return "?"
}
