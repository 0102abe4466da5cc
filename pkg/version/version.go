package version

import (
	"encoding/json"
	"runtime/debug"
)

type Info struct {
	Commit   string `json:"commit"`
	Time     string `json:"time"`
	Modified bool   `json:"modified,omitempty"`
}

func (i Info) String() string {
	b, _ := json.Marshal(&i)
	return string(b)
}

var Version = func() Info {
	v := Info{}
	if info, ok := debug.ReadBuildInfo(); ok {
		v = fromSettings(info.Settings)
	}
	return v
}()

func fromSettings(settings []debug.BuildSetting) Info {
	v := Info{}
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			v.Commit = setting.Value
		case "vcs.time":
			v.Time = setting.Value
		case "vcs.modified":
			v.Modified = setting.Value == "true"
		}
	}
	return v
}
