package updater

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// StateFileName is the per-location snapshot of the previous cycle, used to
// compute trend arrows. It lives next to aqi_data.inc in the resources dir.
const StateFileName = "aqi_last.json"

type lastState struct {
	AQI *int      `json:"aqi"`
	At  time.Time `json:"ts"`
}

type stateFile map[string]lastState

// loadState reads the previous-cycle snapshot. A missing or unreadable file
// yields an empty state; every location then renders a flat trend.
func loadState(path string) (stateFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stateFile{}, nil
		}
		return stateFile{}, err
	}
	var st stateFile
	if err := json.Unmarshal(b, &st); err != nil {
		return stateFile{}, err
	}
	if st == nil {
		st = stateFile{}
	}
	return st, nil
}

func saveState(path string, st stateFile) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
