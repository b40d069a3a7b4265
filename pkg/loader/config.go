package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// CoreConfig is the optional <selfBase>/core.json document (spec.md §4.6).
// A missing file, empty file, or missing array are all valid and silent —
// this is a small enough, JSON-shaped surface that the teacher's own
// ecosystem choices (no config library appears anywhere in the retrieval
// pack) point at encoding/json rather than a third-party config loader.
type CoreConfig struct {
	CoreModules []string `json:"coreModules"`
}

// LoadCoreConfig reads <selfBase>/core.json, returning a zero-value
// CoreConfig (no extra core modules) if the file is missing or empty.
func LoadCoreConfig(selfBase string) (CoreConfig, error) {
	path := filepath.Join(selfBase, "core.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return CoreConfig{}, nil
		}
		return CoreConfig{}, err
	}
	if len(data) == 0 {
		return CoreConfig{}, nil
	}
	var cfg CoreConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CoreConfig{}, err
	}
	return cfg, nil
}
