package gap

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/finchsend/gap/status"
)

// outputDirFile is the name of the persisted output-dir record inside the
// persistent config dir.
const outputDirFile = "output_dir.json"

type outputDirRecord struct {
	Path string `json:"path"`
}

// SetOutputDir sets the download directory. appAction false marks the
// change as user-originated and persists it across sessions; appAction
// true marks a host-shell default, which is not persisted.
func (s *State) SetOutputDir(path string, appAction bool) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &StateError{Op: "set output dir", Status: status.FileNotFound}
	}
	if err := translate("set output dir", eng.SetOutputDir(path)); err != nil {
		return err
	}
	s.mu.Lock()
	s.outputDir = path
	persistDir := s.opts.PersistentConfigDir
	s.mu.Unlock()

	if !appAction {
		if err := saveOutputDir(persistDir, path); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "SetOutputDir",
				"path":     path,
				"error":    err.Error(),
			}).Warn("Could not persist output directory")
		}
	}
	return nil
}

// OutputDir returns the current download directory.
func (s *State) OutputDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return ""
	}
	return s.outputDir
}

func saveOutputDir(configDir, path string) error {
	data, err := json.Marshal(outputDirRecord{Path: path})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, outputDirFile), data, 0o644)
}

// loadOutputDir returns the persisted user choice, empty if none was ever
// recorded or the record is unreadable.
func loadOutputDir(configDir string) string {
	data, err := os.ReadFile(filepath.Join(configDir, outputDirFile))
	if err != nil {
		return ""
	}
	var rec outputDirRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ""
	}
	return rec.Path
}
