package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Manifest is the subset of a Hugging Face config.json we check at startup.
type Manifest struct {
	Architectures []string          `json:"architectures"`
	ID2Label      map[string]string `json:"id2label"`
	NumLabels     int               `json:"num_labels"`
}

// LoadManifest verifies that dir holds a model artifact with as many classes as Calibration.
func LoadManifest(dir string) (*Manifest, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrModelDirMissing, dir)
		}
		return nil, fmt.Errorf("failed to stat model directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrModelDirMissing, dir)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read model config: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model config: %w", err)
	}

	if n := m.Classes(); n != 0 && n != len(Calibration) {
		return nil, fmt.Errorf("model declares %d classes, calibration has %d", n, len(Calibration))
	}

	return &m, nil
}

// Classes is the declared class count, 0 when the config does not say.
func (m *Manifest) Classes() int {
	if len(m.ID2Label) > 0 {
		return len(m.ID2Label)
	}
	return m.NumLabels
}
