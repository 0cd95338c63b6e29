// Package manifest handles lode.toml host configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/lodelang/lode/vm"
)

// FileName is the manifest file name looked up by Load and FindAndLoad.
const FileName = "lode.toml"

// Manifest represents a lode.toml host configuration.
type Manifest struct {
	VM           VMConfig `toml:"vm"`
	Capabilities Grants   `toml:"capabilities"`
	Program      Program  `toml:"program"`

	// Dir is the directory containing the lode.toml file (set at load time).
	Dir string `toml:"-"`
}

// VMConfig configures the machine itself.
type VMConfig struct {
	// StackSize is the operand stack capacity.
	StackSize int `toml:"stack-size"`
}

// Grants lists the opcode groups the host is willing to grant.
type Grants struct {
	StandardIO bool `toml:"standard-io"`
	FileIO     bool `toml:"file-io"`
}

// Program configures the default program image.
type Program struct {
	Image string `toml:"image"`
}

// Load parses a lode.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.VM.StackSize < 0 {
		return nil, fmt.Errorf("%s: stack-size must not be negative, got %d", path, m.VM.StackSize)
	}

	// Defaults
	if m.VM.StackSize == 0 {
		m.VM.StackSize = vm.DefaultStackCapacity
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a lode.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Granted returns the capability set the manifest grants.
func (m *Manifest) Granted() vm.Capability {
	var caps vm.Capability
	if m.Capabilities.StandardIO {
		caps |= vm.CapStandardIO
	}
	if m.Capabilities.FileIO {
		caps |= vm.CapFileIO
	}
	return caps
}

// ImagePath returns the absolute path of the configured program image, or
// empty when none is configured.
func (m *Manifest) ImagePath() string {
	if m.Program.Image == "" {
		return ""
	}
	if filepath.IsAbs(m.Program.Image) {
		return m.Program.Image
	}
	return filepath.Join(m.Dir, m.Program.Image)
}
