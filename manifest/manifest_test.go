package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lodelang/lode/vm"
)

func TestLoadManifest(t *testing.T) {
	// Create a temporary directory with a lode.toml
	dir := t.TempDir()
	tomlContent := `
[vm]
stack-size = 256

[capabilities]
standard-io = true
file-io = true

[program]
image = "out/app.lode"
`
	if err := os.WriteFile(filepath.Join(dir, "lode.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.VM.StackSize != 256 {
		t.Errorf("stack-size = %d, want 256", m.VM.StackSize)
	}
	if !m.Capabilities.StandardIO {
		t.Error("standard-io not set")
	}
	if !m.Capabilities.FileIO {
		t.Error("file-io not set")
	}
	if m.Program.Image != "out/app.lode" {
		t.Errorf("program image = %q, want out/app.lode", m.Program.Image)
	}
	if m.Dir == "" {
		t.Error("Dir not set")
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lode.toml"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.VM.StackSize != vm.DefaultStackCapacity {
		t.Errorf("default stack-size = %d, want %d", m.VM.StackSize, vm.DefaultStackCapacity)
	}
	if m.Capabilities.StandardIO || m.Capabilities.FileIO {
		t.Error("capabilities should default to ungranted")
	}
	if m.Granted() != 0 {
		t.Errorf("Granted() = %v, want 0", m.Granted())
	}
	if m.ImagePath() != "" {
		t.Errorf("ImagePath() = %q, want empty", m.ImagePath())
	}
}

func TestLoadRejectsNegativeStackSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lode.toml"), []byte("[vm]\nstack-size = -8\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for negative stack-size")
	}
	if !strings.Contains(err.Error(), "must not be negative") {
		t.Errorf("error = %q, want it to name the negative-value rule", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing lode.toml")
	}
}

func TestGranted(t *testing.T) {
	m := &Manifest{}
	m.Capabilities.StandardIO = true
	if got := m.Granted(); got != vm.CapStandardIO {
		t.Errorf("Granted() = %v, want %v", got, vm.CapStandardIO)
	}

	m.Capabilities.FileIO = true
	if got := m.Granted(); got != vm.CapStandardIO|vm.CapFileIO {
		t.Errorf("Granted() = %v, want both groups", got)
	}
}

func TestImagePathResolution(t *testing.T) {
	m := &Manifest{Dir: "/work/app"}
	m.Program.Image = "out/app.lode"
	if got := m.ImagePath(); got != filepath.Join("/work/app", "out/app.lode") {
		t.Errorf("ImagePath() = %q", got)
	}

	m.Program.Image = "/abs/app.lode"
	if got := m.ImagePath(); got != "/abs/app.lode" {
		t.Errorf("ImagePath() = %q, want /abs/app.lode", got)
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "lode.toml"), []byte("[vm]\nstack-size = 64\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad found nothing")
	}
	if m.VM.StackSize != 64 {
		t.Errorf("stack-size = %d, want 64", m.VM.StackSize)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	// A fresh temp dir has no lode.toml anywhere up to root (in practice);
	// the walk must terminate and report nothing found rather than loop.
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil {
		t.Fatalf("FindAndLoad found unexpected manifest in %s", m.Dir)
	}
}
