package dotdir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/papyri/bookvec/pkg/dotdir"
)

func TestTargetUsesOverride(t *testing.T) {
	tmp := t.TempDir()
	override := filepath.Join(tmp, "custom")

	m := dotdir.NewManager()
	target, err := m.Target(override)
	if err != nil {
		t.Fatal(err)
	}

	if target != override {
		t.Fatalf("Target = %q, want %q", target, override)
	}

	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		t.Fatalf("override directory was not created: %v", err)
	}
}

func TestTargetPrefersLocalDir(t *testing.T) {
	tmp := t.TempDir()
	local := filepath.Join(tmp, ".bookvec")
	if err := os.Mkdir(local, 0o755); err != nil {
		t.Fatal(err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	m := dotdir.NewManager()
	target, err := m.Target("")
	if err != nil {
		t.Fatal(err)
	}

	resolved, _ := filepath.EvalSymlinks(target)
	expected, _ := filepath.EvalSymlinks(local)
	if resolved != expected {
		t.Fatalf("Target = %q, want local %q", resolved, expected)
	}
}
