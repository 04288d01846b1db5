package modinfo

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGoMod(t *testing.T, dir, module string) {
	t.Helper()
	content := "module " + module + "\n\ngo 1.26.0\n"
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPackagePath_ModuleRoot(t *testing.T) {
	dir := t.TempDir()
	writeGoMod(t, dir, "example.com/game")

	got, err := PackagePath(dir)
	if err != nil {
		t.Fatalf("PackagePath: %v", err)
	}
	if got != "example.com/game" {
		t.Errorf("PackagePath = %q, want %q", got, "example.com/game")
	}
}

func TestPackagePath_NestedPackage(t *testing.T) {
	dir := t.TempDir()
	writeGoMod(t, dir, "example.com/game")

	nested := filepath.Join(dir, "internal", "units")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := PackagePath(nested)
	if err != nil {
		t.Fatalf("PackagePath: %v", err)
	}
	if got != "example.com/game/internal/units" {
		t.Errorf("PackagePath = %q, want %q", got, "example.com/game/internal/units")
	}
}

func TestPackagePath_NoModule(t *testing.T) {
	dir := t.TempDir()
	if _, err := PackagePath(dir); err == nil {
		t.Error("PackagePath should fail outside a module")
	}
}

func TestPackagePath_MissingModuleDirective(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("go 1.26.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := PackagePath(dir); err == nil {
		t.Error("PackagePath should fail on a go.mod without a module directive")
	}
}
