package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestResolveOrder(t *testing.T) {
	base := t.TempDir()
	rootA := t.TempDir()
	rootB := t.TempDir()

	writeFile(t, filepath.Join(rootA, "tree.obj"), "a")
	writeFile(t, filepath.Join(rootB, "tree.obj"), "b")
	writeFile(t, filepath.Join(rootA, "rock.obj"), "a")
	writeFile(t, filepath.Join(base, "rock.obj"), "base")

	m := NewManager()
	if err := m.AddRoot(rootA); err != nil {
		t.Fatalf("AddRoot failed: %v", err)
	}
	if err := m.AddRoot(rootB); err != nil {
		t.Fatalf("AddRoot failed: %v", err)
	}

	// Last added root wins.
	got, err := m.Resolve("tree.obj", base)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != filepath.Join(rootB, "tree.obj") {
		t.Errorf("Resolve(tree.obj) = %s, want file in rootB", got)
	}

	// The base directory is tried before any root.
	got, err = m.Resolve("rock.obj", base)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != filepath.Join(base, "rock.obj") {
		t.Errorf("Resolve(rock.obj) = %s, want file in base", got)
	}
}

func TestResolveAbsolute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ground.obj")
	writeFile(t, path, "v 0 0 0\n")

	m := NewManager()
	got, err := m.Resolve(path, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != path {
		t.Errorf("Resolve = %s, want %s", got, path)
	}
}

func TestResolveNotFound(t *testing.T) {
	m := NewManager()
	_, err := m.Resolve("missing.obj", t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = m.Resolve(filepath.Join(t.TempDir(), "missing.obj"), "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for absolute path, got %v", err)
	}
}

func TestAddRootRejectsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	writeFile(t, path, "x")

	m := NewManager()
	if err := m.AddRoot(path); err == nil {
		t.Error("expected error adding a file as root")
	}
	if err := m.AddRoot(filepath.Join(dir, "nope")); err == nil {
		t.Error("expected error adding a missing root")
	}
	if len(m.Roots()) != 0 {
		t.Errorf("expected no roots, got %v", m.Roots())
	}
}

func TestLoadCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.obj")
	writeFile(t, path, "first")

	m := NewManager()
	data, err := m.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("Load = %q, want %q", data, "first")
	}

	writeFile(t, path, "second")
	data, _ = m.Load(path)
	if string(data) != "first" {
		t.Errorf("cached Load = %q, want %q", data, "first")
	}

	hits, misses := m.Cache().Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats = (%d, %d), want (1, 1)", hits, misses)
	}

	m.Cache().Delete(path)
	data, _ = m.Load(path)
	if string(data) != "second" {
		t.Errorf("Load after Delete = %q, want %q", data, "second")
	}
}

func TestLoadMissing(t *testing.T) {
	m := NewManager()
	if _, err := m.Load(filepath.Join(t.TempDir(), "missing.obj")); err == nil {
		t.Error("expected error loading missing file")
	}
	if m.Cache().Len() != 0 {
		t.Error("failed load should not be cached")
	}
}

func TestCache(t *testing.T) {
	c := NewCache()

	if _, ok := c.Get("a"); ok {
		t.Error("expected miss on empty cache")
	}
	c.Set("a", []byte("1"))
	if data, ok := c.Get("a"); !ok || string(data) != "1" {
		t.Errorf("Get(a) = %q, %v", data, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	if hits, misses := c.Stats(); hits != 0 || misses != 0 {
		t.Errorf("Stats after Clear = (%d, %d), want (0, 0)", hits, misses)
	}
}

func TestClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.obj")
	writeFile(t, path, "v 0 0 0\n")

	m := NewManager()
	if err := m.AddRoot(dir); err != nil {
		t.Fatalf("AddRoot failed: %v", err)
	}
	if _, err := m.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	m.Close()
	if len(m.Roots()) != 0 {
		t.Errorf("expected no roots after Close, got %v", m.Roots())
	}
	if m.Cache().Len() != 0 {
		t.Errorf("expected empty cache after Close, got %d items", m.Cache().Len())
	}
}
