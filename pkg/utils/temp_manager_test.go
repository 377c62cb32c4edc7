package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTempManager_CreateAndCleanup(t *testing.T) {
	dir := t.TempDir()
	tm := NewSimpleTempManager(dir, nil)

	a, err := tm.CreateTempFile("image-processing_", ".tif")
	if err != nil {
		t.Fatal(err)
	}
	b, err := tm.CreateTempFile("image-processing_", ".tif")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("temp names collide")
	}
	if filepath.Dir(a) != dir || !strings.HasPrefix(filepath.Base(a), "image-processing_") || filepath.Ext(a) != ".tif" {
		t.Errorf("unexpected temp path %q", a)
	}
	for _, p := range []string{a, b} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s not created: %v", p, err)
		}
	}

	if err := tm.Cleanup(); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{a, b} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s survived cleanup", p)
		}
	}
	// Second cleanup is a no-op.
	if err := tm.Cleanup(); err != nil {
		t.Errorf("second Cleanup: %v", err)
	}
}

func TestTempManager_Release(t *testing.T) {
	tm := NewSimpleTempManager(t.TempDir(), nil)
	p, err := tm.CreateTempFile("x_", ".tif")
	if err != nil {
		t.Fatal(err)
	}
	if err := tm.Release(p); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("released file still exists")
	}
	// Released files are no longer tracked, so Cleanup has nothing to fail on.
	if err := os.WriteFile(p, []byte("reused"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := tm.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Error("Cleanup removed a file it no longer tracks")
	}
}

func TestTempManager_WithCleanup(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		dir := t.TempDir()
		tm := NewSimpleTempManager(dir, nil)
		boom := errors.New("encode failed")
		err := tm.WithCleanup(func() error {
			if _, err := tm.CreateTempFile("x_", ".tif"); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
		assertEmpty(t, dir)
	})

	t.Run("panic", func(t *testing.T) {
		dir := t.TempDir()
		tm := NewSimpleTempManager(dir, nil)
		func() {
			defer func() { _ = recover() }()
			_ = tm.WithCleanup(func() error {
				if _, err := tm.CreateTempFile("x_", ".tif"); err != nil {
					return err
				}
				panic("boom")
			})
		}()
		assertEmpty(t, dir)
	})
}

func TestTempManager_DefaultsToSystemTemp(t *testing.T) {
	if got := NewSimpleTempManager("", nil).GetBasePath(); got != filepath.Clean(os.TempDir()) {
		t.Errorf("GetBasePath = %q", got)
	}
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d files left in %s", len(entries), dir)
	}
}
