package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type kv interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

func exerciseStore(t *testing.T, s kv) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, KeyStrokes); err != nil || ok {
		t.Fatalf("Get on empty store = %v, %v; want absent", ok, err)
	}
	if err := s.Set(ctx, KeyStrokes, "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, err := s.Get(ctx, KeyStrokes); err != nil || !ok || v != "[]" {
		t.Fatalf("Get = %q, %v, %v; want [] present", v, ok, err)
	}
	if err := s.Remove(ctx, KeyStrokes); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, KeyStrokes); err != nil {
		t.Fatalf("Remove of absent key: %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeyStrokes); ok {
		t.Fatal("key still present after Remove")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.Set(cancelled, KeyShapes, "[]"); !errors.Is(err, context.Canceled) {
		t.Errorf("Set with cancelled context = %v, want context.Canceled", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Set(ctx, KeyShapes, "[]"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())

	var zero Memory
	if err := zero.Set(context.Background(), "k", "v"); err != nil {
		t.Errorf("zero Memory Set: %v", err)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sketch.json")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	exerciseStore(t, f)
}

func TestFilePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sketch.json")

	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := f.Set(ctx, KeyBackground, `"#1a1a1a"`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f.Close()

	g, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, err := g.Get(ctx, KeyBackground)
	if err != nil || !ok || v != `"#1a1a1a"` {
		t.Errorf("Get after reopen = %q, %v, %v", v, ok, err)
	}
	if g.Path() != path {
		t.Errorf("Path() = %q, want %q", g.Path(), path)
	}
}

func TestOpenFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sketch.json")
	if err := os.WriteFile(path, []byte("[1,2,3]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Error("OpenFile should reject a file that is not a JSON object")
	}
}
