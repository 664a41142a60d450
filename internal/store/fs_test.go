package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestFS(t *testing.T) *FS {
	t.Helper()
	s, err := NewFS(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("NewFS() error = %v", err)
	}
	return s
}

func TestFS_WriteReadList(t *testing.T) {
	ctx := context.Background()
	s := newTestFS(t)

	for _, name := range []string{"b_FR.json", "a_NL.json", "c_DE.json"} {
		if err := s.Write(ctx, name, []byte(`{"fileName":"`+name+`"}`)); err != nil {
			t.Fatalf("Write(%s) error = %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(s.Root(), "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"a_NL.json", "b_FR.json", "c_DE.json"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}

	data, err := s.Read(ctx, "a_NL.json")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != `{"fileName":"a_NL.json"}` {
		t.Errorf("Read() = %s", data)
	}
}

func TestFS_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestFS(t)

	if err := s.Write(ctx, "x.json", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, "x.json", []byte("second")); err != nil {
		t.Fatal(err)
	}
	data, _ := s.Read(ctx, "x.json")
	if string(data) != "second" {
		t.Errorf("Read() = %q, want second", data)
	}

	entries, _ := os.ReadDir(s.Root())
	if len(entries) != 1 {
		t.Errorf("expected no temp files left, got %d entries", len(entries))
	}
}

func TestFS_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestFS(t)

	if _, err := s.Read(ctx, "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read() error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestFS_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestFS(t)

	if err := s.Write(ctx, "gone.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "gone.json"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	names, _ := s.List(ctx)
	if len(names) != 0 {
		t.Errorf("List() after delete = %v", names)
	}
}

func TestFS_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s := newTestFS(t)

	for _, name := range []string{"", "..", "../escape.json", "sub/x.json"} {
		if err := s.Write(ctx, name, []byte("x")); err == nil {
			t.Errorf("Write(%q) expected error", name)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.json":      "application/json",
		"batch_1.zip": "application/zip",
		"notes":       "application/octet-stream",
	}
	for name, want := range tests {
		if got := contentType(name); got != want {
			t.Errorf("contentType(%q) = %q, want %q", name, got, want)
		}
	}
}
