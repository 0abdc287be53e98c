package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestDiskStore_SaveOpenRemove(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	n, err := store.Save(ctx, "blob-1.pdf", strings.NewReader("содержимое"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if n != int64(len("содержимое")) {
		t.Errorf("size: want %d, got %d", len("содержимое"), n)
	}

	r, err := store.Open(ctx, "blob-1.pdf")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	data, _ := io.ReadAll(r)
	_ = r.Close()
	if string(data) != "содержимое" {
		t.Errorf("content round trip: %q", data)
	}

	if err := store.Remove(ctx, "blob-1.pdf"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := store.Open(ctx, "blob-1.pdf"); err == nil {
		t.Error("open after remove must fail")
	}
	// Removing an absent blob is a no-op.
	if err := store.Remove(ctx, "blob-1.pdf"); err != nil {
		t.Errorf("second remove must not error: %v", err)
	}
}

func TestDiskStore_SaveRefusesOverwrite(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir())
	ctx := context.Background()

	if _, err := store.Save(ctx, "blob", strings.NewReader("a")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := store.Save(ctx, "blob", strings.NewReader("b")); err == nil {
		t.Error("saving an existing name must fail")
	}
}

func TestDiskStore_RejectsPathTricks(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"", "../escape", "a/b", `a\b`, "."} {
		if _, err := store.Save(ctx, name, strings.NewReader("x")); err == nil {
			t.Errorf("name %q must be rejected", name)
		}
	}
}
