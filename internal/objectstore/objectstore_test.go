package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestMemoryPutGetDelete(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	payload := []byte("solid cube")
	if err := store.Put(ctx, "uploads/7/a", bytes.NewReader(payload), int64(len(payload)), "model/stl"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	body, info, err := store.Get(ctx, "uploads/7/a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer body.Close()
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("body = %q, want %q", got, payload)
	}
	if info.Size != int64(len(payload)) || info.ContentType != "model/stl" {
		t.Errorf("info = %+v", info)
	}

	if err := store.Delete(ctx, "uploads/7/a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := store.Get(ctx, "uploads/7/a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryDeleteMissingIsNoop(t *testing.T) {
	store := NewMemory()
	if err := store.Delete(context.Background(), "absent"); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}
}

func TestMemoryStat(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if _, err := store.Stat(ctx, "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Stat absent = %v, want ErrNotFound", err)
	}

	if err := store.Put(ctx, "k", bytes.NewReader([]byte("abc")), 3, "text/plain"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	info, err := store.Stat(ctx, "k")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Key != "k" || info.Size != 3 {
		t.Errorf("info = %+v", info)
	}
}

func TestMemoryListByPrefix(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	for _, key := range []string{"uploads/7/a", "uploads/7/b", "uploads/8/c"} {
		if err := store.Put(ctx, key, bytes.NewReader([]byte("x")), 1, ""); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	keys, err := store.List(ctx, "uploads/7/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v, want 2 under uploads/7/", keys)
	}
}
