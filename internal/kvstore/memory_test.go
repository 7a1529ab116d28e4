package kvstore

import (
	"context"
	"testing"
)

func TestMemoryStore_GetMissingKey(t *testing.T) {
	store := NewMemoryStore()

	value, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if value != nil {
		t.Errorf("expected nil for missing key, got %q", value)
	}
}

func TestMemoryStore_SetGetRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "state", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	value, err := store.Get(ctx, "state")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(value) != `{"a":1}` {
		t.Errorf("expected stored value, got %q", value)
	}
}

func TestMemoryStore_SetOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "state", []byte("old"))
	_ = store.Set(ctx, "state", []byte("new"))

	value, _ := store.Get(ctx, "state")
	if string(value) != "new" {
		t.Errorf("expected overwritten value, got %q", value)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 key, got %d", store.Len())
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "state", []byte("abc"))

	value, _ := store.Get(ctx, "state")
	value[0] = 'X'

	again, _ := store.Get(ctx, "state")
	if string(again) != "abc" {
		t.Errorf("mutating a returned value changed stored data: %q", again)
	}
}
