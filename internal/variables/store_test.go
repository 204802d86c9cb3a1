package variables

import (
	"context"
	"errors"
	"testing"
)

func TestStore_SetGet(t *testing.T) {
	store := NewStore()
	store.Set("index", "bench-get")
	store.Set("doc_id", "1")

	value, ok := store.Get("index")
	if !ok {
		t.Fatal("expected to find 'index' key")
	}
	if value != "bench-get" {
		t.Errorf("expected 'bench-get', got %q", value)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore()

	value, ok := store.Get("missing_key")
	if ok {
		t.Errorf("expected ok=false for missing key, got ok=true with value %q", value)
	}
	if value != "" {
		t.Errorf("expected empty string for missing key, got %q", value)
	}
}

func TestStore_MustGet(t *testing.T) {
	store := NewStore()
	store.Set("doc_id", "7")

	value, err := store.MustGet("doc_id")
	if err != nil || value != "7" {
		t.Fatalf("MustGet(doc_id) = %q, %v", value, err)
	}

	_, err = store.MustGet("index")
	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingError, got %v", err)
	}
	if missing.Key != "index" {
		t.Errorf("MissingError.Key = %q, want index", missing.Key)
	}
}

func TestStore_GetAllReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Set("a", "1")

	all := store.GetAll()
	all["a"] = "changed"
	all["b"] = "2"

	if v, _ := store.Get("a"); v != "1" {
		t.Errorf("store mutated through GetAll copy: a=%q", v)
	}
	if _, ok := store.Get("b"); ok {
		t.Error("store mutated through GetAll copy: b present")
	}
}

func TestStore_Clear(t *testing.T) {
	store := NewStore()
	store.Set("a", "1")
	store.Set("b", "2")
	store.Clear()

	if all := store.GetAll(); len(all) != 0 {
		t.Fatalf("expected empty store after Clear, got %v", all)
	}
}

func TestContextRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := NewContext(context.Background(), store)
	if got := FromContext(ctx); got != store {
		t.Fatal("FromContext did not return the attached store")
	}
	if FromContext(context.Background()) != nil {
		t.Fatal("expected nil store for bare context")
	}
}
