package memory

import (
	"context"
	"testing"
)

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	if _, ok, _ := s.Get(ctx, "theme"); ok {
		t.Fatalf("expected empty storage")
	}
	if err := s.Set(ctx, "theme", "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := s.Get(ctx, "theme"); !ok || v != "dark" {
		t.Fatalf("expected dark, got %q (%v)", v, ok)
	}
	if err := s.Remove(ctx, "theme"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "theme"); ok {
		t.Fatalf("expected key removed")
	}
}
