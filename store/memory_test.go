package store

import (
	"context"
	"testing"

	"github.com/rushteam/tripkit/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("want store not found, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("get after set: %q, %v", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Error("deleted key should be gone")
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	kvs := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	if err := s.BatchSet(ctx, kvs); err != nil {
		t.Fatal(err)
	}
	got, err := s.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("batch get mismatch: %v", got)
	}
}

func TestMemoryStoreZSet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	s.ZAdd(ctx, "hot", 3, "A")
	s.ZAdd(ctx, "hot", 9, "C")
	s.ZAdd(ctx, "hot", 5, "B")
	s.ZAdd(ctx, "hot", 5, "AA") // 同分按 member 升序

	members, err := s.ZRange(ctx, "hot", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"C", "AA", "B", "A"}
	if len(members) != len(want) {
		t.Fatalf("want %v, got %v", want, members)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Fatalf("want %v, got %v", want, members)
		}
	}

	top2, _ := s.ZRange(ctx, "hot", 0, 1)
	if len(top2) != 2 || top2[0] != "C" {
		t.Errorf("range [0,1] wrong: %v", top2)
	}

	score, err := s.ZScore(ctx, "hot", "B")
	if err != nil || score != 5 {
		t.Errorf("zscore B: %v, %v", score, err)
	}
	if _, err := s.ZScore(ctx, "hot", "missing"); !core.IsStoreNotFound(err) {
		t.Error("missing member should be store not found")
	}
}
