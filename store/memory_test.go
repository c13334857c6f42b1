package store

import (
	"context"
	"testing"
)

func TestMemoryStoreInsertAndFind(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := &User{Email: "a@example.com", FirstName: "John", LastName: "Kowalski", PasswordHash: "h"}
	if err := s.Insert(ctx, u); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected Insert to assign an ID")
	}

	found, err := s.FindByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if found.ID != u.ID {
		t.Fatalf("expected matching ID, got %s vs %s", found.ID, u.ID)
	}
}

func TestMemoryStoreDuplicateInsertConflicts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := &User{Email: "dup@example.com", PasswordHash: "h1"}
	if err := s.Insert(ctx, first); err != nil {
		t.Fatalf("first Insert error: %v", err)
	}

	second := &User{Email: "dup@example.com", PasswordHash: "h2"}
	if err := s.Insert(ctx, second); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMemoryStoreFindByEmailNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.FindByEmail(context.Background(), "missing@example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreUpdateVerifiedSetsFlag(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := &User{Email: "verify@example.com", PasswordHash: "h"}
	if err := s.Insert(ctx, u); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	if err := s.UpdateVerified(ctx, u.ID, true); err != nil {
		t.Fatalf("UpdateVerified error: %v", err)
	}

	found, err := s.FindByEmail(ctx, "verify@example.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if !found.IsVerified {
		t.Fatal("expected user to be verified")
	}
}
