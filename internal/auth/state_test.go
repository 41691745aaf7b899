package auth

import (
	"testing"
	"time"
)

func TestStateStoreConsumeOnce(t *testing.T) {
	store := NewStateStore(0)
	t.Cleanup(store.Close)

	token := store.Issue()
	if token == "" {
		t.Fatal("Issue() returned an empty token")
	}

	if !store.Consume(token) {
		t.Fatal("Consume() = false for a freshly issued token")
	}

	// a token accepts exactly one callback
	if store.Consume(token) {
		t.Fatal("Consume() = true for an already-consumed token")
	}
}

func TestStateStoreRejectsUnknownToken(t *testing.T) {
	store := NewStateStore(0)
	t.Cleanup(store.Close)

	if store.Consume("never-issued") {
		t.Fatal("Consume() = true for a token this store never issued")
	}
}

func TestStateStoreRejectsExpiredToken(t *testing.T) {
	store := NewStateStore(10 * time.Millisecond)
	t.Cleanup(store.Close)

	token := store.Issue()

	time.Sleep(30 * time.Millisecond)

	if store.Consume(token) {
		t.Fatal("Consume() = true for an expired token")
	}
}

func TestStateStoreTokensAreUnique(t *testing.T) {
	store := NewStateStore(0)
	t.Cleanup(store.Close)

	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		token := store.Issue()
		if seen[token] {
			t.Fatalf("Issue() returned duplicate token %q", token)
		}

		seen[token] = true
	}
}
