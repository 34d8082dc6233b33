package conversation

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRecentGetOrCreate(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{Channel: "slack", Thread: "C1", UserRef: "U1"}

	first, err := store.Recent(ctx, "bot-a", key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.Recent(ctx, "bot-a", Key{Channel: " slack ", Thread: "C1", UserRef: "U1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID == "" || first.ID != second.ID {
		t.Fatalf("expected the same conversation, got %q and %q", first.ID, second.ID)
	}

	other, err := store.Recent(ctx, "bot-a", Key{Channel: "slack", Thread: "C1", UserRef: "U2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("expected a new conversation for another user")
	}
}

func TestMemoryStoreIsolatesBots(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{Channel: "slack", Thread: "C1", UserRef: "U1"}

	a, err := store.Recent(ctx, "bot-a", key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := store.Recent(ctx, "bot-b", key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("bots must not share conversations")
	}
	if _, err := store.Get(ctx, "bot-b", a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across bots, got %v", err)
	}
	got, err := store.Get(ctx, "bot-a", a.ID)
	if err != nil || got.ID != a.ID {
		t.Fatalf("expected own conversation, got %+v err=%v", got, err)
	}
}

func TestMemoryStoreRecentRequiresThread(t *testing.T) {
	t.Parallel()

	if _, err := NewMemoryStore().Recent(context.Background(), "bot-a", Key{Channel: "slack"}); err == nil {
		t.Fatal("expected error for empty thread")
	}
}

func TestMemoryStoreListByBotNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	for _, user := range []string{"U1", "U2", "U3"} {
		if _, err := store.Recent(ctx, "bot-a", Key{Channel: "slack", Thread: "C1", UserRef: user}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	items, err := store.ListByBot(ctx, "bot-a", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].UserRef != "U3" || items[1].UserRef != "U2" {
		t.Fatalf("unexpected list: %+v", items)
	}
}
