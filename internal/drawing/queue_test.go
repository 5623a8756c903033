package drawing

import (
	"testing"

	"github.com/nantokaworks/twitch-giveaway/internal/types"
)

func TestItemQueue_CreationOrder(t *testing.T) {
	queue := NewItemQueue([]types.Item{
		{ID: 1, Name: "Mug"},
		{ID: 2, Name: "Shirt"},
		{ID: 3, Name: "Sticker"},
	})

	var order []int64
	for {
		item, ok := queue.NextUnawarded()
		if !ok {
			break
		}
		order = append(order, item.ID)
	}

	if len(order) != 3 {
		t.Fatalf("unexpected item count: got=%d want=3", len(order))
	}
	for i, id := range []int64{1, 2, 3} {
		if order[i] != id {
			t.Fatalf("unexpected order at %d: got=%d want=%d", i, order[i], id)
		}
	}
}

func TestItemQueue_SkipsAwardedItems(t *testing.T) {
	queue := NewItemQueue([]types.Item{
		{ID: 1, Name: "Mug", IsWon: true},
		{ID: 2, Name: "Shirt"},
	})

	if got := queue.Remaining(); got != 1 {
		t.Fatalf("unexpected remaining: got=%d want=1", got)
	}

	item, ok := queue.NextUnawarded()
	if !ok {
		t.Fatalf("expected an unawarded item")
	}
	if item.ID != 2 {
		t.Fatalf("unexpected item: got=%d want=2", item.ID)
	}

	if _, ok := queue.NextUnawarded(); ok {
		t.Fatalf("queue should be exhausted")
	}
}

func TestItemQueue_NeverReturnsSameItemTwice(t *testing.T) {
	queue := NewItemQueue([]types.Item{{ID: 1, Name: "Mug"}})

	first, ok := queue.NextUnawarded()
	if !ok || first.ID != 1 {
		t.Fatalf("unexpected first item: %v ok=%v", first, ok)
	}
	if _, ok := queue.NextUnawarded(); ok {
		t.Fatalf("item returned twice within one run")
	}
}

func TestItemQueue_Empty(t *testing.T) {
	queue := NewItemQueue(nil)
	if queue.Len() != 0 {
		t.Fatalf("unexpected length: got=%d want=0", queue.Len())
	}
	if _, ok := queue.NextUnawarded(); ok {
		t.Fatalf("empty queue returned an item")
	}
}
