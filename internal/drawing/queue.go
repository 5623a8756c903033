package drawing

import "github.com/nantokaworks/twitch-giveaway/internal/types"

// ItemQueue is the ordered run of not-yet-awarded items for one drawing run.
// Items are visited in creation order; an item handed out by NextUnawarded is
// never returned again within the same run.
type ItemQueue struct {
	items []types.Item
	pos   int
}

func NewItemQueue(items []types.Item) *ItemQueue {
	return &ItemQueue{items: items}
}

// NextUnawarded returns the next item still eligible for drawing, advancing
// past it. Returns false when the queue is exhausted.
func (q *ItemQueue) NextUnawarded() (*types.Item, bool) {
	for q.pos < len(q.items) {
		item := &q.items[q.pos]
		q.pos++
		if !item.IsWon {
			return item, true
		}
	}
	return nil, false
}

// Remaining returns how many unawarded items have not been visited yet.
func (q *ItemQueue) Remaining() int {
	n := 0
	for i := q.pos; i < len(q.items); i++ {
		if !q.items[i].IsWon {
			n++
		}
	}
	return n
}

// Len returns the total number of items loaded into the queue.
func (q *ItemQueue) Len() int {
	return len(q.items)
}
