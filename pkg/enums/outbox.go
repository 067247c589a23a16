package enums

// OutboxEventType identifies the domain event stored in an outbox row.
type OutboxEventType string

const (
	EventCartItemAdded   OutboxEventType = "cart.item_added"
	EventCartItemUpdated OutboxEventType = "cart.item_updated"
	EventCartItemRemoved OutboxEventType = "cart.item_removed"
	EventOrderPlaced     OutboxEventType = "order.placed"
)

// OutboxAggregateType names the aggregate an event belongs to.
type OutboxAggregateType string

const (
	AggregateCart  OutboxAggregateType = "cart"
	AggregateOrder OutboxAggregateType = "order"
)

func (t OutboxEventType) IsValid() bool {
	switch t {
	case EventCartItemAdded, EventCartItemUpdated, EventCartItemRemoved, EventOrderPlaced:
		return true
	}
	return false
}
