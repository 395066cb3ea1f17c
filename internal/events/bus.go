// internal/events/bus.go
package events

import (
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const TopicOrderCreated = "order:created"

// OrderCreated is published after a checkout commits.
type OrderCreated struct {
	TransactionID uuid.UUID
	OrderNumber   string
	UserID        uuid.UUID
	Total         decimal.Decimal
	ProductIDs    []uuid.UUID
	CreatedAt     time.Time
}

type Publisher interface {
	PublishOrderCreated(event OrderCreated)
}

// Bus is an in-process event bus. Handlers run asynchronously so publishing
// never blocks the request that triggered it.
type Bus struct {
	bus evbus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: evbus.New()}
}

func (b *Bus) PublishOrderCreated(event OrderCreated) {
	b.bus.Publish(TopicOrderCreated, event)
}

func (b *Bus) SubscribeOrderCreated(handler func(OrderCreated)) error {
	return b.bus.SubscribeAsync(TopicOrderCreated, handler, false)
}

func (b *Bus) UnsubscribeOrderCreated(handler func(OrderCreated)) error {
	return b.bus.Unsubscribe(TopicOrderCreated, handler)
}

// Wait blocks until in-flight handlers return.
func (b *Bus) Wait() {
	b.bus.WaitAsync()
}
