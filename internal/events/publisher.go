// Package events pushes order and payment events to connected listeners over
// redis pub/sub. Publishing is fire-and-forget: failures are logged and never
// surfaced to the request that triggered the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"restro_backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event names emitted by the order lifecycle and payment flows.
const (
	OrderNew           = "order:new"
	OrderStatusUpdated = "order:status-updated"
	OrderItemUpdated   = "order:item-updated"
	OrderItemsAdded    = "order:items-added"
	OrderCancelled     = "order:cancelled"
	OrderCompleted     = "order:completed"
	PaymentProcessed   = "payment:processed"
	PaymentUpdated     = "payment:status-updated"
	PaymentRefunded    = "payment:refunded"
)

// Publisher fans events out to listeners. Implementations must never block a
// request on delivery.
type Publisher interface {
	PublishOrderEvent(event string, orderID, tableID int64, payload interface{})
	PublishPaymentEvent(event string, paymentID, orderID int64, payload interface{})
	Close() error
}

// envelope is the wire form of one event.
type envelope struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	OrderID   int64       `json:"order_id,omitempty"`
	TableID   int64       `json:"table_id,omitempty"`
	PaymentID int64       `json:"payment_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	EmittedAt time.Time   `json:"emitted_at"`
}

const (
	globalChannel  = "restro.events"
	publishTimeout = 2 * time.Second
)

type redisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a Publisher backed by the redis instance at addr.
func NewRedisPublisher(addr string) Publisher {
	return &redisPublisher{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (p *redisPublisher) publish(env envelope, channels ...string) {
	env.ID = uuid.NewString()
	env.EmittedAt = time.Now()

	body, err := json.Marshal(env)
	if err != nil {
		utils.LogError(err, "events: failed to marshal event "+env.Event)
		return
	}

	// The redis round trip happens off the calling goroutine so a slow or
	// unreachable broker never holds up the request that raised the event.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		for _, channel := range channels {
			if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
				utils.LogError(err, "events: failed to publish "+env.Event+" to "+channel)
			}
		}
	}()
}

func (p *redisPublisher) PublishOrderEvent(event string, orderID, tableID int64, payload interface{}) {
	channels := []string{globalChannel}
	if tableID != 0 {
		channels = append(channels, fmt.Sprintf("restro.table.%d", tableID))
	}
	if orderID != 0 {
		channels = append(channels, fmt.Sprintf("restro.order.%d", orderID))
	}
	p.publish(envelope{Event: event, OrderID: orderID, TableID: tableID, Data: payload}, channels...)
}

func (p *redisPublisher) PublishPaymentEvent(event string, paymentID, orderID int64, payload interface{}) {
	channels := []string{globalChannel}
	if orderID != 0 {
		channels = append(channels, fmt.Sprintf("restro.order.%d", orderID))
	}
	p.publish(envelope{Event: event, PaymentID: paymentID, OrderID: orderID, Data: payload}, channels...)
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}

// NoopPublisher discards all events. Used when no redis address is configured
// and in tests.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderEvent(string, int64, int64, interface{})   {}
func (NoopPublisher) PublishPaymentEvent(string, int64, int64, interface{}) {}
func (NoopPublisher) Close() error                                          { return nil }
