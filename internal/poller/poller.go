// Package poller empties shopper carts once the host reports their order
// as completed.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/leoviajar/wc-upsell/internal/repository"
)

type orderCompletedEvent struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
}

type Poller struct {
	carts  repository.CartRepository
	reader *kafka.Reader
}

func NewPoller(carts repository.CartRepository, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-completed",
		GroupID:  "upsell-cart-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{carts: carts, reader: reader}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.consumeAndClearCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		log.Printf("error closing reader: %v", err)
	}
}

func (p *Poller) consumeAndClearCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		log.Printf("error reading message: %v", err)
		return
	}

	var event orderCompletedEvent
	if errUnmarshal := json.Unmarshal(m.Value, &event); errUnmarshal != nil {
		log.Printf("error parsing message: %v", errUnmarshal)
		return
	}
	if event.SessionID == "" {
		log.Printf("order-completed event missing session_id")
		return
	}

	errDelete := p.carts.DeleteCart(ctx, event.SessionID)
	if errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		log.Printf("failed to delete cart for session %s: %v", event.SessionID, errDelete)
	}
}
