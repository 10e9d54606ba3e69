package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventStatus represents the status of an event in the outbox pattern.
type EventStatus string

const (
	// EventStatusPending indicates the event has been created but not yet processed
	EventStatusPending EventStatus = "pending"
	// EventStatusProcessed indicates the event has been successfully processed
	EventStatusProcessed EventStatus = "processed"
	// EventStatusFailed indicates the event processing has failed
	EventStatusFailed EventStatus = "failed"
)

// Outbox event types.
const (
	EventProductCreated = "product.created"
	EventProductDeleted = "product.deleted"
)

// Event represents an event entity for the outbox pattern.
type Event struct {
	ID          uuid.UUID
	EventType   string
	EventData   json.RawMessage
	Status      EventStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// InitMeta initializes the event metadata including ID and timestamps.
func (e *Event) InitMeta() {
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	if e.Status == "" {
		e.Status = EventStatusPending
	}
}

// ProductMessage is the payload published to the broker for product events.
type ProductMessage struct {
	Action       string  `json:"action"`
	ProductID    string  `json:"product_id"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	VariantCount int     `json:"variant_count"`
	MinPrice     float64 `json:"min_price,omitempty"`
}

// ErrMalformedMessage is returned for product messages without an action or a product id.
var ErrMalformedMessage = errors.New("malformed product message")

// Validate checks that msg identifies a product and what happened to it.
func (m ProductMessage) Validate() error {
	if m.Action == "" || m.ProductID == "" {
		return fmt.Errorf("%w: action=%q product_id=%q", ErrMalformedMessage, m.Action, m.ProductID)
	}
	return nil
}

// NewProductMessage builds the broker payload for a product and action.
func NewProductMessage(action string, product *Product) ProductMessage {
	msg := ProductMessage{
		Action:       action,
		ProductID:    product.ID.String(),
		Title:        product.Title,
		Category:     product.Category,
		VariantCount: len(product.Variants),
	}
	for i, v := range product.Variants {
		price := v.Price.InexactFloat64()
		if i == 0 || price < msg.MinPrice {
			msg.MinPrice = price
		}
	}
	return msg
}

// NewEvent wraps a product message into a pending outbox event.
func NewEvent(eventType string, msg ProductMessage) (*Event, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &Event{
		EventType: eventType,
		EventData: data,
		Status:    EventStatusPending,
	}, nil
}
