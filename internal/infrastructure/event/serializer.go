package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/returns"
	"github.com/oms/backend/internal/domain/shared"
)

// EventSerializer handles JSON serialization of domain events. The outbox
// stores events as JSON payloads keyed by event type; deserialization needs
// the concrete Go type registered up front.
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a serializer with every workflow event type
// registered
func NewEventSerializer() *EventSerializer {
	s := &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
	s.registerWorkflowEvents()
	return s
}

// registerWorkflowEvents binds all event types emitted by the order,
// inventory and return aggregates
func (s *EventSerializer) registerWorkflowEvents() {
	s.Register(order.EventTypeOrderCreated, &order.OrderCreatedEvent{})
	s.Register(order.EventTypeOrderPaymentEntered, &order.OrderPaymentEnteredEvent{})
	s.Register(order.EventTypeOrderCompleted, &order.OrderCompletedEvent{})
	s.Register(order.EventTypeOrderCanceled, &order.OrderCanceledEvent{})

	s.Register(inventory.EventTypeShipmentReady, &inventory.ShipmentReadyEvent{})
	s.Register(inventory.EventTypeShipmentShipped, &inventory.ShipmentShippedEvent{})
	s.Register(inventory.EventTypeShipmentDelivered, &inventory.ShipmentDeliveredEvent{})
	s.Register(inventory.EventTypeShipmentCanceled, &inventory.ShipmentCanceledEvent{})
	s.Register(inventory.EventTypeInventoryUnitCreated, &inventory.InventoryUnitCreatedEvent{})
	s.Register(inventory.EventTypeInventoryUnitShipped, &inventory.InventoryUnitShippedEvent{})
	s.Register(inventory.EventTypeInventoryUnitReturned, &inventory.InventoryUnitReturnedEvent{})
	s.Register(inventory.EventTypeInventoryUnitReleased, &inventory.InventoryUnitReleasedEvent{})

	s.Register(returns.EventTypeCustomerReturnCreated, &returns.CustomerReturnCreatedEvent{})
	s.Register(returns.EventTypeReturnItemReceived, &returns.ReturnItemReceivedEvent{})
	s.Register(returns.EventTypeExchangeRequested, &returns.ExchangeRequestedEvent{})
}

// Register registers an event type for deserialization. The eventType must
// match what EventType() returns on the event.
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize serializes a domain event to JSON bytes
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize deserializes JSON bytes to the registered concrete event type
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	eventPtr := reflect.New(t).Interface()

	if err := json.Unmarshal(data, eventPtr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("deserialized object does not implement DomainEvent")
	}

	return event, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns all registered event types
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	return types
}
