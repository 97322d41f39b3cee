package events

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingRequested, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := BookingEventPayload{BookingID: 7, Status: "pending", PriceCents: 6000}
	if err := bus.PublishJSON(EventBookingRequested, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventBookingRequested {
		t.Errorf("expected type %s, got %s", EventBookingRequested, received.Type)
	}

	var decoded BookingEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.BookingID != 7 || decoded.PriceCents != 6000 {
		t.Errorf("payload mismatch: %+v", decoded)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return errors.New("handler error ignored") })
	bus.Subscribe("other", func(_ *Event) error { t.Fatal("wrong type delivered"); return nil })

	bus.Publish(&Event{Type: "event"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

func TestPublishJSONNilBus(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON("event", struct{}{}); err != nil {
		t.Errorf("nil bus should be a no-op, got %v", err)
	}
}
