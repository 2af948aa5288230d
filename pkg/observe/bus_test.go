package observe

import (
	"testing"
	"time"
)

func TestPublishReachesMatchingSubscribers(t *testing.T) {
	bus := NewBus()
	inv := bus.Subscribe("inventory_items")
	defer inv.Close()
	all := bus.Subscribe()
	defer all.Close()
	other := bus.Subscribe("stores")
	defer other.Close()

	bus.Publish("inventory_items")

	select {
	case table := <-inv.C():
		if table != "inventory_items" {
			t.Fatalf("unexpected table %q", table)
		}
	case <-time.After(time.Second):
		t.Fatal("matching subscriber not notified")
	}

	select {
	case <-all.C():
	case <-time.After(time.Second):
		t.Fatal("wildcard subscriber not notified")
	}

	select {
	case table := <-other.C():
		t.Fatalf("unexpected notification for %q", table)
	default:
	}
}

func TestPublishCoalescesWhenSubscriberIsSlow(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("cart_items")
	defer sub.Close()

	for i := 0; i < 10; i++ {
		bus.Publish("cart_items")
	}

	<-sub.C()
	select {
	case <-sub.C():
		// a second pending signal is allowed but no more than one
	default:
	}
	select {
	case <-sub.C():
		t.Fatal("expected coalesced notifications")
	default:
	}
}

func TestClosedSubscriptionStopsReceiving(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("stores")
	sub.Close()
	sub.Close()

	bus.Publish("stores")
	select {
	case <-sub.C():
		t.Fatal("closed subscription should not receive")
	default:
	}
}
