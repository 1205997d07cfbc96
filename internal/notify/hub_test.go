package notify

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(role string, buffer int) *Client {
	return &Client{Role: role, Send: make(chan []byte, buffer)}
}

func drainEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.Send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return ev
	default:
		t.Fatal("no event queued")
		return Event{}
	}
}

func TestRegisterAnnouncesOnlineCounts(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	receptionist := newTestClient("receptionist", 8)
	hub.Register(receptionist)

	ev := drainEvent(t, receptionist)
	if ev.Type != EventOnlineStatus {
		t.Fatalf("event type = %s, want %s", ev.Type, EventOnlineStatus)
	}

	doctor := newTestClient("doctor", 8)
	hub.Register(doctor)

	counts := hub.OnlineCounts()
	if counts["receptionist"] != 1 || counts["doctor"] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if hub.ClientCount() != 2 {
		t.Errorf("client count = %d, want 2", hub.ClientCount())
	}
}

func TestQueueUpdatedReachesAllClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	a := newTestClient("receptionist", 8)
	b := newTestClient("doctor", 8)
	hub.Register(a)
	hub.Register(b)

	// Drop the online_status events queued by registration.
	for len(a.Send) > 0 {
		<-a.Send
	}
	for len(b.Send) > 0 {
		<-b.Send
	}

	hub.QueueUpdated()

	for _, c := range []*Client{a, b} {
		ev := drainEvent(t, c)
		if ev.Type != EventQueueUpdated {
			t.Errorf("event type = %s, want %s", ev.Type, EventQueueUpdated)
		}
	}
}

func TestBroadcastSkipsFullClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	full := newTestClient("doctor", 1)
	full.Send <- []byte("stale")
	hub.clients[full] = struct{}{} // bypass Register to keep the buffer full

	// Must not block even though the client cannot take another message.
	hub.QueueUpdated()

	if len(full.Send) != 1 {
		t.Errorf("buffer length = %d, want the original message only", len(full.Send))
	}
}

func TestUnregisterClosesSendAndUpdatesCounts(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	c := newTestClient("admin", 8)
	hub.Register(c)
	hub.Unregister(c)

	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.ClientCount())
	}
	if _, open := <-c.Send; open {
		// The registration event may still be buffered; drain until closed.
		for range c.Send {
		}
	}

	// Double unregister is a no-op.
	hub.Unregister(c)
}
