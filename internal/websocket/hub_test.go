package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, householdID string) *Client {
	return &Client{
		hub:         hub,
		conn:        nil,
		householdID: householdID,
		send:        make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "h1")
	c2 := mockClient(hub, "h1")

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount("h1"); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount("h1"); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount("h1"); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "h1")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount("h1"); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastScopedToHousehold(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "h1")
	c2 := mockClient(hub, "h1")
	other := mockClient(hub, "h2")
	hub.Register(c1)
	hub.Register(c2)
	hub.Register(other)

	msg := NewMessage("expense", "created", "exp-42", map[string]any{"amount": 30.0})
	hub.Broadcast("h1", msg)

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "expense_created" {
				t.Errorf("expected type expense_created, got %s", got.Type)
			}
			if got.Entity != "expense" {
				t.Errorf("expected entity expense, got %s", got.Entity)
			}
			if got.ID != "exp-42" {
				t.Errorf("expected id exp-42, got %s", got.ID)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	// The other household's client sees nothing.
	select {
	case data := <-other.send:
		t.Fatalf("other household received %s", data)
	default:
	}

	hub.Unregister(c1)
	hub.Unregister(c2)
	hub.Unregister(other)
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	msg := NewMessage("chore", "completed", "c1", nil)
	hub.Broadcast("h1", msg)
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, "h1")
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast("h1", NewMessage("test", "fill", "x", nil))
	}

	// This should drop the message, not panic or block
	hub.Broadcast("h1", NewMessage("test", "dropped", "y", nil))

	// Drain to verify buffer was full
	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("chore", "updated", "c5", nil)
	if msg.Type != "chore_updated" {
		t.Errorf("expected type chore_updated, got %s", msg.Type)
	}
	if msg.Entity != "chore" {
		t.Errorf("expected entity chore, got %s", msg.Entity)
	}
	if msg.Action != "updated" {
		t.Errorf("expected action updated, got %s", msg.Action)
	}
	if msg.ID != "c5" {
		t.Errorf("expected id c5, got %s", msg.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	// Spawn goroutines that register, broadcast, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "h1")
			hub.Register(c)
			hub.Broadcast("h1", NewMessage("test", "concurrent", "", nil))
			// Drain any messages
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount("h1"); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
