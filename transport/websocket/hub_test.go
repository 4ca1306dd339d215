package websocket

import (
	"encoding/json"
	"testing"

	"github.com/citygrid/road-rotate-game/game/engine"
)

func newTestClient(h *Hub, sessionID string, buffer int) *Client {
	return &Client{
		hub:       h,
		send:      make(chan []byte, buffer),
		sessionID: sessionID,
	}
}

func TestRegisterAndUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "abcd", 1)

	hub.registerClient(client)
	if len(hub.sessions["abcd"]) != 1 {
		t.Fatalf("Expected 1 client registered, got %d", len(hub.sessions["abcd"]))
	}

	hub.unregisterClient(client)
	if _, exists := hub.sessions["abcd"]; exists {
		t.Error("Expected empty session to be cleaned up")
	}

	// A closed send channel marks the client as unregistered.
	if _, open := <-client.send; open {
		t.Error("Expected the client's send channel to be closed")
	}
}

func TestBroadcastToSession(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "abcd", 4)
	other := newTestClient(hub, "zzzz", 4)
	hub.registerClient(client)
	hub.registerClient(other)

	state := &engine.PuzzleState{
		Rows:              5,
		Cols:              5,
		TotalDestinations: 2,
		Message:           "1/2 landmarks connected",
	}
	hub.BroadcastToSession("abcd", state)

	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Broadcast payload is not valid JSON: %v", err)
		}
		if msg.Event != "puzzle_update" {
			t.Errorf("Expected event 'puzzle_update', got %q", msg.Event)
		}
		if msg.SessionID != "abcd" || msg.PuzzleState == nil || msg.PuzzleState.TotalDestinations != 2 {
			t.Errorf("Unexpected message: %+v", msg)
		}
	default:
		t.Fatal("Expected the session's client to receive the broadcast")
	}

	select {
	case <-other.send:
		t.Error("Client of another session must not receive the broadcast")
	default:
	}
}

func TestBroadcastToSession_SolvedEvent(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "abcd", 4)
	hub.registerClient(client)

	hub.BroadcastToSession("abcd", &engine.PuzzleState{Solved: true, Message: "Solved in 7 rotations!"})

	data := <-client.send
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != "solved" {
		t.Errorf("Expected event 'solved', got %q", msg.Event)
	}
}

func TestBroadcastToSession_EvictsSlowClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "abcd", 1)
	hub.registerClient(client)

	// Fill the buffer, then broadcast again: the slow client must be
	// evicted instead of blocking the hub.
	client.send <- []byte("backlog")
	hub.BroadcastToSession("abcd", &engine.PuzzleState{})

	if _, exists := hub.sessions["abcd"]; exists {
		t.Error("Expected the slow client to be unregistered")
	}
}

func TestBroadcastMessage_CustomEvent(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "abcd", 4)
	hub.registerClient(client)

	hub.broadcastMessage(&Message{
		SessionID: "abcd",
		Event:     "hint",
		Data:      map[string]int{"row": 1, "col": 2},
	})

	data := <-client.send
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != "hint" {
		t.Errorf("Expected event 'hint', got %q", msg.Event)
	}
}
