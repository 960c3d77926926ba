package ws

import (
	"encoding/json"
	"testing"

	"citywatch/alertmedia/internal/model"
)

func TestNotifyMediaDeliversToRoom(t *testing.T) {
	hub := NewHub()
	client := &Client{send: make(chan []byte, 1)}
	other := &Client{send: make(chan []byte, 1)}
	hub.register(5, client)
	hub.register(6, other)

	media := &model.Media{ID: "m-1", Kind: model.MediaKindImage, Status: model.MediaStatusCompleted}
	hub.NotifyMedia(5, "media_completed", media)

	select {
	case data := <-client.send:
		var ev MediaEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("event is not valid JSON: %v", err)
		}
		if ev.Type != "media_completed" || ev.AlertID != 5 || ev.MediaID != "m-1" {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("subscriber did not receive the event")
	}

	select {
	case <-other.send:
		t.Fatal("event leaked into another alert room")
	default:
	}
}

func TestNotifyMediaSkipsFullClients(t *testing.T) {
	hub := NewHub()
	full := &Client{send: make(chan []byte)} // unbuffered, nobody reading
	open := &Client{send: make(chan []byte, 1)}
	hub.register(5, full)
	hub.register(5, open)

	hub.NotifyMedia(5, "media_reserved", nil)

	select {
	case <-open.send:
	default:
		t.Error("healthy subscriber must still receive the event")
	}
	if hub.metrics.Errors.Load() == 0 {
		t.Error("overflow must be counted")
	}
}

func TestUnregisterClosesAndEmptiesRoom(t *testing.T) {
	hub := NewHub()
	client := &Client{send: make(chan []byte, 1)}
	hub.register(9, client)

	hub.unregister(9, client)
	if _, ok := <-client.send; ok {
		t.Error("send channel must be closed")
	}
	if hub.RoomSize(9) != 0 {
		t.Errorf("room size = %d, want 0", hub.RoomSize(9))
	}
}
