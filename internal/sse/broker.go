// Package sse streams ledger changes to HTTP clients as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeNote    = "ledger.note"
	TypeChanged = "ledger.changed"
)

// Event is a message broadcast to every client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NoteChange is the payload of a TypeNote event.
type NoteChange struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Broker fans events out to subscribers. One goroutine owns the client set;
// public methods talk to it over channels.
type Broker struct {
	settle time.Duration

	subscribe   chan chan []byte
	unsubscribe chan chan []byte
	publish     chan Event
	count       chan chan int

	stop    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. Every note change is forwarded as a TypeNote
// event; a TypeChanged summary follows at most once per settle interval so
// clients can refresh tag and suggestion views without reacting to each file.
func NewBroker(settle time.Duration) *Broker {
	if settle <= 0 {
		settle = 2 * time.Second
	}
	b := &Broker{
		settle:      settle,
		subscribe:   make(chan chan []byte),
		unsubscribe: make(chan chan []byte),
		publish:     make(chan Event, 256),
		count:       make(chan chan int),
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var last time.Time

	send := func(ev Event) {
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			return
		}
		msg := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, payload))
		for ch := range clients {
			select {
			case ch <- msg:
			default: // slow client; drop
			}
		}
	}

	for {
		select {
		case <-b.stop:
			for ch := range clients {
				close(ch)
			}
			return
		case ch := <-b.subscribe:
			clients[ch] = struct{}{}
		case ch := <-b.unsubscribe:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}
		case resp := <-b.count:
			resp <- len(clients)
		case ev := <-b.publish:
			send(ev)
			if ev.Type != TypeNote {
				continue
			}
			if now := time.Now(); now.Sub(last) >= b.settle {
				last = now
				send(Event{Type: TypeChanged, Data: struct{}{}})
			}
		}
	}
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stop)
	}
	<-b.stopped
}

// Subscribe registers a client. The channel is closed on Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribe <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribe <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.count <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish broadcasts ev.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publish <- ev:
	case <-b.stopped:
	}
}

// NoteChanged publishes a ledger note change. Its signature matches
// index.EventCallback.
func (b *Broker) NoteChanged(kind, path string) {
	b.Publish(Event{Type: TypeNote, Data: NoteChange{Kind: kind, Path: path}})
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
