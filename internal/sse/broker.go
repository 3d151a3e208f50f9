// Package sse implements a Server-Sent Events broker for real-time updates.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types pushed to clients.
const (
	TypeEntrySaved       = "entry.saved"
	TypeEntryDeleted     = "entry.deleted"
	TypeEntriesReloaded  = "entries.reloaded"
	TypeStatsUpdated     = "stats.updated"
	TypeSummaryCreated   = "summary.created"
	TypeSummaryDeleted   = "summary.deleted"
	TypeTemplatesUpdated = "templates.updated"
	TypeSettingsUpdated  = "settings.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// entryChange is a change to the entry collection. Every change is followed
// by a throttled stats.updated event.
type entryChange struct {
	typ string
	ids []string
}

const (
	// historySize is how many recent messages are kept for clients that
	// reconnect with Last-Event-ID.
	historySize = 64
	// clientBuffer is the per-client queue length; a client that falls
	// further behind misses messages.
	clientBuffer = 64
)

type message struct {
	id  uint64
	raw []byte
}

type subscription struct {
	ch     chan []byte
	replay bool
	after  uint64
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, message history and the stats throttle). Public methods communicate
// with this loop through channels, so no mutexes are required.
//
// stats.updated is rate limited to one event per throttle interval. A change
// that arrives inside the interval schedules one trailing stats.updated at
// the end of it, so the last change is always followed by fresh stats.
type Broker struct {
	statsMin  time.Duration
	heartbeat time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	entryCh       chan entryChange
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithHeartbeat sets the interval of keep-alive comments sent to idle
// clients. Zero disables them.
func WithHeartbeat(d time.Duration) BrokerOption {
	return func(b *Broker) { b.heartbeat = d }
}

// NewBroker creates a new SSE broker with the given stats throttle interval.
func NewBroker(statsThrottle time.Duration, opts ...BrokerOption) *Broker {
	if statsThrottle <= 0 {
		statsThrottle = 2 * time.Second
	}

	b := &Broker{
		statsMin:      statsThrottle,
		heartbeat:     25 * time.Second,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		entryCh:       make(chan entryChange, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		seq       uint64
		history   []message
		lastStats time.Time
		statsT    *time.Timer
		statsC    <-chan time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))

		history = append(history, message{id: seq, raw: raw})
		if len(history) > historySize {
			history = history[len(history)-historySize:]
		}

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	emitStats := func(now time.Time) {
		lastStats = now
		broadcast(Event{Type: TypeStatsUpdated, Data: map[string]string{}})
	}

	for {
		select {
		case <-b.stopCh:
			if statsT != nil {
				statsT.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			if sub.replay {
				for _, m := range history {
					if m.id <= sub.after {
						continue
					}
					select {
					case sub.ch <- m.raw:
					default:
					}
				}
			}
			clients[sub.ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case change := <-b.entryCh:
			ids := change.ids
			if ids == nil {
				ids = []string{}
			}
			broadcast(Event{Type: change.typ, Data: map[string][]string{"ids": ids}})

			now := time.Now()
			if wait := b.statsMin - now.Sub(lastStats); wait <= 0 {
				emitStats(now)
			} else if statsC == nil {
				statsT = time.NewTimer(wait)
				statsC = statsT.C
			}

		case <-statsC:
			statsT, statsC = nil, nil
			emitStats(time.Now())

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.subscribe(subscription{})
}

// Resume adds a client that last saw event lastID. Retained messages after
// lastID are queued on the returned channel before live ones.
func (b *Broker) Resume(lastID uint64) chan []byte {
	return b.subscribe(subscription{replay: true, after: lastID})
}

func (b *Broker) subscribe(sub subscription) chan []byte {
	sub.ch = make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(sub.ch)
		return sub.ch
	}

	select {
	case b.subscribeCh <- sub:
	case <-b.stopped:
		close(sub.ch)
	}

	return sub.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
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
	case b.countReqCh <- resp:
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishEntryChange publishes an entry change of type typ (entry.saved,
// entry.deleted or entries.reloaded) followed by a throttled stats.updated
// event.
func (b *Broker) PublishEntryChange(typ string, ids ...string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.entryCh <- entryChange{typ: typ, ids: ids}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). A client
// reconnecting with a Last-Event-ID header, or a lastEventId query
// parameter, first receives the retained events it missed.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var ch chan []byte
	if lastID, ok := lastEventID(r); ok {
		ch = b.Resume(lastID)
	} else {
		ch = b.Subscribe()
	}
	defer b.Unsubscribe(ch)

	var ping <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		ping = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

func lastEventID(r *http.Request) (uint64, bool) {
	v := r.Header.Get("Last-Event-ID")
	if v == "" {
		v = r.URL.Query().Get("lastEventId")
	}
	if v == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
