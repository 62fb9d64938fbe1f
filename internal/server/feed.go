package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pefman/cardstats/internal/dataset"
)

const (
	feedBuffer    = 32
	feedWriteWait = 5 * time.Second
	feedHelloType = "hello"
)

// feedMessage is the websocket wire shape of a store event.
type feedMessage struct {
	Type   string          `json:"type"`
	Record *dataset.Record `json:"record,omitempty"`
	At     time.Time       `json:"at"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan feedMessage
}

// Feed pushes store mutations to websocket subscribers. A subscriber that
// falls feedBuffer messages behind is disconnected.
type Feed struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewFeed returns a Feed with no subscribers.
func NewFeed(log *slog.Logger) *Feed {
	if log == nil {
		log = slog.Default()
	}
	return &Feed{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		subs:     map[*subscriber]struct{}{},
	}
}

// Publish fans ev out to every subscriber without blocking. It has the
// dataset.Observer signature.
func (f *Feed) Publish(ev dataset.Event) {
	rec := ev.Record
	msg := feedMessage{Type: string(ev.Op), Record: &rec, At: ev.At}

	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		select {
		case sub.send <- msg:
		default:
			f.log.Warn("feed: subscriber too slow, dropping", "remote", sub.conn.RemoteAddr().String())
			f.removeLocked(sub)
		}
	}
}

// Len returns the number of connected subscribers.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// ServeHTTP upgrades the request and registers the connection.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		f.log.Warn("feed: upgrade failed", "error", err)
		return
	}
	sub := &subscriber{conn: conn, send: make(chan feedMessage, feedBuffer)}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		_ = conn.Close()
		return
	}
	sub.send <- feedMessage{Type: feedHelloType, At: time.Now().UTC()}
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	f.log.Debug("feed: connect", "remote", r.RemoteAddr)
	go f.writeLoop(sub)
	go f.readLoop(sub)
}

// Close disconnects every subscriber and refuses new ones.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for sub := range f.subs {
		f.removeLocked(sub)
	}
}

func (f *Feed) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for msg := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := sub.conn.WriteJSON(msg); err != nil {
			f.log.Debug("feed: write error", "error", err)
			f.remove(sub)
			return
		}
	}
	_ = sub.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(feedWriteWait))
}

// readLoop discards client frames and notices disconnects.
func (f *Feed) readLoop(sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			f.remove(sub)
			return
		}
	}
}

func (f *Feed) remove(sub *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(sub)
}

// removeLocked must be called with mu held. The writer closes the connection
// once send is drained.
func (f *Feed) removeLocked(sub *subscriber) {
	if _, ok := f.subs[sub]; !ok {
		return
	}
	delete(f.subs, sub)
	close(sub.send)
}
