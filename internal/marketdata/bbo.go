// Package marketdata broadcasts best-bid/offer updates over websockets.
// This is the only market-data dissemination in scope (spec.md §1): no
// depth-of-book, no trade prints.
package marketdata

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"matchcore/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// BBO is the wire shape pushed on every committed mutation of a market's
// top-of-book.
type BBO struct {
	MarketId  engine.Id64   `json:"market_id"`
	BidTicks  engine.Ticks  `json:"bid_ticks"`
	BidLots   engine.Lots   `json:"bid_lots"`
	OfferTicks engine.Ticks `json:"offer_ticks"`
	OfferLots  engine.Lots  `json:"offer_lots"`
}

// Hub fans BBO updates for one market out to every subscribed connection.
type Hub struct {
	marketId engine.Id64

	mu      sync.RWMutex
	clients map[*client]bool

	broadcast chan BBO
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// NewHub starts a Hub for marketId. Call Run in its own goroutine.
func NewHub(marketId engine.Id64) *Hub {
	return &Hub{
		marketId:  marketId,
		clients:   make(map[*client]bool),
		broadcast: make(chan BBO, 64),
	}
}

// Push enqueues snap for broadcast. Called by the engine goroutine after
// every commit that may have moved the book (engine.Engine.SetNotify);
// never blocks the caller (spec.md §5: dissemination must not introduce
// backpressure into the matching loop).
func (h *Hub) Push(snap *engine.BBOSnapshot) {
	wire := BBO{MarketId: h.marketId}
	if snap.HasBid {
		wire.BidTicks, wire.BidLots = snap.BidTicks, snap.BidLots
	}
	if snap.HasOffer {
		wire.OfferTicks, wire.OfferLots = snap.OfferTicks, snap.OfferLots
	}
	select {
	case h.broadcast <- wire:
	default:
		// Drop: a stale BBO is superseded by the next push, never queued.
	}
}

// Run drains the broadcast channel until stop is closed, fanning each
// update out to every connected client.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case snap := <-h.broadcast:
			payload, err := json.Marshal(snap)
			if err != nil {
				log.Printf("marketdata: marshal bbo: %v", err)
				continue
			}
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.RUnlock()

		case <-stop:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// ServeHTTP upgrades r into a websocket connection and streams this
// market's BBO to it until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("marketdata: upgrade: %v", err)
		return
	}
	c := &client{id: uuid.New(), conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	log.Printf("marketdata: client %s subscribed to market %s", c.id, h.marketId)

	go c.writePump()
	c.readPump(h)
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.conn.Close()
		log.Printf("marketdata: client %s unsubscribed from market %s", c.id, h.marketId)
	}()
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
