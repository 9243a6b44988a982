package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"LocalSketch/internal/state"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
	maxFrame   = 1 << 20
)

// Peer is one websocket connection to the hub.
type Peer struct {
	conn    *websocket.Conn
	addr    string
	send    chan NetworkMessage
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	cancels map[string]func()
}

func (p *Peer) close() {
	p.once.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}

// enqueue hands a frame to the peer's writer. A peer that cannot keep up is
// disconnected rather than allowed to stall the hub.
func (p *Peer) enqueue(msg NetworkMessage) {
	select {
	case p.send <- msg:
	case <-p.done:
	default:
		state.Logger().Warn("peer send buffer full, dropping connection", "component", "hub", "peer", p.addr)
		p.close()
	}
}

// Hub serves the shared remote store over websockets. Every path is a
// last-write-wins slot; subscribers get the current value and every write.
type Hub struct {
	slots    *Slots
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	peers  map[string]*Peer
	server *http.Server
}

// NewHub creates a hub with no peers.
func NewHub() *Hub {
	return &Hub{
		slots: NewSlots(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are desktop apps on the LAN, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers: make(map[string]*Peer),
	}
}

// Slots exposes the hub's registers so a host process can take part in the
// board without a loopback connection.
func (h *Hub) Slots() *Slots { return h.slots }

// Local returns a remote store backed by the hub's own registers, for the
// session running in the hosting process.
func (h *Hub) Local() *Local { return &Local{slots: h.slots} }

// PeerCount returns the number of connected peers.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) add(p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[p.addr] = p
	state.Logger().Info("peer connected", "component", "hub", "peer", p.addr)
}

func (h *Hub) remove(p *Peer) {
	h.mu.Lock()
	delete(h.peers, p.addr)
	h.mu.Unlock()

	p.mu.Lock()
	for path, cancel := range p.cancels {
		cancel()
		delete(p.cancels, path)
	}
	p.mu.Unlock()
	state.Logger().Info("peer disconnected", "component", "hub", "peer", p.addr)
}

// ServeHTTP upgrades the request and serves the peer until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		state.Logger().Warn("websocket upgrade failed", "component", "hub", "err", err)
		return
	}
	p := &Peer{
		conn:    conn,
		addr:    conn.RemoteAddr().String(),
		send:    make(chan NetworkMessage, sendBuffer),
		done:    make(chan struct{}),
		cancels: map[string]func(){},
	}
	h.add(p)
	defer h.remove(p)
	defer p.close()

	go h.writeLoop(p)
	h.readLoop(p)
}

func (h *Hub) readLoop(p *Peer) {
	p.conn.SetReadLimit(maxFrame)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg NetworkMessage
		if err := p.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				state.Logger().Warn("peer read failed", "component", "hub", "peer", p.addr, "err", err)
			}
			return
		}
		state.Logger().Debug("received", "component", "hub", "peer", p.addr, "type", msg.Type, "path", msg.Path)

		switch msg.Type {
		case MsgSubscribe:
			h.subscribe(p, msg.Path)
		case MsgUnsubscribe:
			p.mu.Lock()
			if cancel, ok := p.cancels[msg.Path]; ok {
				cancel()
				delete(p.cancels, msg.Path)
			}
			p.mu.Unlock()
		case MsgWrite:
			if err := h.slots.Write(msg.Path, msg.Value); err != nil {
				p.enqueue(NetworkMessage{Type: MsgError, Path: msg.Path, Error: err.Error()})
			}
		default:
			p.enqueue(NetworkMessage{Type: MsgError, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

func (h *Hub) subscribe(p *Peer, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.cancels[path]; ok {
		return
	}
	cancel, err := h.slots.Subscribe(path, func(v []byte) {
		p.enqueue(NetworkMessage{Type: MsgValue, Path: path, Value: json.RawMessage(v)})
	})
	if err != nil {
		p.enqueue(NetworkMessage{Type: MsgError, Path: path, Error: err.Error()})
		return
	}
	p.cancels[path] = cancel
}

// writeLoop is the only goroutine writing to the peer's connection.
func (h *Hub) writeLoop(p *Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer p.close()

	for {
		select {
		case <-p.done:
			return
		case msg := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteJSON(msg); err != nil {
				state.Logger().Warn("peer write failed", "component", "hub", "peer", p.addr, "err", err)
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Serve accepts websocket peers on l until ctx is done or Close is called.
func (h *Hub) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	h.mu.Lock()
	h.server = srv
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.Close()
	}()

	state.Logger().Info("hub listening", "component", "hub", "addr", l.Addr().String())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve hub: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and serves the hub.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return h.Serve(ctx, l)
}

// Close disconnects every peer and stops the server.
func (h *Hub) Close() error {
	h.mu.Lock()
	srv := h.server
	peers := make([]*Peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	h.slots.Close()
	for _, p := range peers {
		p.close()
	}
	if srv != nil {
		return srv.Close()
	}
	return nil
}
