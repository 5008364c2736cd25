package service

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/pkg/logger"
)

// EventStream fans audit entries out to connected admin dashboards over
// websocket. A slow client drops messages rather than backing up the
// audit pipeline.
type EventStream struct {
	mu      sync.RWMutex
	clients map[*streamClient]struct{}
	closed  bool
}

type streamClient struct {
	conn *websocket.Conn
	send chan *model.AuditEntry
}

func NewEventStream() *EventStream {
	return &EventStream{
		clients: make(map[*streamClient]struct{}),
	}
}

// Subscribe takes ownership of conn and streams entries until the client
// disconnects or the stream closes.
func (s *EventStream) Subscribe(conn *websocket.Conn) {
	client := &streamClient{
		conn: conn,
		send: make(chan *model.AuditEntry, 64),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(client)
	go s.readLoop(client)
}

func (s *EventStream) Broadcast(entry *model.AuditEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		select {
		case client.send <- entry:
		default:
			// client too slow, skip this entry for it
		}
	}
}

func (s *EventStream) writeLoop(client *streamClient) {
	defer s.drop(client)
	for entry := range client.send {
		if err := client.conn.WriteJSON(entry); err != nil {
			logger.Debug("event stream write failed", "error", err)
			return
		}
	}
}

// readLoop discards inbound frames; it exists to notice disconnects.
func (s *EventStream) readLoop(client *streamClient) {
	defer s.drop(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *EventStream) drop(client *streamClient) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
	}
	s.mu.Unlock()
	client.conn.Close()
}

func (s *EventStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for client := range s.clients {
		delete(s.clients, client)
		close(client.send)
		client.conn.Close()
	}
}
