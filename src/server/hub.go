package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop. It owns the client set: register,
// unregister, replay and broadcast all funnel through here, so no mutex is
// needed around the map.
func (s *ChartServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Store(int32(len(s.clients)))
			// Send initial state on connect
			s.sendSnapshot(client)

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.clientCount.Store(int32(len(s.clients)))
			}

		case client := <-s.replay:
			// Explicit subscribe command: resend the full snapshot
			if _, ok := s.clients[client]; ok {
				s.sendSnapshot(client)
			}

		case payload := <-s.broadcast:
			// Update state and broadcast
			s.stateMutex.Lock()
			s.latestPayload = payload
			s.stateMutex.Unlock()

			// Broadcast to all clients
			for client := range s.clients {
				select {
				case client.send <- payload:
					// Payload sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.clientCount.Store(int32(len(s.clients)))

		case <-s.quit:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientCount.Store(0)
			s.Logger.Info("Hub stopped")
			return
		}
	}
}

// -----------------------------------------------------------------------------

// sendSnapshot pushes the latest payload to one client, retyped as INITIAL so
// late joiners can distinguish the first full frame from increments.
func (s *ChartServer) sendSnapshot(client *Client) {
	s.stateMutex.RLock()
	latest := s.latestPayload
	s.stateMutex.RUnlock()

	if latest == nil {
		return
	}

	snapshot := *latest
	snapshot.Type = "INITIAL"

	select {
	case client.send <- &snapshot:
	default:
		// Client buffer full; the next broadcast will catch it up or prune it.
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *ChartServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MRenderPayload, 256),
	}

	s.register <- client

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *ChartServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Command {
	case "subscribe":
		// Route through the hub loop; this goroutine must not touch the
		// client map.
		select {
		case s.replay <- client:
		case <-s.quit:
		}

	case "zoom":
		zoom, err := parseZoomCommand(cmd)
		if err != nil {
			s.Logger.Warning("Rejected zoom command: %v", err)
			return
		}
		if err := s.Controller.OnZoomChange(zoom); err != nil {
			s.Logger.Warning("Rejected zoom command: %v", err)
		}

	default:
		s.Logger.Debug("Ignoring unknown command: %s", cmd.Command)
	}
}
