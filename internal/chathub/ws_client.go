package chathub

import (
	"encoding/json"
	"log"
	"time"

	"lawchat/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// WebSocketClient implements Client over a gorilla WebSocket connection.
type WebSocketClient struct {
	ID   string
	Conn *websocket.Conn
	Hub  *ManagerService
	Send chan models.Envelope
}

func (c *WebSocketClient) GetID() string { return c.ID }

func (c *WebSocketClient) GetSendChannel() chan<- models.Envelope { return c.Send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops the write pump and with it the
// underlying connection.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

// readPump decodes inbound frames and hands them to the hub. Every exit path
// unregisters the client so disconnect cleanup always runs.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message from %s: %v", c.ID, err)
			}
			break
		}

		var frame models.Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			// Malformed payloads are dropped, never fatal.
			log.Printf("Error decoding frame from client %s: %v", c.ID, err)
			continue
		}
		if frame.Event == "" {
			continue
		}

		c.Hub.IncomingCh <- InboundEvent{ClientID: c.ID, Name: frame.Event, Data: frame.Data}
	}
}

// writePump drains Send into the socket, coalescing queued events into one
// write and keeping the connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed by the hub; close the socket politely.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(env)
			if err != nil {
				log.Printf("Error encoding event for client %s: %v", c.ID, err)
				continue
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)

			// Flush whatever queued up behind this event.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				next := <-c.Send
				extra, err := json.Marshal(next)
				if err != nil {
					continue
				}
				w.Write([]byte{'\n'})
				w.Write(extra)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
