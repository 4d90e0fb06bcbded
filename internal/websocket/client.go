// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/ledgerline/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Dashboards are consumers; the only inbound traffic is small
	// application-level ping messages.
	maxInboundSize = 1024
)

// Client is one connected dashboard. The hub owns registration and closes
// the send channel; the client owns the two connection pumps.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	remote string
	send   chan Message
}

// NewClient wraps an upgraded connection for hub registration.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		remote: conn.RemoteAddr().String(),
		send:   make(chan Message, 256),
	}
}

// Start launches the read and write pumps. The read pump unregisters the
// client from the hub when the connection drops.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Str("remote", c.remote).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Str("remote", c.remote).Msg("websocket closed unexpectedly")
			}
			return
		}

		// Anything other than ping is ignored; broadcasts flow one way.
		if msg.Type == MessageTypePing {
			c.trySend(Message{Type: MessageTypePong})
		}
	}
}

// trySend queues a message without ever blocking the read pump. A full
// queue drops the pong; the protocol-level ping keeps the connection alive.
func (c *Client) trySend(msg Message) {
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Hub closed the channel during unregister or shutdown
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Warn().Err(err).Str("remote", c.remote).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
