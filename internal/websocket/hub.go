// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

// Package websocket pushes live webhook and credit activity to connected
// admin dashboards.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerline/internal/logging"
	"github.com/tomtom215/ledgerline/internal/metrics"
	"github.com/tomtom215/ledgerline/internal/models"
)

// Message types for WebSocket communication
const (
	MessageTypePing              = "ping"
	MessageTypePong              = "pong"
	MessageTypeWebhookReceived   = "webhook_received"
	MessageTypeCreditRun         = "credit_run"
	MessageTypeLedgerEntryVoided = "ledger_entry_voided"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
//
// Uses priority-based selection: shutdown first, then client lifecycle
// events, then broadcasts. When Go's select has multiple ready channels it
// picks randomly; the priority ordering keeps client state consistent
// before messages are processed.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: Check for shutdown (highest priority, non-blocking)
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		// Priority 2: Handle client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
			// No lifecycle events pending
		}

		// Priority 3: Handle broadcast messages or wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// shutdown gracefully closes all connected clients.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	closed := 0
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		closed++
	}

	metrics.WebSocketConnections.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", closed).
		Msg("websocket hub stopped")
}

// broadcastToClients sends a message to all connected clients. A client
// whose send queue is full is assumed stuck and gets dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Track clients to remove (can't modify map during iteration)
	var toRemove []*Client

	for client := range h.clients {
		select {
		case client.send <- message:
			metrics.WebSocketMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WebhookReceivedData represents data sent with webhook_received messages.
type WebhookReceivedData struct {
	Timestamp     string  `json:"timestamp"`
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Environment   string  `json:"environment"`
}

// BroadcastWebhookReceived notifies dashboards of a new webhook delivery.
func (h *Hub) BroadcastWebhookReceived(log *models.WebhookLog) {
	data := WebhookReceivedData{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		TransactionID: log.TransactionID,
		Status:        log.Status,
		Amount:        log.TransactionAmount,
		Environment:   log.Environment,
	}

	message := Message{
		Type: MessageTypeWebhookReceived,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Msg("broadcast channel full, dropping webhook message")
	}
}

// CreditRunData represents data sent with credit_run messages.
type CreditRunData struct {
	Timestamp      string `json:"timestamp"`
	DryRun         bool   `json:"dry_run"`
	ProcessedCount int    `json:"processed_count"`
	CreditsAwarded int64  `json:"credits_awarded"`
	Errors         int    `json:"errors"`
}

// BroadcastCreditRun notifies dashboards that a credit engine run finished.
func (h *Hub) BroadcastCreditRun(dryRun bool, processedCount int, creditsAwarded int64, errorCount int) {
	data := CreditRunData{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		DryRun:         dryRun,
		ProcessedCount: processedCount,
		CreditsAwarded: creditsAwarded,
		Errors:         errorCount,
	}

	message := Message{
		Type: MessageTypeCreditRun,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Info().Int("clients", h.GetClientCount()).Int("processed_count", processedCount).Msg("broadcast credit_run")
	default:
		logging.Warn().Msg("broadcast channel full, dropping credit_run message")
	}
}

// BroadcastJSON sends an arbitrary typed message to all connected clients
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping JSON message")
	}
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
