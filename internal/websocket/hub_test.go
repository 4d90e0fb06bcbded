// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/ledgerline/internal/models"
)

// newHubClient builds a client without a network connection; broadcast tests
// only need the send channel.
func newHubClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan Message, 16),
	}
}

func runHub(t *testing.T, hub *Hub) context.CancelFunc {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("hub did not stop within 5s")
		}
	})

	return cancel
}

func waitForClientCount(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", hub.GetClientCount(), want)
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	client := newHubClient(hub)
	hub.Register <- client
	waitForClientCount(t, hub, 1)

	hub.Unregister <- client
	waitForClientCount(t, hub, 0)
}

func TestHub_BroadcastWebhookReceived(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	client := newHubClient(hub)
	hub.Register <- client
	waitForClientCount(t, hub, 1)

	log := &models.WebhookLog{
		TransactionID:     "TXN-1",
		Status:            models.WebhookStatusSuccessful,
		TransactionAmount: 500,
		Environment:       models.EnvironmentProduction,
	}
	hub.BroadcastWebhookReceived(log)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeWebhookReceived {
			t.Errorf("Type = %q, want %q", msg.Type, MessageTypeWebhookReceived)
		}
		data, ok := msg.Data.(WebhookReceivedData)
		if !ok {
			t.Fatalf("Data has type %T, want WebhookReceivedData", msg.Data)
		}
		if data.TransactionID != "TXN-1" {
			t.Errorf("TransactionID = %q, want TXN-1", data.TransactionID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received within 2s")
	}
}

func TestHub_BroadcastCreditRun(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	client := newHubClient(hub)
	hub.Register <- client
	waitForClientCount(t, hub, 1)

	hub.BroadcastCreditRun(false, 3, 75, 0)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeCreditRun {
			t.Errorf("Type = %q, want %q", msg.Type, MessageTypeCreditRun)
		}
		data, ok := msg.Data.(CreditRunData)
		if !ok {
			t.Fatalf("Data has type %T, want CreditRunData", msg.Data)
		}
		if data.CreditsAwarded != 75 {
			t.Errorf("CreditsAwarded = %d, want 75", data.CreditsAwarded)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received within 2s")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	cancel := runHub(t, hub)

	client := newHubClient(hub)
	hub.Register <- client
	waitForClientCount(t, hub, 1)

	cancel()
	waitForClientCount(t, hub, 0)

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("client channel delivered a message after shutdown, want closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client channel not closed within 2s")
	}
}

func TestMarshalMessage(t *testing.T) {
	t.Parallel()

	msg := Message{Type: MessageTypePong}
	data, err := MarshalMessage(msg)
	if err != nil {
		t.Fatalf("MarshalMessage: %v", err)
	}
	if string(data) != `{"type":"pong","data":null}` {
		t.Errorf("MarshalMessage = %s", data)
	}
}
