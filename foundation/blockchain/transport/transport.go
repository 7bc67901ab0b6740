// Package transport moves encoded messages between nodes over HTTP.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/peer"
)

// HostHeader carries the host of the sending node on every message.
const HostHeader = "X-Node-Host"

// maxMessageSize caps the body read back from a peer on failure.
const maxMessageSize = 1 << 20

// EventHandler defines a function that is called when events
// occur in the processing of messages.
type EventHandler func(v string, args ...any)

// Receiver is called for every message delivered to this node.
type Receiver func(from peer.Peer, payload []byte)

// Config represents the configuration required to construct the transport.
type Config struct {
	Host      string
	Peers     *peer.PeerSet
	BaseURL   string
	Client    *http.Client
	Timeout   time.Duration
	EvHandler EventHandler
}

// HTTP sends messages to peers by posting them to their private node API
// and hands messages posted to this node to the registered receiver.
type HTTP struct {
	host      string
	peers     *peer.PeerSet
	baseURL   string
	client    *http.Client
	evHandler EventHandler

	mu       sync.RWMutex
	receiver Receiver
}

// New constructs an HTTP transport.
func New(cfg Config) (*HTTP, error) {
	if cfg.Host == "" {
		return nil, errors.New("host is required")
	}

	if cfg.Peers == nil {
		cfg.Peers = peer.NewPeerSet()
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://%s/v1/node"
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	t := HTTP{
		host:      cfg.Host,
		peers:     cfg.Peers,
		baseURL:   cfg.BaseURL,
		client:    cfg.Client,
		evHandler: ev,
	}

	return &t, nil
}

// Host returns the host this node is reachable on.
func (t *HTTP) Host() string {
	return t.host
}

// Peers returns the set of known peers.
func (t *HTTP) Peers() *peer.PeerSet {
	return t.peers
}

// OnReceive registers the function called for every inbound message.
func (t *HTTP) OnReceive(fn Receiver) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.receiver = fn
}

// Deliver hands an inbound message to the registered receiver. Messages
// arriving before a receiver is registered are dropped.
func (t *HTTP) Deliver(from peer.Peer, payload []byte) {
	t.mu.RLock()
	fn := t.receiver
	t.mu.RUnlock()

	if fn == nil {
		t.evHandler("transport: Deliver: no receiver: dropping message from %s", from.Host)
		return
	}

	fn(from, payload)
}

// Broadcast sends the payload to every known peer. Failures are logged and
// do not stop the remaining sends.
func (t *HTTP) Broadcast(ctx context.Context, payload []byte) {
	for _, pr := range t.peers.Copy(t.host) {
		if err := t.Send(ctx, pr, payload); err != nil {
			t.evHandler("transport: Broadcast: WARNING: %s: %s", pr.Host, err)
		}
	}
}

// Send posts the payload to the specified peer.
func (t *HTTP) Send(ctx context.Context, to peer.Peer, payload []byte) error {
	url := fmt.Sprintf(t.baseURL+"/message", to.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HostHeader, t.host)

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}

	msg, err := io.ReadAll(io.LimitReader(resp.Body, maxMessageSize))
	if err != nil {
		return err
	}

	return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
}
