// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/luismeyer95/blockchain-sim-sub000/business/web/errs"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/message"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/peer"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/transport"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/web"
)

// Transport represents the side of the transport that receives messages.
type Transport interface {
	Host() string
	Deliver(from peer.Peer, payload []byte)
}

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log       *zap.SugaredLogger
	State     *state.State
	Transport Transport
	Peers     *peer.PeerSet
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st := message.Status{
		Host:   h.Transport.Host(),
		Height: h.State.Height(),
	}
	if latest, ok := h.State.LatestBlock(); ok {
		st.LatestHash = latest.Header.Hash
	}

	hosts := []string{}
	if h.Peers != nil {
		for _, pr := range h.Peers.Copy(st.Host) {
			hosts = append(hosts, pr.Host)
		}
	}

	status := struct {
		message.Status
		KnownPeers []string `json:"known_peers"`
	}{
		Status:     st,
		KnownPeers: hosts,
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Message takes a message posted by a peer and hands it to the node worker.
// The message is handled in the background, the peer only learns it was
// received.
func (h Handlers) Message(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	host := r.Header.Get(transport.HostHeader)
	if host == "" {
		return errs.NewTrusted(errors.New("missing "+transport.HostHeader+" header"), http.StatusBadRequest)
	}

	data, err := web.Body(r)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Transport.Deliver(peer.New(host), data)

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}
