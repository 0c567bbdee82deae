// SPDX-License-Identifier: BSD-3-Clause

package bus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nats-io/nats.go"

	"github.com/u-bmc-forks/daemonkit/pkg/daemonid"
	"github.com/u-bmc-forks/daemonkit/pkg/signal"
)

// Subject names for the event types that cross the process boundary:
// Signal, RouteChange, and ServiceInfo. Filesystem-watch
// paths and config-change pairs stay process-local (pkg/watch,
// pkg/daemonconfig already publish them on in-process eventbus.Store
// values); these three cross the process boundary because another
// daemonkit process on the host needs to observe them.
const (
	SubjectSignal      = "daemonkit.signal"
	SubjectRouteChange = "daemonkit.route_change"
	SubjectServiceInfo = "daemonkit.service_info"
)

// RouteChange reports a change in the host's network routing table,
// relayed so other daemonkit processes can react to interface/route
// flaps without their own netlink plumbing.
type RouteChange struct {
	Interface string
	Address   string
	Up        bool
}

// ServiceInfo announces one daemonkit process's identity and reachable
// endpoints for simple same-host service discovery.
type ServiceInfo struct {
	NodeID   string
	Label    string
	Endpoint string
}

// Relay wraps a *nats.Conn with typed Publish/Subscribe helpers for the
// three externally-surfaced event types, stamping each ServiceInfo
// announcement with a stable per-node identity.
type Relay struct {
	conn   *nats.Conn
	nodeID string
}

// NewRelay connects to provider (typically a Bus's ConnProvider) and
// returns a Relay identified by nodeID. If nodeID is empty, one is
// loaded from (or created under) stateDir via
// pkg/daemonid.GetOrCreatePersistentID so a ServiceInfo announcement
// keeps the same NodeID across restarts of the same installation — a
// peer that only remembers "node X went away" should see the same X
// come back, not a fresh one every time this process restarts. An
// empty stateDir falls back to os.UserCacheDir()/daemonkit.
func NewRelay(provider nats.InProcessConnProvider, nodeID, stateDir string) (*Relay, error) {
	if nodeID == "" {
		if stateDir == "" {
			dir, err := os.UserCacheDir()
			if err != nil {
				dir = os.TempDir()
			}
			stateDir = filepath.Join(dir, "daemonkit")
		}
		id, err := daemonid.GetOrCreatePersistentID("node-id", stateDir)
		if err != nil {
			return nil, fmt.Errorf("%w: persistent node id: %w", ErrNotAvailable, err)
		}
		nodeID = id
	}
	nc, err := nats.Connect("", nats.InProcessServer(provider))
	if err != nil {
		return nil, fmt.Errorf("%w: connect relay: %w", ErrNotAvailable, err)
	}
	return &Relay{conn: nc, nodeID: nodeID}, nil
}

// Close drains and closes the underlying connection.
func (r *Relay) Close() {
	r.conn.Drain()
}

// PublishSignal relays a locally-received signal to every subscribing
// process on the host, so e.g. a supervisor process can react to a
// SIGHUP delivered to a child it does not itself listen for.
func (r *Relay) PublishSignal(s signal.Signal) error {
	return r.publish(SubjectSignal, s)
}

// SubscribeSignal delivers Signal events to fn until the returned
// subscription is unsubscribed.
func (r *Relay) SubscribeSignal(fn func(signal.Signal)) (*nats.Subscription, error) {
	return r.conn.Subscribe(SubjectSignal, func(msg *nats.Msg) {
		var s signal.Signal
		if json.Unmarshal(msg.Data, &s) == nil {
			fn(s)
		}
	})
}

// PublishRouteChange relays rc to every subscribing process on the host.
func (r *Relay) PublishRouteChange(rc RouteChange) error {
	return r.publish(SubjectRouteChange, rc)
}

// PublishServiceInfo relays info, stamped with this Relay's node ID.
func (r *Relay) PublishServiceInfo(info ServiceInfo) error {
	info.NodeID = r.nodeID
	return r.publish(SubjectServiceInfo, info)
}

func (r *Relay) publish(subject string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %w", ErrNotAvailable, subject, err)
	}
	return r.conn.Publish(subject, payload)
}

// SubscribeRouteChange delivers RouteChange events to fn until the
// returned subscription is unsubscribed.
func (r *Relay) SubscribeRouteChange(fn func(RouteChange)) (*nats.Subscription, error) {
	return r.conn.Subscribe(SubjectRouteChange, func(msg *nats.Msg) {
		var rc RouteChange
		if json.Unmarshal(msg.Data, &rc) == nil {
			fn(rc)
		}
	})
}

// SubscribeServiceInfo delivers ServiceInfo events to fn until the
// returned subscription is unsubscribed.
func (r *Relay) SubscribeServiceInfo(fn func(ServiceInfo)) (*nats.Subscription, error) {
	return r.conn.Subscribe(SubjectServiceInfo, func(msg *nats.Msg) {
		var info ServiceInfo
		if json.Unmarshal(msg.Data, &info) == nil {
			fn(info)
		}
	})
}
