// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// DefaultQueueCapacity is the default bound on each subscriber's pending
// frame queue.
const DefaultQueueCapacity = 256

// maxConsecutiveDrops is the number of back-to-back full-queue drops a
// subscriber tolerates before Publish evicts it outright. This is
// daemonkit's resolution of the eviction threshold the data model leaves
// open: one dropped payload can be a momentary stall, but a subscriber
// that is still behind three publishes later is never going to catch up,
// and keeping it registered only costs every future Publish call a
// wasted channel send attempt.
const maxConsecutiveDrops = 3

// subscription is one connected subscriber's topic set and delivery
// queue.
type subscription struct {
	topics map[string]struct{}
	queue  chan []byte
	conn   net.Conn
	drops  int
}

// PublisherServer accepts subscriber connections on the "publisher"
// endpoint. Each subscriber sends its topic set as a JSON-codec frame
// immediately after connecting; Publish then fans a payload out to every
// subscriber whose topic set contains it. A subscriber whose queue is
// still full after maxConsecutiveDrops consecutive publishes is evicted
// — its connection closed and its entry removed from s.subs — so one
// slow subscriber cannot back-pressure the publisher or its other
// subscribers indefinitely.
type PublisherServer struct {
	Endpoint      string
	QueueCapacity int
	Logger        *slog.Logger

	mu   sync.Mutex
	subs map[*subscription]struct{}
}

type topicFrame struct {
	Topics []string `json:"topics"`
}

// Serve listens on s.Endpoint, registering each connecting subscriber,
// until ctx is done.
func (s *PublisherServer) Serve(ctx context.Context) error {
	if s.QueueCapacity <= 0 {
		s.QueueCapacity = DefaultQueueCapacity
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.mu.Lock()
	s.subs = make(map[*subscription]struct{})
	s.mu.Unlock()

	ln, err := net.Listen(Network, s.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: listen %s: %w", ErrTransport, s.Endpoint, err)
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: accept: %w", ErrTransport, err)
		}
		go s.handleSubscriber(ctx, conn)
	}
}

func (s *PublisherServer) handleSubscriber(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	frameBytes, err := ReadFrame(conn)
	if err != nil {
		return
	}
	var tf topicFrame
	if err := JSONCodec().Decode(frameBytes, &tf); err != nil {
		return
	}

	sub := &subscription{
		topics: make(map[string]struct{}, len(tf.Topics)),
		queue:  make(chan []byte, s.QueueCapacity),
		conn:   conn,
	}
	for _, t := range tf.Topics {
		sub.topics[t] = struct{}{}
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub.queue:
			if !ok {
				return
			}
			if err := WriteFrame(conn, payload); err != nil {
				return
			}
		}
	}
}

// Publish fans payload out to every subscriber subscribed to topic.
func (s *PublisherServer) Publish(topic string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		if _, ok := sub.topics[topic]; !ok {
			continue
		}
		select {
		case sub.queue <- payload:
			sub.drops = 0
		default:
			sub.drops++
			if sub.drops < maxConsecutiveDrops {
				s.Logger.Warn("ipc: dropping payload for slow subscriber", "topic", topic, "drops", sub.drops)
				continue
			}
			s.Logger.Warn("ipc: evicting slow subscriber", "topic", topic, "drops", sub.drops)
			delete(s.subs, sub)
			close(sub.queue)
			sub.conn.Close()
		}
	}
}

// Subscriber connects to a PublisherServer's "publisher" endpoint for the
// given topics and yields delivered frames.
type Subscriber struct {
	Endpoint string
	Topics   []string
}

// Connect dials the endpoint, sends the topic set, and returns the
// connection for the caller to read frames from with ReadFrame.
func (s *Subscriber) Connect(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, Network, s.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, s.Endpoint, err)
	}
	payload, err := JSONCodec().Encode(topicFrame{Topics: s.Topics})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := WriteFrame(conn, payload); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
