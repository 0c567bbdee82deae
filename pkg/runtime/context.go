// SPDX-License-Identifier: BSD-3-Clause

package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cirello.io/oversight/v2"

	"github.com/u-bmc-forks/daemonkit/internal/obslog"
	"github.com/u-bmc-forks/daemonkit/pkg/cancel"
	"github.com/u-bmc-forks/daemonkit/pkg/eventbus"
	"github.com/u-bmc-forks/daemonkit/pkg/svc"
)

// Client is the handle returned by Spawn. It identifies the spawned
// service within its Context; nothing here lets a caller stop one service
// without stopping the whole tree, matching oversight's own supervision
// model (a tree is halted as a unit, individual children are restarted by
// the tree itself on failure).
type Client struct {
	name string
}

// Name returns the spawned service's name.
func (c *Client) Name() string {
	return c.name
}

// Context is a supervised tree of svc.Service instances sharing one
// cancel.Token. It accepts any svc.Service spawned at runtime and leaves
// bus wiring up to the caller.
type Context struct {
	root   *cancel.Token
	tree   *oversight.Tree
	logger *slog.Logger

	mu      sync.Mutex
	names   []string
	errs    []error
	started bool
	doneCh  chan error

	onServiceError func(name string, err error)
}

// NewContext creates a Context rooted at parent. The returned Context's
// supervision tree is not running until Start is called.
func NewContext(parent context.Context, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Context{
		root:   cancel.NewRoot(parent),
		logger: logger,
		doneCh: make(chan error, 1),
	}
	c.tree = oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(obslog.NewOversightLogger(c.logger)),
	)
	return c
}

// CancellationToken returns the root cancel.Token shared by every spawned
// service. Services call Child on it if they need their own derived
// token, and the signal listener cancels it directly to begin shutdown.
func (c *Context) CancellationToken() *cancel.Token {
	return c.root
}

// Start launches the supervision tree in the background. It must be
// called exactly once. Spawn may be called either before or after Start;
// oversight accepts children into a running tree.
func (c *Context) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	go func() {
		c.doneCh <- c.tree.Start(c.root.Context())
	}()
	return nil
}

// Spawn adds s to the supervision tree with oversight.Transient restart
// semantics and a per-service shutdown timeout of svc.ShutdownTimeoutOf(s).
func (c *Context) Spawn(s svc.Service) (*Client, error) {
	name := s.Name()
	if name == "" {
		return nil, ErrNameEmpty
	}

	timeout := svc.ShutdownTimeoutOf(s)
	if err := c.tree.Add(
		wrapChild(s, c.recordError),
		oversight.Transient(),
		oversight.Timeout(timeout),
		name,
	); err != nil {
		return nil, fmt.Errorf("%w %s to tree: %w", ErrAddService, name, err)
	}

	c.mu.Lock()
	c.names = append(c.names, name)
	c.mu.Unlock()

	return &Client{name: name}, nil
}

// AddEventService spawns s under the Context and returns both its Client
// and the caller-supplied Store, so the caller never has to thread the
// service's own Sender back out through the Context. Go does not allow
// generic methods, hence the free function rather than Context.AddEventService.
func AddEventService[T any](c *Context, s svc.Service, store eventbus.Store[T]) (*Client, eventbus.Store[T], error) {
	client, err := c.Spawn(s)
	if err != nil {
		return nil, nil, err
	}
	return client, store, nil
}

// Names returns the spawned service names in insertion order.
func (c *Context) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *Context) recordError(name string, err error) {
	c.mu.Lock()
	c.errs = append(c.errs, fmt.Errorf("%s: %w", name, err))
	hook := c.onServiceError
	c.mu.Unlock()
	if hook != nil {
		hook(name, err)
	}
}

// Stop cancels the root token and waits for the supervision tree to
// return, up to ctx's deadline. It aggregates the tree's own return value
// with every per-service error recorded along the way. A tree that ended
// because every child completed is not an error.
func (c *Context) Stop(ctx context.Context) error {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	c.root.Cancel()

	select {
	case treeErr := <-c.doneCh:
		c.mu.Lock()
		all := make([]error, 0, len(c.errs)+1)
		all = append(all, c.errs...)
		if treeErr != nil && !errors.Is(treeErr, context.Canceled) &&
			!errors.Is(treeErr, oversight.ErrNoChildProcessLeft) {
			all = append(all, treeErr)
		}
		c.mu.Unlock()
		return errors.Join(all...)
	case <-ctx.Done():
		return ctx.Err()
	}
}
