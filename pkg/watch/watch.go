// SPDX-License-Identifier: BSD-3-Clause

// Package watch is a background service that watches a set of filesystem
// paths with github.com/fsnotify/fsnotify and publishes the debounced set
// of changed paths on an eventbus.Store, generalizing the way
// pkg/daemonconfig observes its backing file to any caller that needs
// path-change notifications.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/u-bmc-forks/daemonkit/pkg/eventbus"
	"github.com/u-bmc-forks/daemonkit/pkg/svc"
)

// DefaultDebounce is the window a burst of filesystem events is collapsed
// into one published event over.
const DefaultDebounce = 2 * time.Second

// Watch begins watching path. With Recursive set, every directory below
// path is added as well; fsnotify itself watches a single level.
type Watch struct {
	Path      string
	Recursive bool
}

// Unwatch stops watching path.
type Unwatch struct {
	Path string
}

// Command is sent on the Service's command channel to add or remove
// watched paths at runtime.
type Command interface {
	isCommand()
}

func (Watch) isCommand()   {}
func (Unwatch) isCommand() {}

// Option configures a Service at construction time.
type Option func(*Service)

// WithPaths seeds the initial set of watched paths.
func WithPaths(paths ...string) Option {
	return func(s *Service) { s.initial = append(s.initial, paths...) }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) { s.debounce = d }
}

// Service is a svc.Service wrapping an fsnotify.Watcher.
type Service struct {
	initial  []string
	debounce time.Duration
	commands chan Command
	sender   *eventbus.Sender[[]string]
}

var _ svc.Service = (*Service)(nil)

// New builds a Service and its Store. The Store delivers the debounced
// set of paths that changed in each burst.
func New(opts ...Option) (*Service, eventbus.Store[[]string]) {
	sender, store := eventbus.NewBroadcast[[]string](32)
	s := &Service{
		debounce: DefaultDebounce,
		commands: make(chan Command, 8),
		sender:   sender,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, store
}

// Name implements svc.Service.
func (s *Service) Name() string { return "watch" }

// Commands returns the channel callers send Watch/Unwatch commands on.
func (s *Service) Commands() chan<- Command { return s.commands }

// Run watches s.initial plus any paths added via Commands until ctx is
// cancelled. Every event within debounce of the previous one is folded
// into the same pending batch; the batch is published once the window
// elapses with no further events.
func (s *Service) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	defer s.sender.Close()

	for _, p := range s.initial {
		if err := w.Add(p); err != nil {
			return err
		}
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	pending := map[string]struct{}{}

	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(s.debounce)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.debounce)
		}
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case cmd := <-s.commands:
			switch c := cmd.(type) {
			case Watch:
				if c.Recursive {
					_ = filepath.WalkDir(c.Path, func(p string, d fs.DirEntry, err error) error {
						if err != nil {
							return nil
						}
						if d.IsDir() {
							_ = w.Add(p)
						}
						return nil
					})
				} else {
					_ = w.Add(c.Path)
				}
			case Unwatch:
				_ = w.Remove(c.Path)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			pending[ev.Name] = struct{}{}
			resetTimer()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}

		case <-timerC:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			pending = map[string]struct{}{}
			s.sender.Publish(paths)
		}
	}
}
