// SPDX-License-Identifier: BSD-3-Clause

// Package daemonconfig layers configuration from a config file and,
// optionally, prefixed environment variables using github.com/knadh/koanf, watches the
// backing file for changes via pkg/watch, and publishes diffed
// eventbus.Event[ConfigChange] pairs.
package daemonconfig

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/u-bmc-forks/daemonkit/internal/obslog"
	"github.com/u-bmc-forks/daemonkit/pkg/eventbus"
	"github.com/u-bmc-forks/daemonkit/pkg/svc"
	"github.com/u-bmc-forks/daemonkit/pkg/watch"
)

// Format selects the parser used for the backing config file.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
	FormatJSON
)

func (f Format) parser() koanf.Parser {
	switch f {
	case FormatYAML:
		return yaml.Parser()
	case FormatJSON:
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// ConfigChange is published whenever the backing file reload produces a
// different snapshot than what was previously loaded.
type ConfigChange struct {
	Old *koanf.Koanf
	New *koanf.Koanf
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithEnvPrefix loads environment variables with this prefix, stripped
// and lower-cased, as overrides (e.g. prefix "DAEMONKIT_" maps
// DAEMONKIT_LOG_LEVEL to "log_level").
func WithEnvPrefix(prefix string) Option {
	return func(s *Service) { s.envPrefix = prefix }
}

// WithDebounce overrides the file watcher's default debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) { s.debounce = d }
}

// Service watches Path via pkg/watch and keeps a live *koanf.Koanf
// up to date, publishing a ConfigChange on every successful reload that
// differs from the previous snapshot. A parse error is logged and the
// previous snapshot stays authoritative.
type Service struct {
	path      string
	format    Format
	envPrefix string
	debounce  time.Duration
	watcher   *watch.Service
	watchCh   eventbus.Store[[]string]
	sender    *eventbus.Sender[ConfigChange]

	current *koanf.Koanf
}

var _ svc.Service = (*Service)(nil)

// New builds a Service observing path in the given format. It returns the
// Service and the Store callers subscribe to for ConfigChange events.
func New(path string, format Format, opts ...Option) (*Service, eventbus.Store[ConfigChange]) {
	s := &Service{
		path:     path,
		format:   format,
		debounce: watch.DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.watcher, s.watchCh = watch.New(watch.WithPaths(path), watch.WithDebounce(s.debounce))
	sender, store := eventbus.NewBroadcast[ConfigChange](16)
	s.sender = sender
	return s, store
}

// Name implements svc.Service.
func (s *Service) Name() string { return "daemonconfig" }

// Current returns the live snapshot, loading it for the first time if
// this is the first call.
func (s *Service) Current(ctx context.Context) (*koanf.Koanf, error) {
	if s.current == nil {
		if err := s.reload(); err != nil {
			return nil, err
		}
	}
	return s.current, nil
}

func (s *Service) load() (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), s.format.parser()); err != nil {
		return nil, err
	}
	if s.envPrefix != "" {
		if err := k.Load(env.Provider(s.envPrefix, ".", func(key string) string {
			return strings.ToLower(strings.TrimPrefix(key, s.envPrefix))
		}), nil); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func (s *Service) reload() error {
	next, err := s.load()
	if err != nil {
		return err
	}
	s.current = next
	return nil
}

// Run starts the embedded watch.Service against s.path and reloads +
// diffs on every debounced change until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.reload(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.watcher.Run(ctx) }()

	sub := s.watchCh.Subscribe(ctx)
	defer s.sender.Close()

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case err := <-done:
			return err
		case ev, ok := <-sub:
			if !ok || ev.Closed {
				// The watcher is gone; wait for its Run to return.
				sub = nil
				continue
			}
			if ev.Lagged > 0 {
				continue
			}
			old := s.current
			next, err := s.load()
			if err != nil {
				// The previous snapshot stays authoritative.
				obslog.Global().Warn("config reload failed", "service", s.Name(), "path", s.path, "err", err)
				continue
			}
			if reflect.DeepEqual(old.Raw(), next.Raw()) {
				continue
			}
			s.current = next
			s.sender.Publish(ConfigChange{Old: old, New: next})
		}
	}
}
