// SPDX-License-Identifier: BSD-3-Clause

package daemonconfig

import (
	"context"

	"dario.cat/mergo"
)

// Mergeable is implemented by any config type usable with CachedConfig.
// Merge returns the result of layering other on top of the receiver
// without mutating either argument.
type Mergeable[T any] interface {
	Merge(other T) (T, error)
}

// Accessor loads the live value of T from its ultimate source (a file, an
// API, environment variables).
type Accessor[T any] func(ctx context.Context) (T, error)

// CachedConfig holds a three-layer view of a Mergeable config value: the
// last value read from its source (user), a cached snapshot (cache), and
// an explicit in-memory override (explicit). Snapshot merges all three
// without touching the source; Load re-reads the source; Reload refreshes
// only the cache from the last-read user value.
type CachedConfig[T Mergeable[T]] struct {
	accessor Accessor[T]
	user     T
	cache    T
	explicit T
}

// NewCachedConfig builds a CachedConfig backed by accessor, seeded with
// initial as the first user/cache value.
func NewCachedConfig[T Mergeable[T]](accessor Accessor[T], initial T) *CachedConfig[T] {
	return &CachedConfig[T]{accessor: accessor, user: initial, cache: initial}
}

// Load re-reads the source via the accessor, storing the result as the
// new user value, and refreshes the cache to match.
func (c *CachedConfig[T]) Load(ctx context.Context) error {
	v, err := c.accessor(ctx)
	if err != nil {
		return err
	}
	c.user = v
	c.cache = v
	return nil
}

// Reload sets the cache to the current user value without touching the
// source.
func (c *CachedConfig[T]) Reload() {
	c.cache = c.user
}

// SetExplicit installs an in-memory override layered on top of user and
// cache by Snapshot.
func (c *CachedConfig[T]) SetExplicit(v T) {
	c.explicit = v
}

// Snapshot merges user, cache, and explicit — in that precedence order,
// each later layer overriding the former — into a single value, without
// mutating any of the three stored layers. It is pure: calling it
// repeatedly with no intervening Load/Reload/SetExplicit returns
// equivalent values.
func (c *CachedConfig[T]) Snapshot() (T, error) {
	merged := c.user
	var err error
	merged, err = merged.Merge(c.cache)
	if err != nil {
		var zero T
		return zero, err
	}
	merged, err = merged.Merge(c.explicit)
	if err != nil {
		var zero T
		return zero, err
	}
	return merged, nil
}

// UserConfig is the built-in Mergeable config type carrying the
// environment variable overlay exported verbatim to child processes by
// pkg/svcmgr backends.
type UserConfig struct {
	EnvironmentVariables map[string]string
}

var _ Mergeable[UserConfig] = UserConfig{}

// Merge deep-merges other into a copy of u using dario.cat/mergo, with
// other's values taking precedence over u's.
func (u UserConfig) Merge(other UserConfig) (UserConfig, error) {
	merged := UserConfig{
		EnvironmentVariables: make(map[string]string, len(u.EnvironmentVariables)),
	}
	for k, v := range u.EnvironmentVariables {
		merged.EnvironmentVariables[k] = v
	}
	if err := mergo.Merge(&merged, other, mergo.WithOverride); err != nil {
		return UserConfig{}, err
	}
	return merged, nil
}
