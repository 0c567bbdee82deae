// SPDX-License-Identifier: BSD-3-Clause

package daemonkit

import (
	"fmt"
	"strings"
)

// Label is the globally unique identity of a service: a qualifier,
// organization, and application name, formatted "qualifier.organization.application".
// It names the unit file on Linux, the plist on macOS, the registry key on
// Windows, and prefixes every pkg/ipc endpoint path.
type Label struct {
	Qualifier    string
	Organization string
	Application  string
}

// String formats l as its dotted form. It is the inverse of ParseLabel:
// for every Label l built from three non-empty parts,
// ParseLabel(l.String()) == l.
func (l Label) String() string {
	return l.Qualifier + "." + l.Organization + "." + l.Application
}

// ParseLabel parses the dotted form "qualifier.organization.application"
// produced by Label.String. It fails with ErrInvalidIdentifier unless s
// splits into exactly three non-empty segments.
func ParseLabel(s string) (Label, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Label{}, fmt.Errorf("%w: %q has %d segments, want 3", ErrInvalidIdentifier, s, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return Label{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidIdentifier, s)
		}
	}
	return Label{Qualifier: parts[0], Organization: parts[1], Application: parts[2]}, nil
}
