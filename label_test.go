// SPDX-License-Identifier: BSD-3-Clause

package daemonkit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	daemonkit "github.com/u-bmc-forks/daemonkit"
)

func TestLabelRoundTrip(t *testing.T) {
	l := daemonkit.Label{Qualifier: "com", Organization: "test", Application: "ds_test"}

	s := l.String()
	require.Equal(t, "com.test.ds_test", s)

	parsed, err := daemonkit.ParseLabel(s)
	require.NoError(t, err)
	require.Equal(t, l, parsed)
}

func TestParseLabelRejectsWrongOrEmptySegments(t *testing.T) {
	for _, s := range []string{"", "a", "a.b", "a.b.c.d", "a..c", ".b.c", "a.b."} {
		_, err := daemonkit.ParseLabel(s)
		require.ErrorIs(t, err, daemonkit.ErrInvalidIdentifier, "input %q should be rejected", s)
	}
}

func TestFormatParseRoundTripForArbitraryInputs(t *testing.T) {
	inputs := []string{"com.example.app", "q.o.a", "x.y.z"}
	for _, s := range inputs {
		l, err := daemonkit.ParseLabel(s)
		require.NoError(t, err)
		require.Equal(t, s, l.String())
	}
}
