// SPDX-License-Identifier: BSD-3-Clause

package launchdbackend

import (
	"testing"

	"github.com/stretchr/testify/require"

	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr"
)

func testConfig() daemonkit.ServiceConfig {
	return daemonkit.ServiceConfig{
		Label:     daemonkit.Label{Qualifier: "com", Organization: "test", Application: "ds_test"},
		Program:   daemonkit.Program{Path: "/usr/local/bin/echo-daemon", Args: []string{"run", "--tag", "a&b"}},
		Autostart: true,
	}
}

func TestRenderPlist(t *testing.T) {
	b := New(testConfig())

	data, err := b.render()
	require.NoError(t, err)
	plist := string(data)

	require.Contains(t, plist, "<key>Label</key>")
	require.Contains(t, plist, "<string>com.test.ds_test</string>")
	require.Contains(t, plist, "<string>/usr/local/bin/echo-daemon</string>")
	require.Contains(t, plist, "<string>run</string>")
	require.Contains(t, plist, "<string>a&amp;b</string>", "argument text must be XML-escaped")
	require.Contains(t, plist, "<key>RunAtLoad</key>\n  <true/>")
}

func TestRenderPlistNoAutostart(t *testing.T) {
	cfg := testConfig()
	cfg.Autostart = false
	b := New(cfg)

	data, err := b.render()
	require.NoError(t, err)
	require.Contains(t, string(data), "<key>RunAtLoad</key>\n  <false/>")
}

func TestStatusFromPrint(t *testing.T) {
	running := `com.test.ds_test = {
	active count = 1
	state = running
	program = /usr/local/bin/echo-daemon
	pid = 4242
}`
	st := statusFromPrint(running)
	require.Equal(t, svcmgr.StateStarted, st.State)
	require.NotNil(t, st.PID)
	require.Equal(t, 4242, *st.PID)

	stopped := `com.test.ds_test = {
	active count = 0
	state = not running
}`
	st = statusFromPrint(stopped)
	require.Equal(t, svcmgr.StateStopped, st.State)
	require.Nil(t, st.PID)
}
