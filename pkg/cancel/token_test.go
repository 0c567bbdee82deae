// SPDX-License-Identifier: BSD-3-Clause

package cancel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/cancel"
)

func TestChildCancelledByParent(t *testing.T) {
	root := cancel.NewRoot(context.Background())
	child := root.Child()

	require.False(t, child.IsCancelled())
	root.Cancel()

	select {
	case <-child.Cancelled():
	case <-time.After(time.Second):
		t.Fatal("child was not cancelled after parent cancel")
	}
	require.True(t, child.IsCancelled())
	require.True(t, root.IsCancelled())
}

func TestChildCancelDoesNotCancelParent(t *testing.T) {
	root := cancel.NewRoot(context.Background())
	child := root.Child()

	child.Cancel()

	require.True(t, child.IsCancelled())
	require.False(t, root.IsCancelled())
}

func TestCancelHappensBeforeObservation(t *testing.T) {
	root := cancel.NewRoot(context.Background())
	done := make(chan struct{})
	go func() {
		<-root.Cancelled()
		close(done)
	}()

	root.Cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancellation was not observed")
	}
}
