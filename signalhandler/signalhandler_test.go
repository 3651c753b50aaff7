package signalhandler

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalCancelsContext(t *testing.T) {
	ctx, stop := SetupHandler(context.Background())
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled after SIGINT")
	}
}

func TestStopCancelsContext(t *testing.T) {
	ctx, stop := SetupHandler(context.Background())
	stop()
	stop()
	assert.Error(t, ctx.Err())
}
