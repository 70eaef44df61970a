package resource

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Storage(t *testing.T) {
	c := NewController(Config{StorageQuotaBytes: 100})

	assert.True(t, c.TryAcquireStorage(60))
	assert.True(t, c.TryAcquireStorage(30))
	assert.Equal(t, int64(90), c.StorageUsage())

	assert.False(t, c.TryAcquireStorage(20))
	assert.Equal(t, int64(90), c.StorageUsage())

	c.ReleaseStorage(60)
	assert.Equal(t, int64(30), c.StorageUsage())
	assert.True(t, c.TryAcquireStorage(20))
	assert.Equal(t, int64(100), c.StorageQuota())
}

func TestController_UnlimitedStorage(t *testing.T) {
	c := NewController(Config{})

	assert.True(t, c.TryAcquireStorage(1<<40))
	assert.Equal(t, int64(1<<40), c.StorageUsage())
	c.ReleaseStorage(1 << 39)
	assert.Equal(t, int64(1<<39), c.StorageUsage())
}

func TestController_Background(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 2})
	assert.Equal(t, 2, c.BackgroundSlots())

	assert.True(t, c.TryAcquireBackground())
	assert.True(t, c.TryAcquireBackground())
	assert.False(t, c.TryAcquireBackground())

	c.ReleaseBackground()
	assert.True(t, c.TryAcquireBackground())
}

func TestController_DefaultBackgroundSlots(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, 1, c.BackgroundSlots())
	assert.True(t, c.TryAcquireBackground())
	assert.False(t, c.TryAcquireBackground())
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	assert.True(t, c.TryAcquireStorage(10))
	c.ReleaseStorage(10)
	assert.Zero(t, c.StorageUsage())
	assert.True(t, c.TryAcquireBackground())
	c.ReleaseBackground()
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<20))
}

func TestController_AcquireIO_SplitsLargeRequests(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Larger than the burst, which a single WaitN would reject.
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20+10))
}

func TestController_AcquireIO_Canceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})
	require.NoError(t, c.AcquireIO(context.Background(), 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 10))
}

func TestController_ThrottledIO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	var buf bytes.Buffer
	w := c.Writer(context.Background(), &buf)
	assert.NotSame(t, &buf, w)
	n, err := w.Write([]byte("hello trie"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	got, err := io.ReadAll(c.Reader(context.Background(), strings.NewReader(buf.String())))
	require.NoError(t, err)
	assert.Equal(t, "hello trie", string(got))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Writer(ctx, &buf).Write(make([]byte, 1<<21))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestController_ThrottledIO_Unlimited(t *testing.T) {
	var buf bytes.Buffer
	var nilController *Controller
	assert.Same(t, &buf, nilController.Writer(context.Background(), &buf))

	r := strings.NewReader("x")
	assert.Same(t, r, NewController(Config{}).Reader(context.Background(), r))
}
