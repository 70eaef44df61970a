package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// StorageQuotaBytes bounds the bytes held by quota-managed stores.
	// If 0, usage is tracked but not limited.
	StorageQuotaBytes int64

	// MaxBackgroundWorkers is the number of concurrent background jobs.
	// If 0, defaults to 1.
	MaxBackgroundWorkers int64

	// IOLimitBytesPerSec is the maximum IO throughput for rate-limited streams.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages process-wide resources.
type Controller struct {
	cfg Config

	storageSem  *semaphore.Weighted // nil if unlimited
	storageUsed atomic.Int64

	bgSem *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxBackgroundWorkers <= 0 {
		cfg.MaxBackgroundWorkers = 1
	}

	c := &Controller{
		cfg:   cfg,
		bgSem: semaphore.NewWeighted(cfg.MaxBackgroundWorkers),
	}

	if cfg.StorageQuotaBytes > 0 {
		c.storageSem = semaphore.NewWeighted(cfg.StorageQuotaBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// TryAcquireStorage reserves bytes of the storage quota without blocking.
// It returns false if the reservation would exceed the quota.
func (c *Controller) TryAcquireStorage(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.storageSem != nil {
		if !c.storageSem.TryAcquire(bytes) {
			return false
		}
	}

	c.storageUsed.Add(bytes)
	return true
}

// ReleaseStorage returns reserved bytes to the quota.
func (c *Controller) ReleaseStorage(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.storageSem != nil {
		c.storageSem.Release(bytes)
	}
	c.storageUsed.Add(-bytes)
}

// StorageUsage returns the reserved bytes.
func (c *Controller) StorageUsage() int64 {
	if c == nil {
		return 0
	}
	return c.storageUsed.Load()
}

// StorageQuota returns the quota in bytes, or 0 if unlimited.
func (c *Controller) StorageQuota() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.StorageQuotaBytes
}

// TryAcquireBackground reserves a background slot without blocking.
func (c *Controller) TryAcquireBackground() bool {
	if c == nil {
		return true
	}
	return c.bgSem.TryAcquire(1)
}

// ReleaseBackground releases a background slot.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.bgSem.Release(1)
}

// BackgroundSlots returns the number of background slots.
func (c *Controller) BackgroundSlots() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxBackgroundWorkers)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the limiter's burst are split.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil || bytes <= 0 {
		return nil
	}

	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
