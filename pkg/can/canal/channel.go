package canal

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Channel owns one open driver handle.
// All driver calls are serialized, and the handle is closed exactly once.
type Channel struct {
	mu        sync.Mutex
	driver    Driver
	handle    Handle
	config    string
	closeOnce sync.Once
	closeErr  error
	logger    *log.Entry
}

// Open a channel. A handle <= 0 is returned as an *OpenError.
func Open(driver Driver, config string, flags uint32) (*Channel, error) {
	logger := log.WithField("config", config)
	handle := driver.Open(config, flags)
	if handle <= 0 {
		logger.Errorf("[CANAL] open failed, handle=%d", handle)
		return nil, &OpenError{Config: config, Handle: handle}
	}
	logger.Debugf("[CANAL] channel opened, handle=%d", handle)
	return &Channel{driver: driver, handle: handle, config: config, logger: logger}, nil
}

// Handle returns the driver handle, 0 once closed
func (c *Channel) Handle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Send writes one message. A non zero status is returned as a *CanalError.
func (c *Channel) Send(msg *Msg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle <= 0 {
		return ErrNotOpen
	}
	return NewCanalError(c.driver.Send(c.handle, msg))
}

// Receive polls the driver once. ok is only true for a successful status,
// any other status means that no frame is available. The driver does not
// let us distinguish an empty queue from a real error here.
func (c *Channel) Receive(msg *Msg) (ok bool, status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle <= 0 {
		return false, StatusNotOpen
	}
	status = c.driver.Receive(c.handle, msg)
	return status == StatusSuccess, status
}

// Close releases the handle. Only the first call reaches the driver,
// later calls return the same result.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		status := c.driver.Close(c.handle)
		c.closeErr = NewCanalError(status)
		if c.closeErr != nil {
			c.logger.Warnf("[CANAL] close handle %d : %v", c.handle, c.closeErr)
		} else {
			c.logger.Debugf("[CANAL] channel closed, handle=%d", c.handle)
		}
		c.handle = 0
	})
	return c.closeErr
}
