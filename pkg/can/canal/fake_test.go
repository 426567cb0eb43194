package canal

import (
	"sync"
	"sync/atomic"
	"time"
)

// In memory driver used to test the binding without a native library
type fakeDriver struct {
	mu           sync.Mutex
	handle       Handle
	sendStatus   Status
	closeStatus  Status
	rx           []Msg
	sent         []Msg
	receiveDelay time.Duration

	opens    atomic.Int32
	closes   atomic.Int32
	sends    atomic.Int32
	receives atomic.Int32
	inRecv   atomic.Bool

	lastConfig string
	lastFlags  uint32
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{handle: 3}
}

func (d *fakeDriver) Open(config string, flags uint32) Handle {
	d.opens.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastConfig = config
	d.lastFlags = flags
	return d.handle
}

func (d *fakeDriver) Close(handle Handle) Status {
	d.closes.Add(1)
	return d.closeStatus
}

func (d *fakeDriver) Send(handle Handle, msg *Msg) Status {
	d.sends.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, *msg)
	return d.sendStatus
}

func (d *fakeDriver) Receive(handle Handle, msg *Msg) Status {
	d.receives.Add(1)
	d.inRecv.Store(true)
	defer d.inRecv.Store(false)
	if d.receiveDelay > 0 {
		time.Sleep(d.receiveDelay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rx) == 0 {
		return StatusFifoEmpty
	}
	*msg = d.rx[0]
	d.rx = d.rx[1:]
	return StatusSuccess
}

func (d *fakeDriver) push(msg Msg) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rx = append(d.rx, msg)
}
