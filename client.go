package gocanal

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/samsamfire/gocanal/pkg/can"
	"github.com/samsamfire/gocanal/pkg/can/canal"
	log "github.com/sirupsen/logrus"
)

// Client drives one bus through open, send once, receive loop and close.
// Console output goes to out, diagnostics to the logger.
type Client struct {
	bus       can.Bus
	out       io.Writer
	printer   *FramePrinter
	logger    *log.Entry
	mu        sync.Mutex
	opened    bool
	closeOnce sync.Once
	closeErr  error
}

// Buses able to report their driver handle
type handleReporter interface {
	Handle() canal.Handle
}

// DemoFrame is the frame sent at startup when nothing else is configured :
// standard id 0x123, four bytes 11 22 33 44
func DemoFrame() can.Frame {
	frame := can.NewFrame(0x123, 0, 4)
	frame.Data = [8]byte{0x11, 0x22, 0x33, 0x44}
	return frame
}

// Serializes console writes of the client and of the reception go routine
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func NewClient(bus can.Bus, out io.Writer, source LabelSource) *Client {
	out = &lockedWriter{w: out}
	return &Client{
		bus:     bus,
		out:     out,
		printer: NewFramePrinter(out, source),
		logger:  log.WithField("component", "client"),
	}
}

// Open connects the bus, arguments are passed as is to Bus.Connect.
// An error here is fatal, nothing may be sent or received afterwards.
func (c *Client) Open(args ...any) error {
	err := c.bus.Connect(args...)
	if err != nil {
		return fmt.Errorf("failed to open CAN channel : %w", err)
	}
	c.mu.Lock()
	c.opened = true
	c.mu.Unlock()
	if reporter, ok := c.bus.(handleReporter); ok {
		fmt.Fprintf(c.out, "CAN channel opened, handle = %d\n", reporter.Handle())
	} else {
		fmt.Fprintln(c.out, "CAN channel opened")
	}
	return nil
}

func (c *Client) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

// SendOnce sends frame a single time, without retry.
// A failure is reported but is not fatal for the caller.
func (c *Client) SendOnce(frame can.Frame) error {
	if !c.isOpen() {
		return canal.ErrNotOpen
	}
	c.printer.SetSent(frame)
	err := c.bus.Send(frame)
	if err != nil {
		fmt.Fprintf(c.out, "Error writing message: %v\n", err)
		c.logger.Warnf("send of 0x%X failed : %v", frame.ID, err)
		return err
	}
	fmt.Fprintln(c.out, "Message sent")
	return nil
}

// Run prints every received frame until ctx is done, then closes the channel
func (c *Client) Run(ctx context.Context) error {
	if !c.isOpen() {
		return canal.ErrNotOpen
	}
	fmt.Fprintln(c.out, "Starting read loop, Ctrl+C to stop")
	err := c.bus.Subscribe(c.printer)
	if err != nil {
		c.Close()
		return fmt.Errorf("failed to start reception : %w", err)
	}
	<-ctx.Done()
	fmt.Fprintln(c.out, "Stopping")
	return c.Close()
}

// Close disconnects the bus exactly once, later calls return the first result.
// A failing close is logged, the channel is considered gone either way.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.bus.Disconnect()
		if c.closeErr != nil {
			c.logger.Warnf("close reported : %v", c.closeErr)
		}
		if c.isOpen() {
			fmt.Fprintln(c.out, "CAN channel closed")
		}
		c.mu.Lock()
		c.opened = false
		c.mu.Unlock()
	})
	return c.closeErr
}
