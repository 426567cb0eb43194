package canal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samsamfire/gocanal/pkg/can"
	log "github.com/sirupsen/logrus"
)

// Wrapper around a CANAL driver implementing the can.Bus interface.
// Reception is done by polling CanalReceive from a single go routine.

const DefaultPollInterval = 100 * time.Millisecond

func init() {
	can.RegisterInterface("canal", NewBus)
}

type Bus struct {
	logger       *log.Entry
	mu           sync.Mutex
	driver       Driver
	library      *Library // only set when the bus loaded the driver itself
	channel      *Channel
	framehandler can.FrameListener
	pollInterval time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	isRunning    bool
}

// NewBus loads the CANAL driver found at libraryPath
func NewBus(libraryPath string) (can.Bus, error) {
	lib, err := Load(libraryPath)
	if err != nil {
		return nil, err
	}
	bus := NewBusWithDriver(lib)
	bus.library = lib
	return bus, nil
}

// NewBusWithDriver uses an already available driver, it is not released on disconnect
func NewBusWithDriver(driver Driver) *Bus {
	return &Bus{
		logger:       log.WithField("bus", "canal"),
		driver:       driver,
		pollInterval: DefaultPollInterval,
	}
}

// "Connect" opens the channel.
// Expected arguments : config (string or ConfigString) and optional open flags.
func (b *Bus) Connect(args ...any) error {
	config, flags, err := parseConnectArgs(args)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channel != nil {
		return ErrAlreadyOpen
	}
	if b.driver == nil {
		return fmt.Errorf("CANAL driver has been released")
	}
	channel, err := Open(b.driver, config, flags)
	if err != nil {
		return err
	}
	b.channel = channel
	return nil
}

func parseConnectArgs(args []any) (config string, flags uint32, err error) {
	if len(args) == 0 {
		return "", 0, fmt.Errorf("connect expects a CANAL config string")
	}
	switch c := args[0].(type) {
	case string:
		config = c
	case ConfigString:
		config = c.String()
	default:
		return "", 0, fmt.Errorf("invalid CANAL config type %T", args[0])
	}
	if len(args) < 2 {
		return config, 0, nil
	}
	switch f := args[1].(type) {
	case uint32:
		flags = f
	case int:
		flags = uint32(f)
	case uint:
		flags = uint32(f)
	default:
		return "", 0, fmt.Errorf("invalid CANAL open flags type %T", args[1])
	}
	return config, flags, nil
}

// "Disconnect" stops reception and closes the channel.
// Close is sent to the driver once, after any pending receive call has returned.
func (b *Bus) Disconnect() error {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.channel != nil {
		err = b.channel.Close()
		b.channel = nil
	}
	if b.library != nil {
		if relErr := b.library.Release(); relErr != nil {
			b.logger.Warnf("[CANAL] failed to release driver : %v", relErr)
		}
		b.library = nil
		b.driver = nil
	}
	return err
}

// "Send" implementation of Bus interface
func (b *Bus) Send(frame can.Frame) error {
	b.mu.Lock()
	channel := b.channel
	b.mu.Unlock()
	if channel == nil {
		return ErrNotOpen
	}
	msg := MsgFromFrame(frame)
	err := channel.Send(&msg)
	if err != nil {
		return err
	}
	b.logger.Debugf("[CANAL] TX id=0x%03X dlc=%d data=% X", msg.ID, msg.SizeData, msg.Data[:msg.Len()])
	return nil
}

// "Subscribe" implementation of Bus interface
func (b *Bus) Subscribe(framehandler can.FrameListener) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channel == nil {
		return ErrNotOpen
	}
	b.framehandler = framehandler
	if b.isRunning {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.isRunning = true
	b.wg.Add(1)
	go b.handleReception(ctx, b.channel, b.pollInterval)
	return nil
}

// SetPollInterval sets the sleep between two empty polls, used by the next Subscribe
func (b *Bus) SetPollInterval(interval time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if interval > 0 {
		b.pollInterval = interval
	}
}

// Handle of the open channel, 0 when not connected
func (b *Bus) Handle() Handle {
	b.mu.Lock()
	channel := b.channel
	b.mu.Unlock()
	if channel == nil {
		return 0
	}
	return channel.Handle()
}

func (b *Bus) listener() can.FrameListener {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.framehandler
}

// Poll the driver until ctx is cancelled
func (b *Bus) handleReception(ctx context.Context, channel *Channel, interval time.Duration) {
	defer func() {
		b.mu.Lock()
		b.isRunning = false
		b.mu.Unlock()
		b.wg.Done()
	}()
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		var msg Msg
		ok, _ := channel.Receive(&msg)
		if ok {
			frame, clamped := msg.Frame()
			if clamped {
				b.logger.Warnf("[CANAL] id 0x%X announced %d data bytes, keeping %d", msg.ID, msg.SizeData, frame.DLC)
			}
			b.logger.Debugf("[CANAL] RX id=0x%03X dlc=%d data=% X", frame.ID, frame.DLC, frame.Payload())
			if handler := b.listener(); handler != nil {
				handler.Handle(frame)
			}
			continue
		}
		// No message or error, wait before polling again
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}
