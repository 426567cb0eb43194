package virtual

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/samsamfire/gocanal/pkg/can"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal virtualcan broker : every frame is forwarded to all other clients
type broker struct {
	listener net.Listener
	mu       sync.Mutex
	clients  []net.Conn
}

func newBroker(t *testing.T) *broker {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	b := &broker{listener: listener}
	go b.serve()
	t.Cleanup(b.close)
	return b
}

func (b *broker) addr() string {
	return b.listener.Addr().String()
}

func (b *broker) serve() {
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			return
		}
		b.mu.Lock()
		b.clients = append(b.clients, conn)
		b.mu.Unlock()
		go b.forward(conn)
	}
}

func (b *broker) forward(from net.Conn) {
	header := make([]byte, 4)
	for {
		if _, err := io.ReadFull(from, header); err != nil {
			return
		}
		payload := make([]byte, binary.BigEndian.Uint32(header))
		if _, err := io.ReadFull(from, payload); err != nil {
			return
		}
		packet := append(append([]byte{}, header...), payload...)
		b.mu.Lock()
		for _, client := range b.clients {
			if client != from {
				_, _ = client.Write(packet)
			}
		}
		b.mu.Unlock()
	}
}

func (b *broker) close() {
	b.listener.Close()
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, client := range b.clients {
		client.Close()
	}
}

type frameReceiver struct {
	mu     sync.Mutex
	frames []can.Frame
}

func (r *frameReceiver) Handle(frame can.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
}

func (r *frameReceiver) snapshot() []can.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]can.Frame{}, r.frames...)
}

func newVcan(t *testing.T, channel string) *Bus {
	canBus, err := NewVirtualCanBus(channel)
	require.Nil(t, err)
	return canBus.(*Bus)
}

func TestSerializeFrame(t *testing.T) {
	frame := can.Frame{ID: 0x123, Flags: 2, DLC: 4, Data: [8]byte{0x11, 0x22, 0x33, 0x44}}
	raw, err := serializeFrame(frame)
	assert.Nil(t, err)
	assert.EqualValues(t, len(raw)-4, binary.BigEndian.Uint32(raw[:4]))
	decoded, err := deserializeFrame(raw[4:])
	assert.Nil(t, err)
	assert.Equal(t, frame, *decoded)

	_, err = deserializeFrame(raw[4:8])
	assert.Error(t, err)
}

func TestSendAndSubscribe(t *testing.T) {
	b := newBroker(t)
	vcan1 := newVcan(t, b.addr())
	vcan2 := newVcan(t, b.addr())
	require.Nil(t, vcan1.Connect())
	require.Nil(t, vcan2.Connect())
	defer vcan1.Disconnect()
	defer vcan2.Disconnect()

	receiver := &frameReceiver{}
	require.Nil(t, vcan2.Subscribe(receiver))
	// Let the broker register both clients
	time.Sleep(50 * time.Millisecond)

	frame := can.Frame{ID: 0x111, Flags: 0, DLC: 8, Data: [8]byte{0, 1, 2, 3, 4, 5, 6, 7}}
	for i := range 10 {
		frame.Data[0] = uint8(i)
		assert.Nil(t, vcan1.Send(frame))
		time.Sleep(time.Millisecond)
	}
	assert.Eventually(t, func() bool { return len(receiver.snapshot()) == 10 }, 2*time.Second, 10*time.Millisecond)
	for i, frame := range receiver.snapshot() {
		assert.EqualValues(t, 0x111, frame.ID)
		assert.EqualValues(t, uint8(i), frame.Data[0])
	}
}

func TestReceiveOwn(t *testing.T) {
	vcan1 := newVcan(t, "127.0.0.1:1")
	receiver := &frameReceiver{}
	assert.Nil(t, vcan1.Subscribe(receiver))
	frame := can.Frame{ID: 0x111, Flags: 0, DLC: 8, Data: [8]byte{0, 1, 2, 3, 4, 5, 6, 7}}
	assert.Error(t, vcan1.Send(frame))
	assert.Len(t, receiver.snapshot(), 0)

	// Activate receive own
	vcan1.SetReceiveOwn(true)
	assert.Nil(t, vcan1.Send(frame))
	assert.Len(t, receiver.snapshot(), 1)
	assert.Nil(t, vcan1.Disconnect())
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, can.Interfaces(), "virtual")
	assert.Contains(t, can.Interfaces(), "virtualcan")
}
