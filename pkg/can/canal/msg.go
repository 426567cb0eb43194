package canal

import (
	"github.com/samsamfire/gocanal/pkg/can"
)

// Bit 1 of the message flags marks an extended (29 bit) identifier
const FlagExtended uint32 = 1 << 1

// Msg mirrors struct CanalMsg as the driver expects it in memory.
// Field order and widths are part of the ABI, do not reorder.
//
//	offset  0 flags     uint32
//	offset  4 obid      uint32
//	offset  8 id        uint32
//	offset 12 sizeData  uint8
//	offset 13 data      [8]uint8
//	offset 24 timestamp uint32 (3 bytes of alignment padding before it)
type Msg struct {
	Flags     uint32
	Obid      uint32
	ID        uint32
	SizeData  uint8
	Data      [8]uint8
	Timestamp uint32
}

// MsgFromFrame builds an outbound message, obid and timestamp are left at 0
func MsgFromFrame(frame can.Frame) Msg {
	msg := Msg{
		Flags:    uint32(frame.Flags),
		ID:       frame.ID,
		SizeData: frame.DLC,
		Data:     frame.Data,
	}
	if msg.SizeData > can.MaxDLC {
		msg.SizeData = can.MaxDLC
	}
	return msg
}

// Len returns the number of meaningful data bytes, never more than 8
func (msg *Msg) Len() int {
	if msg.SizeData > can.MaxDLC {
		return can.MaxDLC
	}
	return int(msg.SizeData)
}

// Frame converts the message to a generic frame.
// clamped reports that the driver announced more than 8 data bytes.
func (msg *Msg) Frame() (frame can.Frame, clamped bool) {
	n := msg.Len()
	frame = can.Frame{
		ID:    msg.ID,
		Flags: uint8(msg.Flags),
		DLC:   uint8(n),
	}
	copy(frame.Data[:], msg.Data[:n])
	return frame, int(msg.SizeData) != n
}

// IsExtended reports whether bit 1 of the flags is set
func (msg *Msg) IsExtended() bool {
	return msg.Flags&FlagExtended != 0
}
