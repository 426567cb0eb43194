package gocanal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/samsamfire/gocanal/pkg/can"
	"github.com/samsamfire/gocanal/pkg/can/canal"
)

// LabelSource selects which flags decide the EXTENDED / STANDARD label
type LabelSource uint8

const (
	// Flags of the frame sent at startup, every frame is labelled the same way
	LabelFromSent LabelSource = iota
	// Flags of the frame being printed
	LabelFromReceived
)

func (s LabelSource) String() string {
	switch s {
	case LabelFromSent:
		return "sent"
	case LabelFromReceived:
		return "received"
	default:
		return fmt.Sprintf("LabelSource(%d)", uint8(s))
	}
}

func ParseLabelSource(s string) (LabelSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sent":
		return LabelFromSent, nil
	case "received":
		return LabelFromReceived, nil
	}
	return 0, fmt.Errorf("unknown label source %q, expected \"sent\" or \"received\"", s)
}

// IsExtended reports whether bit 1 of flags is set
func IsExtended(flags uint8) bool {
	return uint32(flags)&canal.FlagExtended != 0
}

// FormatFrame renders e.g. "STANDARD: ID=0x123 DLC=4 DATA=11 22 33 44".
// Only the first DLC bytes are printed, DLC is clamped to 8.
func FormatFrame(frame can.Frame, extended bool) string {
	label := "STANDARD"
	if extended {
		label = "EXTENDED"
	}
	payload := frame.Payload()
	data := make([]string, len(payload))
	for i, b := range payload {
		data[i] = fmt.Sprintf("%02X", b)
	}
	return fmt.Sprintf("%s: ID=0x%03X DLC=%d DATA=%s", label, frame.ID, len(payload), strings.Join(data, " "))
}

// FramePrinter writes one line per received frame
type FramePrinter struct {
	mu     sync.Mutex
	out    io.Writer
	source LabelSource
	sent   can.Frame
}

func NewFramePrinter(out io.Writer, source LabelSource) *FramePrinter {
	return &FramePrinter{out: out, source: source}
}

// SetSent records the outbound frame used by LabelFromSent
func (p *FramePrinter) SetSent(frame can.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = frame
}

// Implements the can.FrameListener interface
func (p *FramePrinter) Handle(frame can.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	flags := p.sent.Flags
	if p.source == LabelFromReceived {
		flags = frame.Flags
	}
	fmt.Fprintf(p.out, "Received frame: %s\n", FormatFrame(frame, IsExtended(flags)))
}

var _ can.FrameListener = (*FramePrinter)(nil)
