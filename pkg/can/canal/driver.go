package canal

import (
	"fmt"
	"strconv"
	"strings"
)

// Handle identifies an open driver channel, valid when > 0.
// Wide enough for a C long on every platform.
type Handle int64

// Driver is the CANAL entry point set used by this package.
//
//	long CanalOpen(const char *pConfigStr, unsigned long flags);
//	long CanalClose(long handle);
//	long CanalSend(long handle, const struct CanalMsg *pMsg);
//	long CanalReceive(long handle, struct CanalMsg *pMsg);
type Driver interface {
	Open(config string, flags uint32) Handle
	Close(handle Handle) Status
	Send(handle Handle, msg *Msg) Status
	Receive(handle Handle, msg *Msg) Status
}

// ConfigString is the "<mode>;<serial>;<bitrate>" device string passed to CanalOpen
type ConfigString struct {
	Mode    uint32
	Serial  string
	Bitrate uint32 // kbps
}

func (c ConfigString) String() string {
	return fmt.Sprintf("%d;%s;%d", c.Mode, c.Serial, c.Bitrate)
}

// ParseConfigString parses e.g. "0;00005502;125" or "0 ; 12345678 ; 125"
func ParseConfigString(s string) (ConfigString, error) {
	fields := strings.Split(s, ";")
	if len(fields) != 3 {
		return ConfigString{}, fmt.Errorf("invalid CANAL config %q : expected <mode>;<serial>;<bitrate>", s)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	mode, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return ConfigString{}, fmt.Errorf("invalid CANAL config %q : bad mode : %w", s, err)
	}
	bitrate, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return ConfigString{}, fmt.Errorf("invalid CANAL config %q : bad bitrate : %w", s, err)
	}
	return ConfigString{Mode: uint32(mode), Serial: fields[1], Bitrate: uint32(bitrate)}, nil
}
