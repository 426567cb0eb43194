package canal

import (
	"errors"
	"fmt"
)

// Status is the value returned by CanalClose, CanalSend and CanalReceive
type Status int64

const (
	StatusGeneric         Status = -1
	StatusSuccess         Status = 0
	StatusBaudrate        Status = 1
	StatusBusOff          Status = 2
	StatusBusPassive      Status = 3
	StatusBusWarning      Status = 4
	StatusCanID           Status = 5
	StatusCanMessage      Status = 6
	StatusChannel         Status = 7
	StatusFifoEmpty       Status = 8
	StatusFifoFull        Status = 9
	StatusFifoSize        Status = 10
	StatusFifoWait        Status = 11
	StatusGenericError    Status = 12
	StatusHardware        Status = 13
	StatusInitFail        Status = 14
	StatusInitMissing     Status = 15
	StatusInitReady       Status = 16
	StatusNotSupported    Status = 17
	StatusOverrun         Status = 18
	StatusRcvEmpty        Status = 19
	StatusRegister        Status = 20
	StatusTrmFull         Status = 21
	StatusErrFrameStuff   Status = 22
	StatusErrFrameForm    Status = 23
	StatusErrFrameAck     Status = 24
	StatusErrFrameBit1    Status = 25
	StatusErrFrameBit0    Status = 26
	StatusErrFrameCrc     Status = 27
	StatusLibrary         Status = 28
	StatusProcAddress     Status = 29
	StatusOnlyOneInstance Status = 30
	StatusSubDriver       Status = 31
	StatusTimeout         Status = 32
	StatusNotOpen         Status = 33
	StatusParameter       Status = 34
	StatusMemory          Status = 35
	StatusInternal        Status = 36
	StatusCommunication   Status = 37
	StatusUser            Status = 38
)

// A map between the status codes and their description
var canalErrors = map[Status]string{
	StatusGeneric:         "Generic driver failure",
	StatusSuccess:         "Operation completed successfully",
	StatusBaudrate:        "Baudrate error",
	StatusBusOff:          "Bus off",
	StatusBusPassive:      "Bus passive",
	StatusBusWarning:      "Bus warning",
	StatusCanID:           "Invalid CAN id",
	StatusCanMessage:      "Invalid CAN message",
	StatusChannel:         "Invalid channel",
	StatusFifoEmpty:       "Fifo is empty",
	StatusFifoFull:        "Fifo is full",
	StatusFifoSize:        "Fifo size error",
	StatusFifoWait:        "Fifo wait error",
	StatusGenericError:    "Generic error",
	StatusHardware:        "Hardware error",
	StatusInitFail:        "Initialization failed",
	StatusInitMissing:     "Initialization missing",
	StatusInitReady:       "Already initialized",
	StatusNotSupported:    "Not supported",
	StatusOverrun:         "Overrun",
	StatusRcvEmpty:        "Receive buffer empty",
	StatusRegister:        "Register value error",
	StatusTrmFull:         "Transmit buffer full",
	StatusErrFrameStuff:   "Errorframe: stuff error detected",
	StatusErrFrameForm:    "Errorframe: form error detected",
	StatusErrFrameAck:     "Errorframe: acknowledge error",
	StatusErrFrameBit1:    "Errorframe: bit 1 error",
	StatusErrFrameBit0:    "Errorframe: bit 0 error",
	StatusErrFrameCrc:     "Errorframe: CRC error",
	StatusLibrary:         "Unable to load library",
	StatusProcAddress:     "Unable to get library proc address",
	StatusOnlyOneInstance: "Only one instance allowed",
	StatusSubDriver:       "Problem with sub driver call",
	StatusTimeout:         "Blocking call timeout",
	StatusNotOpen:         "The device is not open",
	StatusParameter:       "A parameter is invalid",
	StatusMemory:          "Memory exhausted",
	StatusInternal:        "Some kind of internal program error",
	StatusCommunication:   "Some kind of communication error",
	StatusUser:            "Login error",
}

func (status Status) String() string {
	desc, ok := canalErrors[status]
	if !ok {
		return "unknown CANAL error"
	}
	return desc
}

// CanalError is a non zero status returned by the driver
type CanalError struct {
	Status Status
}

func (e *CanalError) Error() string {
	return fmt.Sprintf("%v (%d)", e.Status, int64(e.Status))
}

// NewCanalError returns nil for a successful status
func NewCanalError(status Status) error {
	if status == StatusSuccess {
		return nil
	}
	return &CanalError{Status: status}
}

// OpenError is returned when CanalOpen gives back a handle <= 0
type OpenError struct {
	Config string
	Handle Handle
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("CanalOpen rejected %q, handle=%d", e.Config, int64(e.Handle))
}

var ErrNotOpen = errors.New("CAN channel is not open")
var ErrAlreadyOpen = errors.New("CAN channel is already open")
